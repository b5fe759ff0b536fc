package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/forecastdash/internal/forecast"
)

// Generator paints header banners for the dashboard using OpenAI's image API.
type Generator struct {
	client openai.Client
	model  string
	city   string
}

// NewGenerator returns a generator for city. Extra options are passed to the
// OpenAI client.
func NewGenerator(apiKey, city string, opts ...option.RequestOption) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Generator{
		client: openai.NewClient(opts...),
		model:  "gpt-image-1",
		city:   city,
	}, nil
}

// Generate returns a PNG banner for the condition and time of day.
func (g *Generator) Generate(ctx context.Context, condition forecast.WeatherCondition, tod forecast.TimeOfDay) ([]byte, error) {
	prompt := forecast.BuildPrompt(g.city, condition, tod)
	key := forecast.ConditionWithTime(condition, tod)

	log.Printf("imagegen: generating banner for %s", key)

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:        g.model,
		Prompt:       prompt,
		Size:         openai.ImageGenerateParamsSize1536x1024,
		Quality:      openai.ImageGenerateParamsQualityLow,
		OutputFormat: openai.ImageGenerateParamsOutputFormatPNG,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no image data returned")
	}
	imageData := resp.Data[0].B64JSON
	if imageData == "" {
		return nil, errors.New("empty image data returned")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	log.Printf("imagegen: generated %s (%d bytes)", key, len(imageBytes))
	return imageBytes, nil
}
