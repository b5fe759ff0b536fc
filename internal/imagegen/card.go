package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"sync"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	faceLarge   font.Face
	faceTitle   font.Face
	faceRegular font.Face
	fontOnce    sync.Once
	fontErr     error
)

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func loadFonts() {
	fontOnce.Do(func() {
		if faceLarge, fontErr = newFace(goregular.TTF, 120); fontErr != nil {
			return
		}
		if faceTitle, fontErr = newFace(gobold.TTF, 44); fontErr != nil {
			return
		}
		faceRegular, fontErr = newFace(goregular.TTF, 34)
	})
}

// CardData is what the share card shows.
type CardData struct {
	City         string
	TemperatureF float64
	Condition    string // title-cased description
	LowF, HighF  float64
	HasRange     bool // LowF and HighF are known
	Footer       string

	// Background and Accent are hex colors used when there is no banner.
	Background string
	Accent     string
}

// GenerateCard draws a 1200x630 PNG share card. When banner is a decodable
// image it is center-cropped behind the text; otherwise a vertical gradient
// from the palette is used.
func GenerateCard(banner []byte, data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawn := false
	if len(banner) > 0 {
		if src, _, err := image.Decode(bytes.NewReader(banner)); err == nil {
			coverCrop(dst, src)
			drawn = true
		}
	}
	if !drawn {
		drawGradient(dst, parseHex(data.Background, color.RGBA{20, 20, 40, 255}))
	}

	darkenBottom(dst, 320)
	drawCardText(dst, data)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// coverCrop scales src to cover dst and crops the overflow evenly, using
// nearest-neighbour sampling.
func coverCrop(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()
	if srcW == 0 || srcH == 0 {
		return
	}

	scale := float64(CardWidth) / float64(srcW)
	if s := float64(CardHeight) / float64(srcH); s > scale {
		scale = s
	}
	offsetX := (int(float64(srcW)*scale) - CardWidth) / 2
	offsetY := (int(float64(srcH)*scale) - CardHeight) / 2

	for y := 0; y < CardHeight; y++ {
		for x := 0; x < CardWidth; x++ {
			sx := int(float64(x+offsetX) / scale)
			sy := int(float64(y+offsetY) / scale)
			if sx >= 0 && sx < srcW && sy >= 0 && sy < srcH {
				dst.Set(x, y, src.At(sb.Min.X+sx, sb.Min.Y+sy))
			}
		}
	}
}

func drawGradient(img *image.RGBA, base color.RGBA) {
	for y := 0; y < CardHeight; y++ {
		// fade from base to 60% of base
		k := 1 - 0.4*float64(y)/float64(CardHeight)
		c := color.RGBA{
			R: uint8(float64(base.R) * k),
			G: uint8(float64(base.G) * k),
			B: uint8(float64(base.B) * k),
			A: 255,
		}
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func darkenBottom(img *image.RGBA, height int) {
	b := img.Bounds()
	for y := b.Max.Y - height; y < b.Max.Y; y++ {
		progress := float64(y-(b.Max.Y-height)) / float64(height)
		alpha := progress * progress * 0.85
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			c.R = uint8(float64(c.R) * (1 - alpha))
			c.G = uint8(float64(c.G) * (1 - alpha))
			c.B = uint8(float64(c.B) * (1 - alpha))
			img.SetRGBA(x, y, c)
		}
	}
}

func drawCardText(img *image.RGBA, data CardData) {
	white := color.RGBA{255, 255, 255, 255}
	muted := color.RGBA{210, 210, 210, 255}
	accent := parseHex(data.Accent, color.RGBA{166, 216, 247, 255})

	if data.City != "" {
		drawText(img, data.City, 60, 90, white, faceTitle)
	}
	drawText(img, fmt.Sprintf("%.0f°F", data.TemperatureF), 60, CardHeight-190, white, faceLarge)

	line := data.Condition
	if data.HasRange {
		if line != "" {
			line += "  ·  "
		}
		line += fmt.Sprintf("%.0f°F / %.0f°F", data.LowF, data.HighF)
	}
	if line != "" {
		drawText(img, line, 60, CardHeight-100, accent, faceRegular)
	}
	if data.Footer != "" {
		drawText(img, data.Footer, 60, CardHeight-40, muted, faceRegular)
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func parseHex(hex string, fallback color.RGBA) color.RGBA {
	if hex == "" {
		return fallback
	}
	c := drawing.ColorFromHex(hex)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
