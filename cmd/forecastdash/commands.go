package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lox/forecastdash/internal/api"
	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/forecast"
	"github.com/lox/forecastdash/internal/imagegen"
	"github.com/lox/forecastdash/internal/publish"
)

type ServeCmd struct {
	Port      string `help:"HTTP listen port." env:"PORT" default:"8080"`
	OpenAIKey string `help:"OpenAI API key for banner illustrations." env:"OPENAI_API_KEY"`
	ImageDir  string `help:"Banner cache directory." env:"IMAGE_DIR" default:"data/images" type:"path"`
}

func (c *ServeCmd) Run(g *Globals) error {
	st, err := g.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	opts := api.Options{
		Store:      st,
		ImageCache: imagegen.NewCache(c.ImageDir, 0),
	}
	if c.OpenAIKey != "" {
		gen, err := imagegen.NewGenerator(c.OpenAIKey, g.City)
		if err != nil {
			return fmt.Errorf("image generator: %w", err)
		}
		opts.ImageGen = gen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(g.pipeline(st), c.Port, g.location(), opts)
	return server.Run(ctx)
}

type ReportCmd struct{}

func (c *ReportCmd) Run(g *Globals) error {
	st, err := g.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	snap, err := g.pipeline(st).Load(context.Background())
	if err != nil {
		return fmt.Errorf("%s", dashboard.UserMessage(err))
	}
	return dashboard.WriteReport(os.Stdout, snap, g.location())
}

type PublishCmd struct {
	Out       string        `help:"Output directory." env:"PUBLISH_DIR" default:"public" type:"path"`
	SiteURL   string        `help:"Public URL of the published site, for share links." env:"SITE_URL"`
	OpenAIKey string        `help:"OpenAI API key for the banner illustration." env:"OPENAI_API_KEY"`
	ImageDir  string        `help:"Banner cache directory." env:"IMAGE_DIR" default:"data/images" type:"path"`
	FTPAddr   string        `help:"FTP host:port; empty skips the upload." env:"FTP_ADDR"`
	FTPUser   string        `help:"FTP user." env:"FTP_USER"`
	FTPPass   string        `help:"FTP password." env:"FTP_PASSWORD"`
	FTPDir    string        `help:"Remote directory." env:"FTP_DIR"`
	FTPRetry  uint64        `help:"FTP reconnect attempts." env:"FTP_RETRIES" default:"3"`
	Deadline  time.Duration `help:"Overall publish deadline." default:"5m"`
}

func (c *PublishCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelDeadline := context.WithTimeout(ctx, c.Deadline)
	defer cancelDeadline()

	st, err := g.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	loc := g.location()
	snap, err := g.pipeline(st).Load(ctx)
	if err != nil {
		return fmt.Errorf("%s", dashboard.UserMessage(err))
	}

	files, err := publish.Bundle(snap, publish.Options{
		Location: loc,
		Banner:   c.banner(ctx, g, snap, loc),
		SiteURL:  c.SiteURL,
	})
	if err != nil {
		return err
	}
	if err := publish.WriteDir(c.Out, files); err != nil {
		return err
	}

	if c.FTPAddr == "" {
		return nil
	}
	uploader := publish.NewUploader(publish.FTPConfig{
		Addr:       c.FTPAddr,
		User:       c.FTPUser,
		Password:   c.FTPPass,
		Dir:        c.FTPDir,
		MaxRetries: c.FTPRetry,
	})
	return uploader.Upload(ctx, files)
}

// banner returns the illustration for the current condition, from the cache
// or freshly generated. A missing banner is not an error.
func (c *PublishCmd) banner(ctx context.Context, g *Globals, snap *dashboard.Snapshot, loc *time.Location) []byte {
	page := dashboard.NewPage(snap, loc)
	key := forecast.ConditionWithTime(page.Condition, page.TimeOfDay)
	cache := imagegen.NewCache(c.ImageDir, 0)
	if data, ok := cache.Get(key); ok {
		return data
	}
	if c.OpenAIKey == "" {
		return nil
	}

	gen, err := imagegen.NewGenerator(c.OpenAIKey, g.City)
	if err != nil {
		log.Printf("publish: banner disabled: %v", err)
		return nil
	}
	data, err := gen.Generate(ctx, page.Condition, page.TimeOfDay)
	if err != nil {
		log.Printf("publish: banner generation failed: %v", err)
		return nil
	}
	if err := cache.Set(key, data); err != nil {
		log.Printf("publish: cache banner %s: %v", key, err)
	}
	return data
}
