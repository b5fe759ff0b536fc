package main

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/ingest"
	"github.com/lox/forecastdash/internal/store"
)

// Globals are shared by every command.
type Globals struct {
	City      string        `help:"City as name,country code." env:"FORECAST_CITY" default:"Kirkland,US"`
	APIKey    string        `help:"OpenWeatherMap API key." env:"OWM_API_KEY" required:""`
	Endpoint  string        `help:"Forecast endpoint." env:"OWM_ENDPOINT" default:"${endpoint}"`
	Timeout   time.Duration `help:"Forecast request timeout." env:"FORECAST_TIMEOUT" default:"15s"`
	RateLimit float64       `help:"Forecast requests per second (0 disables)." env:"FORECAST_RATE_LIMIT" default:"1"`
	Burst     int           `help:"Forecast request burst." env:"FORECAST_BURST" default:"5"`
	Timezone  string        `help:"Display timezone." env:"DISPLAY_TIMEZONE" default:"America/Los_Angeles"`
	AuditDB   string        `help:"SQLite run audit log; empty disables it." env:"AUDIT_DB" type:"path"`
}

type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" default:"1" help:"Serve the dashboard over HTTP."`
	Report  ReportCmd  `cmd:"" help:"Fetch once and print a text report."`
	Publish PublishCmd `cmd:"" help:"Render a static dashboard and optionally upload it over FTP."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: could not load .env: %v", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("forecastdash"),
		kong.Description("5-day / 3-hour forecast dashboard for one city."),
		kong.UsageOnError(),
		kong.Vars{"endpoint": ingest.DefaultEndpoint},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func (g *Globals) location() *time.Location {
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		log.Printf("warning: could not load %s timezone, using UTC: %v", g.Timezone, err)
		return time.UTC
	}
	return loc
}

func (g *Globals) client() *ingest.Client {
	return ingest.NewClient(ingest.Config{
		Endpoint:  g.Endpoint,
		City:      g.City,
		APIKey:    g.APIKey,
		Timeout:   g.Timeout,
		RateLimit: g.RateLimit,
		Burst:     g.Burst,
	})
}

// openStore opens the audit log when configured. The returned store is nil
// when auditing is off.
func (g *Globals) openStore() (*store.Store, error) {
	if g.AuditDB == "" {
		return nil, nil
	}
	st, err := store.Open(g.AuditDB)
	if err != nil {
		return nil, err
	}
	log.Printf("audit log at %s", g.AuditDB)
	return st, nil
}

func (g *Globals) pipeline(st *store.Store) *dashboard.Pipeline {
	var recorder dashboard.Recorder
	if st != nil {
		recorder = st
	}
	return dashboard.NewPipeline(g.client(), g.City, recorder)
}
