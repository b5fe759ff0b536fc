package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/imagegen"
	"github.com/lox/forecastdash/internal/store"
)

// Options holds the optional collaborators of a Server. Any of them may be
// nil; the matching routes degrade instead of failing.
type Options struct {
	Store      *store.Store
	ImageCache *imagegen.Cache
	ImageGen   *imagegen.Generator
	CardTTL    time.Duration
}

type Server struct {
	pipeline   *dashboard.Pipeline
	store      *store.Store
	port       string
	loc        *time.Location
	imageCache *imagegen.Cache
	imageGen   *imagegen.Generator
	genMu      sync.Mutex // serializes banner generation
	cardCache  *imagegen.CardCache
}

func NewServer(pipeline *dashboard.Pipeline, port string, loc *time.Location, opts Options) *Server {
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.CardTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if opts.ImageGen == nil {
		log.Printf("api: banner generation disabled")
	}
	return &Server{
		pipeline:   pipeline,
		store:      opts.Store,
		port:       port,
		loc:        loc,
		imageCache: opts.ImageCache,
		imageGen:   opts.ImageGen,
		cardCache:  imagegen.NewCardCache(ttl),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/forecast", s.handleAPIForecast)
	mux.HandleFunc("/api/runs", s.handleAPIRuns)
	mux.HandleFunc("/og-image.png", s.handleOGImage)
	mux.HandleFunc("/banner.png", s.handleBanner)
	mux.Handle("/metrics", promhttp.Handler())
	return withRequestLogging(mux)
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s for %s", s.port, s.pipeline.City())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"city":   s.pipeline.City(),
		"time":   time.Now().UTC(),
	}
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			resp["status"] = "degraded"
			resp["store"] = err.Error()
		} else {
			if v, err := s.store.MigrationVersion(); err == nil {
				resp["schema_version"] = v
			}
			if last, err := s.store.LastSuccess(s.pipeline.City()); err == nil && last != nil {
				resp["last_success"] = last.StartedAt
			}
		}
	}
	if s.imageCache != nil {
		resp["cached_banners"] = s.imageCache.List()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
