package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/forecast"
	"github.com/lox/forecastdash/internal/imagegen"
	"github.com/lox/forecastdash/internal/metrics"
	"github.com/lox/forecastdash/internal/publish"
)

// handleBanner serves the illustration for ?condition=&tod=, generating it
// on a cache miss. tod defaults to the current time of day.
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	condition, ok := forecast.ParseCondition(r.URL.Query().Get("condition"))
	if !ok {
		http.Error(w, "unknown condition", http.StatusBadRequest)
		return
	}
	tod := forecast.GetTimeOfDay(time.Now().In(s.loc))
	if v := r.URL.Query().Get("tod"); v != "" {
		if tod, ok = forecast.ParseTimeOfDay(v); !ok {
			http.Error(w, "unknown time of day", http.StatusBadRequest)
			return
		}
	}
	key := forecast.ConditionWithTime(condition, tod)

	if data, ok := s.cachedBanner(key); ok {
		serveBannerImage(w, data)
		return
	}
	if s.imageGen == nil {
		http.Error(w, "Banner not available", http.StatusServiceUnavailable)
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()

	// Another request may have generated it while we waited.
	if data, ok := s.cachedBanner(key); ok {
		serveBannerImage(w, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	log.Printf("api: generating banner %s", key)
	data, err := s.imageGen.Generate(ctx, condition, tod)
	if err != nil {
		log.Printf("api: banner generation failed: %v", err)
		http.Error(w, "Image generation failed", http.StatusServiceUnavailable)
		return
	}
	if s.imageCache != nil {
		if err := s.imageCache.Set(key, data); err != nil {
			log.Printf("api: cache banner %s: %v", key, err)
		}
	}
	serveBannerImage(w, data)
}

func (s *Server) cachedBanner(key string) ([]byte, bool) {
	if s.imageCache == nil {
		return nil, false
	}
	return s.imageCache.Get(key)
}

func serveBannerImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// handleOGImage serves the share card for the current forecast. Cards are
// cached briefly so link previews do not each trigger a fetch.
func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.cardCache.Get(); ok {
		serveCard(w, data)
		return
	}

	snap, err := s.pipeline.Load(r.Context())
	if err != nil {
		metrics.DashboardRendersTotal.WithLabelValues("card", dashboard.FailureKind(err)).Inc()
		http.Error(w, dashboard.UserMessage(err), loadErrorStatus(err))
		return
	}

	page := dashboard.NewPage(snap, s.loc)
	banner, _ := s.cachedBanner(forecast.ConditionWithTime(page.Condition, page.TimeOfDay))
	data, err := imagegen.GenerateCard(banner, publish.CardData(page))
	if err != nil {
		log.Printf("api: render card: %v", err)
		metrics.DashboardRendersTotal.WithLabelValues("card", "unexpected").Inc()
		http.Error(w, "Failed to render card", http.StatusInternalServerError)
		return
	}

	metrics.DashboardRendersTotal.WithLabelValues("card", "ok").Inc()
	s.cardCache.Set(data)
	serveCard(w, data)
}

func serveCard(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.Write(data)
}
