package api

import (
	"bytes"
	"log"
	"net/http"
	"net/url"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/forecast"
	"github.com/lox/forecastdash/internal/metrics"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap, err := s.pipeline.Load(r.Context())
	if err != nil {
		metrics.DashboardRendersTotal.WithLabelValues("html", dashboard.FailureKind(err)).Inc()
		s.renderError(w, err)
		return
	}

	page := dashboard.NewPage(snap, s.loc)
	page.Charts = dashboard.RenderCharts(snap, s.loc)
	page.ShareURL = absoluteURL(r, "/og-image.png")
	if s.bannerAvailable(page.Condition, page.TimeOfDay) {
		q := url.Values{}
		q.Set("condition", string(page.Condition))
		q.Set("tod", string(page.TimeOfDay))
		page.BannerURL = "/banner.png?" + q.Encode()
	}

	var buf bytes.Buffer
	if err := dashboard.RenderPage(&buf, page); err != nil {
		log.Printf("api: render dashboard: %v", err)
		metrics.DashboardRendersTotal.WithLabelValues("html", "unexpected").Inc()
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	metrics.DashboardRendersTotal.WithLabelValues("html", "ok").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// renderError writes the error page and nothing else.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	var buf bytes.Buffer
	page := dashboard.ErrorPage{
		Title:   "5-Day Weather Forecast for " + s.pipeline.City(),
		Message: dashboard.UserMessage(err),
	}
	if rerr := dashboard.RenderError(&buf, page); rerr != nil {
		log.Printf("api: render error page: %v", rerr)
		http.Error(w, page.Message, loadErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(loadErrorStatus(err))
	w.Write(buf.Bytes())
}

func loadErrorStatus(err error) int {
	if dashboard.IsUpstream(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) bannerAvailable(condition forecast.WeatherCondition, tod forecast.TimeOfDay) bool {
	if s.imageGen != nil {
		return true
	}
	if s.imageCache == nil {
		return false
	}
	_, ok := s.imageCache.Get(forecast.ConditionWithTime(condition, tod))
	return ok
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + path
}
