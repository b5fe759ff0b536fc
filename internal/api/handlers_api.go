package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/forecastdash/internal/dashboard"
	"github.com/lox/forecastdash/internal/metrics"
	"github.com/lox/forecastdash/internal/models"
	"github.com/lox/forecastdash/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pipeline.Load(r.Context())
	if err != nil {
		kind := dashboard.FailureKind(err)
		metrics.DashboardRendersTotal.WithLabelValues("json", kind).Inc()
		writeJSON(w, loadErrorStatus(err), errorResponse{Error: dashboard.UserMessage(err), Kind: kind})
		return
	}
	metrics.DashboardRendersTotal.WithLabelValues("json", "ok").Inc()
	writeJSON(w, http.StatusOK, snap)
}

type runView struct {
	ID           int64      `json:"id"`
	City         string     `json:"city"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	HTTPStatus   *int64     `json:"http_status,omitempty"`
	RowsParsed   *int64     `json:"rows_parsed,omitempty"`
	Success      bool       `json:"success"`
	FailureKind  string     `json:"failure_kind,omitempty"`
	Error        string     `json:"error,omitempty"`
	QualityFlags []string   `json:"quality_flags,omitempty"`
}

func newRunView(run models.Run) runView {
	v := runView{
		ID:          run.ID,
		City:        run.City,
		StartedAt:   run.StartedAt,
		Success:     run.Success,
		FailureKind: run.FailureKind.String,
		Error:       run.ErrorMessage.String,
	}
	if run.FinishedAt.Valid {
		t := run.FinishedAt.Time
		v.FinishedAt = &t
	}
	if run.HTTPStatus.Valid {
		n := run.HTTPStatus.Int64
		v.HTTPStatus = &n
	}
	if run.RowsParsed.Valid {
		n := run.RowsParsed.Int64
		v.RowsParsed = &n
	}
	if run.QualityFlags.Valid {
		json.Unmarshal([]byte(run.QualityFlags.String), &v.QualityFlags)
	}
	return v
}

type runsResponse struct {
	Runs   []runView                `json:"runs"`
	Health []store.RunHealthSummary `json:"health"`
}

func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "audit log disabled"})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, 200)
	}

	fetch := s.store.RecentRuns
	if r.URL.Query().Get("failed") == "1" {
		fetch = s.store.RecentFailures
	}
	runs, err := fetch(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	health, err := s.store.RunHealth(7)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := runsResponse{Runs: make([]runView, 0, len(runs)), Health: health}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, newRunView(run))
	}
	writeJSON(w, http.StatusOK, resp)
}
