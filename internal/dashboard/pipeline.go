package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lox/forecastdash/internal/ingest"
	"github.com/lox/forecastdash/internal/metrics"
	"github.com/lox/forecastdash/internal/models"
	"github.com/lox/forecastdash/internal/stats"
)

// Source fetches one raw forecast. *ingest.Client implements it.
type Source interface {
	FetchForecast(ctx context.Context) (*ingest.Response, error)
}

// Recorder persists the outcome of each load. *store.Store implements it.
type Recorder interface {
	StartRun(city string) (*models.Run, error)
	CompleteRun(run *models.Run) error
}

// Snapshot is the normalized table plus every aggregate the presentation
// layer shows. It is built once per load and never mutated.
type Snapshot struct {
	City      string    `json:"city"`
	FetchedAt time.Time `json:"fetched_at"`

	Rows      []models.ForecastRow `json:"rows"`
	DailyTemp []stats.DailyRange   `json:"daily_temperature_f"`
	DailyWind []stats.DailyRange   `json:"daily_wind_speed"`
	MeanTempF float64              `json:"mean_temperature_f"`

	// Correlation is only meaningful when CorrelationOK; otherwise
	// CorrelationNote says why it was not computed.
	Correlation     float64 `json:"correlation"`
	CorrelationOK   bool    `json:"correlation_ok"`
	CorrelationNote string  `json:"correlation_note,omitempty"`

	Summary      stats.Summary `json:"summary"`
	QualityFlags []string      `json:"quality_flags,omitempty"`
}

// Pipeline runs fetch, normalize and aggregate for one city.
type Pipeline struct {
	src      Source
	city     string
	recorder Recorder
}

// NewPipeline returns a pipeline. recorder may be nil.
func NewPipeline(src Source, city string, recorder Recorder) *Pipeline {
	return &Pipeline{src: src, city: city, recorder: recorder}
}

func (p *Pipeline) City() string { return p.city }

// Load fetches and aggregates a fresh forecast. Any error is terminal: no
// snapshot is returned alongside it.
func (p *Pipeline) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	run := p.startRun()

	snap, status, err := p.load(ctx)

	p.completeRun(run, snap, status, err)
	if err != nil {
		log.Printf("dashboard: load %s failed after %v: %v", p.city, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	log.Printf("dashboard: loaded %s, %d rows in %v", p.city, len(snap.Rows), time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// load returns the HTTP status the forecast arrived with alongside the
// snapshot, or zero when the source did not report one.
func (p *Pipeline) load(ctx context.Context) (snap *Snapshot, status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = &ingest.UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	resp, err := p.src.FetchForecast(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := ingest.Normalize(resp.List)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	metrics.RowsNormalized.WithLabelValues(p.city).Add(float64(len(rows)))

	snap, err = Build(p.city, rows)
	return snap, resp.StatusCode, err
}

// Build aggregates normalized rows. An empty table is an
// InsufficientDataError; an uncomputable correlation is reported in the
// snapshot rather than failing the build.
func Build(city string, rows []models.ForecastRow) (*Snapshot, error) {
	if len(rows) == 0 {
		return nil, &stats.InsufficientDataError{Op: "dashboard", Need: 1, Have: 0}
	}

	mean, err := stats.MeanTempF(rows)
	if err != nil {
		return nil, err
	}
	summary, err := stats.Summarize(rows)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		City:         city,
		FetchedAt:    time.Now().UTC(),
		Rows:         rows,
		DailyTemp:    stats.DailyRanges(rows, stats.TempF),
		DailyWind:    stats.DailyRanges(rows, stats.WindSpeed),
		MeanTempF:    mean,
		Summary:      summary,
		QualityFlags: ingest.ValidateRows(rows),
	}

	corr, err := stats.Correlation(rows)
	var insufficient *stats.InsufficientDataError
	switch {
	case err == nil:
		snap.Correlation = corr
		snap.CorrelationOK = true
	case errors.As(err, &insufficient):
		snap.CorrelationNote = err.Error()
	default:
		return nil, err
	}

	if len(snap.QualityFlags) > 0 {
		log.Printf("dashboard: %s quality flags: %v", city, snap.QualityFlags)
	}
	return snap, nil
}

const KindInsufficientData = "insufficient_data"

// FailureKind maps err onto the closed failure taxonomy. Errors outside it
// count as unexpected.
func FailureKind(err error) string {
	if err == nil {
		return ""
	}
	if kind := ingest.ErrorKind(err); kind != "" {
		return kind
	}
	var insufficient *stats.InsufficientDataError
	if errors.As(err, &insufficient) {
		return KindInsufficientData
	}
	return ingest.KindUnexpected
}

// IsUpstream reports whether err came from the forecast service rather than
// from this process.
func IsUpstream(err error) bool {
	switch FailureKind(err) {
	case ingest.KindTransport, ingest.KindHTTPStatus, ingest.KindMalformed:
		return true
	}
	return false
}

func (p *Pipeline) startRun() *models.Run {
	if p.recorder == nil {
		return nil
	}
	run, err := p.recorder.StartRun(p.city)
	if err != nil {
		log.Printf("dashboard: start run: %v", err)
		return nil
	}
	return run
}

func (p *Pipeline) completeRun(run *models.Run, snap *Snapshot, code int, err error) {
	if run == nil {
		return
	}

	if code > 0 {
		run.HTTPStatus = sql.NullInt64{Int64: int64(code), Valid: true}
	}

	var status *ingest.HTTPStatusError
	switch {
	case err == nil:
		run.Success = true
		run.RowsParsed = sql.NullInt64{Int64: int64(len(snap.Rows)), Valid: true}
		if flags := ingest.QualityFlagsToJSON(snap.QualityFlags); flags != "" {
			run.QualityFlags = sql.NullString{String: flags, Valid: true}
		}
	case errors.As(err, &status):
		run.HTTPStatus = sql.NullInt64{Int64: int64(status.StatusCode), Valid: true}
	}
	if err != nil {
		run.FailureKind = sql.NullString{String: FailureKind(err), Valid: true}
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}

	if err := p.recorder.CompleteRun(run); err != nil {
		log.Printf("dashboard: complete run %d: %v", run.ID, err)
	}
}
