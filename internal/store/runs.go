package store

import (
	"database/sql"
	"time"

	"github.com/lox/forecastdash/internal/models"
)

// StartRun inserts an in-progress run for city and returns it.
func (s *Store) StartRun(city string) (*models.Run, error) {
	run := &models.Run{
		StartedAt: time.Now().UTC(),
		City:      city,
	}

	result, err := s.db.Exec(`
		INSERT INTO forecast_runs (started_at, city, success)
		VALUES (?, ?, FALSE)
	`, run.StartedAt, run.City)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteRun stamps FinishedAt and writes the run's outcome.
func (s *Store) CompleteRun(run *models.Run) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE forecast_runs SET
			finished_at = ?,
			http_status = ?,
			rows_parsed = ?,
			success = ?,
			failure_kind = ?,
			error_message = ?,
			quality_flags = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.RowsParsed, run.Success,
		run.FailureKind, run.ErrorMessage, run.QualityFlags, run.ID)
	return err
}

const runColumns = `id, started_at, finished_at, city, http_status, rows_parsed,
	success, failure_kind, error_message, quality_flags`

func scanRun(rows *sql.Rows) (models.Run, error) {
	var r models.Run
	err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.City, &r.HTTPStatus,
		&r.RowsParsed, &r.Success, &r.FailureKind, &r.ErrorMessage, &r.QualityFlags)
	return r, err
}

// RecentRuns returns the newest runs first.
func (s *Store) RecentRuns(limit int) ([]models.Run, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM forecast_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RecentFailures returns failed runs, newest first.
func (s *Store) RecentFailures(limit int) ([]models.Run, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM forecast_runs
		WHERE success = FALSE AND finished_at IS NOT NULL
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunHealthSummary is one day of run outcomes for a city.
type RunHealthSummary struct {
	Date        string `json:"date"`
	City        string `json:"city"`
	TotalRuns   int    `json:"total_runs"`
	SuccessRuns int    `json:"success_runs"`
	FailedRuns  int    `json:"failed_runs"`
	TotalRows   int64  `json:"total_rows"`
}

// RunHealth summarises finished runs per day over the last days days.
func (s *Store) RunHealth(days int) ([]RunHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			city,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			COALESCE(SUM(rows_parsed), 0) as total_rows
		FROM forecast_runs
		WHERE finished_at IS NOT NULL
			AND SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date, city
		ORDER BY date DESC, city
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunHealthSummary
	for rows.Next() {
		var h RunHealthSummary
		if err := rows.Scan(&h.Date, &h.City, &h.TotalRuns, &h.SuccessRuns, &h.FailedRuns, &h.TotalRows); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// LastSuccess returns the most recent successful run for city, or nil.
func (s *Store) LastSuccess(city string) (*models.Run, error) {
	rows, err := s.db.Query(`
		SELECT `+runColumns+`
		FROM forecast_runs
		WHERE city = ? AND success = TRUE
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
