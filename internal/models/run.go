package models

import (
	"database/sql"
	"time"
)

// Run is the audit record of one fetch-and-render invocation.
type Run struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	City         string
	HTTPStatus   sql.NullInt64
	RowsParsed   sql.NullInt64
	Success      bool
	FailureKind  sql.NullString // "transport", "http_status", ...
	ErrorMessage sql.NullString
	QualityFlags sql.NullString // JSON array
}
