package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Parse run lifecycle statuses.
const (
	StatusRunning    = "RUNNING"
	StatusSuccess    = "SUCCESS"
	StatusFailed     = "FAILED"
	StatusSuperseded = "SUPERSEDED"
)

type ParseRunRow struct {
	ParseRunID string `bigquery:"parse_run_id"` // REQUIRED
	DocumentID string `bigquery:"document_id"`  // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	ParserType    string `bigquery:"parser_type"`    // NULLABLE
	ParserVersion string `bigquery:"parser_version"` // NULLABLE

	Status       string `bigquery:"status"`        // NULLABLE
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	RecordsParsed bigquery.NullInt64   `bigquery:"records_parsed"` // NULLABLE
	WarningsCount bigquery.NullInt64   `bigquery:"warnings_count"` // NULLABLE
	CoveragePct   bigquery.NullFloat64 `bigquery:"coverage_pct"`   // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}
