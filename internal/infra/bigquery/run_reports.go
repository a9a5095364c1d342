package bigquery

import "cloud.google.com/go/bigquery"

// Report types stored in budget.run_reports.
const (
	ReportTypeDiagnostics = "DIAGNOSTICS"
	ReportTypeCoverage    = "COVERAGE"
)

type RunReportRow struct {
	ReportID   string `bigquery:"report_id"`    // REQUIRED
	ParseRunID string `bigquery:"parse_run_id"` // REQUIRED
	DocumentID string `bigquery:"document_id"`  // REQUIRED

	ReportType string `bigquery:"report_type"` // REQUIRED

	Payload     bigquery.NullJSON   `bigquery:"payload"`      // REQUIRED (JSON)
	MissedLines bigquery.NullString `bigquery:"missed_lines"` // NULLABLE

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
	Notes     bigquery.NullString    `bigquery:"notes"`      // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}
