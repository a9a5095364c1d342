package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const runReportsTable = "run_reports"

// InsertRunReport inserts a single RunReportRow into budget.run_reports.
func InsertRunReport(ctx context.Context, row *RunReportRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertRunReport: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertRunReportWithClient(ctx, client, row)
}

// InsertRunReportWithClient inserts a single RunReportRow into budget.run_reports
// using the provided BigQuery client. Uses DML INSERT to avoid streaming buffer issues.
func InsertRunReportWithClient(ctx context.Context, client *bigquery.Client, row *RunReportRow) error {
	q := client.Query(`
		INSERT INTO ` + "`" + projectID + "." + datasetID + ".run_reports" + "`" + ` (
			report_id, parse_run_id, document_id,
			report_type, payload, missed_lines,
			created_ts, notes, metadata
		)
		VALUES (
			@report_id, @parse_run_id, @document_id,
			@report_type, @payload, @missed_lines,
			@created_ts, @notes, @metadata
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: row.ReportID},
		{Name: "parse_run_id", Value: row.ParseRunID},
		{Name: "document_id", Value: row.DocumentID},
		{Name: "report_type", Value: row.ReportType},
		{Name: "payload", Value: row.Payload},
		{Name: "missed_lines", Value: row.MissedLines},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "notes", Value: row.Notes},
		{Name: "metadata", Value: row.Metadata},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertRunReport: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertRunReport: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertRunReport: job error: %w", err)
	}

	return nil
}

// QueryRunReportsByRun returns every report row of one parse run.
func QueryRunReportsByRun(ctx context.Context, parseRunID string) ([]*RunReportRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryRunReportsByRun: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryRunReportsByRunWithClient(ctx, client, parseRunID)
}

// QueryRunReportsByRunWithClient returns every report row of one parse run
// using the provided BigQuery client.
func QueryRunReportsByRunWithClient(ctx context.Context, client *bigquery.Client, parseRunID string) ([]*RunReportRow, error) {
	q := client.Query(`
		SELECT
			report_id,
			parse_run_id,
			document_id,
			report_type,
			payload,
			missed_lines,
			created_ts,
			notes,
			metadata
		FROM budget.run_reports
		WHERE parse_run_id = @parse_run_id
		ORDER BY created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "parse_run_id", Value: parseRunID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryRunReportsByRun: query read: %w", err)
	}

	var rows []*RunReportRow
	for {
		var r RunReportRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryRunReportsByRun: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
