package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	projectID      = "budgetline-prod"
	datasetID      = "budget"
	parseRunsTable = "parse_runs"
)

// StartParseRun inserts a new row into budget.parse_runs with status=RUNNING
// and returns the generated parse_run_id.
func StartParseRun(ctx context.Context, documentID string) (string, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("StartParseRun: bigquery client: %w", err)
	}
	defer client.Close()

	return StartParseRunWithClient(ctx, client, documentID)
}

// StartParseRunWithClient inserts a new row into budget.parse_runs with status=RUNNING
// and returns the generated parse_run_id using the provided BigQuery client.
func StartParseRunWithClient(ctx context.Context, client *bigquery.Client, documentID string) (string, error) {
	parseRunID := uuid.NewString()
	started := time.Now()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			parse_run_id,
			document_id,
			started_ts,
			parser_type,
			parser_version,
			status
		)
		VALUES (
			@parse_run_id,
			@document_id,
			@started_ts,
			@parser_type,
			@parser_version,
			@status
		)
	`, datasetID, parseRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "parse_run_id", Value: parseRunID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: started},
		{Name: "parser_type", Value: "PATTERN_MATCHER"},
		{Name: "parser_version", Value: "v1"},
		{Name: "status", Value: StatusRunning},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartParseRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartParseRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartParseRun: job error: %w", err)
	}

	return parseRunID, nil
}

// MarkParseRunFailed sets status=FAILED, finished_ts and error_message.
func MarkParseRunFailed(ctx context.Context, parseRunID string, parseErr error) {
	log := logger.FromContext(ctx)

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Error().
			Err(err).
			Str("parse_run_id", parseRunID).
			Msg("MarkParseRunFailed: bigquery client error")
		return
	}
	defer client.Close()

	MarkParseRunFailedWithClient(ctx, client, parseRunID, parseErr)
}

// MarkParseRunFailedWithClient sets status=FAILED, finished_ts and error_message
// using the provided BigQuery client.
func MarkParseRunFailedWithClient(ctx context.Context, client *bigquery.Client, parseRunID string, parseErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if parseErr != nil {
		errMsg = parseErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE parse_run_id = @parse_run_id
	`, datasetID, parseRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusFailed},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "parse_run_id", Value: parseRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("parse_run_id", parseRunID).
			Msg("MarkParseRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("parse_run_id", parseRunID).
			Msg("MarkParseRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("parse_run_id", parseRunID).
			Msg("MarkParseRunFailed: job completed with error")
	}
}

// CompleteParseRun sets status=SUCCESS, finished_ts and the run counters,
// clears error_message.
func CompleteParseRun(ctx context.Context, parseRunID string, records, warnings int, coveragePct float64) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("CompleteParseRun: bigquery client: %w", err)
	}
	defer client.Close()

	return CompleteParseRunWithClient(ctx, client, parseRunID, records, warnings, coveragePct)
}

// CompleteParseRunWithClient sets status=SUCCESS, finished_ts and the run
// counters, clears error_message, using the provided BigQuery client.
func CompleteParseRunWithClient(ctx context.Context, client *bigquery.Client, parseRunID string, records, warnings int, coveragePct float64) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    records_parsed = @records_parsed,
		    warnings_count = @warnings_count,
		    coverage_pct = @coverage_pct,
		    error_message = ""
		WHERE parse_run_id = @parse_run_id
	`, datasetID, parseRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: StatusSuccess},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "records_parsed", Value: records},
		{Name: "warnings_count", Value: warnings},
		{Name: "coverage_pct", Value: coveragePct},
		{Name: "parse_run_id", Value: parseRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("CompleteParseRun: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("CompleteParseRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("CompleteParseRun: job error: %w", err)
	}

	return nil
}

// GetParseRun retrieves one parse run by id.
// Returns nil if no run with the given id exists.
func GetParseRun(ctx context.Context, parseRunID string) (*ParseRunRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("GetParseRun: bigquery client: %w", err)
	}
	defer client.Close()

	return GetParseRunWithClient(ctx, client, parseRunID)
}

// GetParseRunWithClient retrieves one parse run by id using the provided
// BigQuery client.
func GetParseRunWithClient(ctx context.Context, client *bigquery.Client, parseRunID string) (*ParseRunRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			parse_run_id,
			document_id,
			started_ts,
			finished_ts,
			parser_type,
			parser_version,
			status,
			error_message,
			records_parsed,
			warnings_count,
			coverage_pct,
			metadata
		FROM %s.%s
		WHERE parse_run_id = @parse_run_id
		LIMIT 1
	`, datasetID, parseRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "parse_run_id", Value: parseRunID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetParseRun: query read: %w", err)
	}

	var row ParseRunRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetParseRun: reading row: %w", err)
	}

	return &row, nil
}

// MarkParseRunsAsSuperseded flips every earlier SUCCESS run of a document to
// SUPERSEDED so only the newest success feeds queries.
func MarkParseRunsAsSuperseded(ctx context.Context, documentID, keepParseRunID string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("MarkParseRunsAsSuperseded: bigquery client: %w", err)
	}
	defer client.Close()

	return MarkParseRunsAsSupersededWithClient(ctx, client, documentID, keepParseRunID)
}

// MarkParseRunsAsSupersededWithClient flips every earlier SUCCESS run of a
// document to SUPERSEDED using the provided BigQuery client.
func MarkParseRunsAsSupersededWithClient(ctx context.Context, client *bigquery.Client, documentID, keepParseRunID string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @superseded,
		    finished_ts = IFNULL(finished_ts, @finished_ts)
		WHERE document_id = @document_id
		  AND parse_run_id != @keep_parse_run_id
		  AND status = @success
	`, datasetID, parseRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "superseded", Value: StatusSuperseded},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "document_id", Value: documentID},
		{Name: "keep_parse_run_id", Value: keepParseRunID},
		{Name: "success", Value: StatusSuccess},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkParseRunsAsSuperseded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkParseRunsAsSuperseded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkParseRunsAsSuperseded: job error: %w", err)
	}

	return nil
}
