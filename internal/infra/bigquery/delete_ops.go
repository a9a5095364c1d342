package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteDocument deletes a document and all its related data (allocations, run reports, parse runs).
func DeleteDocument(ctx context.Context, documentID string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("DeleteDocument: bigquery client: %w", err)
	}
	defer client.Close()

	// Delete in order: allocations, run_reports, parse_runs, then document
	// This ensures foreign key constraints are respected

	// 1. Delete allocations
	if err := deleteAllocations(ctx, client, documentID); err != nil {
		return fmt.Errorf("deleting allocations: %w", err)
	}

	// 2. Delete run reports
	if err := deleteRunReports(ctx, client, documentID); err != nil {
		return fmt.Errorf("deleting run reports: %w", err)
	}

	// 3. Delete parse runs
	if err := deleteParseRuns(ctx, client, documentID); err != nil {
		return fmt.Errorf("deleting parse runs: %w", err)
	}

	// 4. Delete document
	if err := deleteDocumentRecord(ctx, client, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return nil
}

func deleteAllocations(ctx context.Context, client *bigquery.Client, documentID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + ".allocations" + "`" + `
		WHERE document_id = @document_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func deleteRunReports(ctx context.Context, client *bigquery.Client, documentID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + ".run_reports" + "`" + `
		WHERE document_id = @document_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func deleteParseRuns(ctx context.Context, client *bigquery.Client, documentID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + ".parse_runs" + "`" + `
		WHERE document_id = @document_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func deleteDocumentRecord(ctx context.Context, client *bigquery.Client, documentID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + ".documents" + "`" + `
		WHERE document_id = @document_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "document_id", Value: documentID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
