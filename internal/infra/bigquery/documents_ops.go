package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

const documentsTable = "documents"

// InsertDocument inserts a single DocumentRow into budget.documents.
func InsertDocument(ctx context.Context, row *DocumentRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertDocument: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertDocumentWithClient(ctx, client, row)
}

// InsertDocumentWithClient inserts a single DocumentRow into budget.documents
// using the provided BigQuery client.
func InsertDocumentWithClient(ctx context.Context, client *bigquery.Client, row *DocumentRow) error {
	inserter := client.Dataset(datasetID).Table(documentsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}

	return nil
}

// UpdateDocumentParseStatus sets parse_status and processed_ts on one document.
func UpdateDocumentParseStatus(ctx context.Context, documentID, parseStatus string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("UpdateDocumentParseStatus: bigquery client: %w", err)
	}
	defer client.Close()

	return UpdateDocumentParseStatusWithClient(ctx, client, documentID, parseStatus)
}

// UpdateDocumentParseStatusWithClient sets parse_status and processed_ts on one
// document using the provided BigQuery client.
func UpdateDocumentParseStatusWithClient(ctx context.Context, client *bigquery.Client, documentID, parseStatus string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET parse_status = @parse_status,
		    processed_ts = @processed_ts
		WHERE document_id = @document_id
	`, datasetID, documentsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "parse_status", Value: parseStatus},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "document_id", Value: documentID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateDocumentParseStatus: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateDocumentParseStatus: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateDocumentParseStatus: job error: %w", err)
	}

	return nil
}
