package pipeline

import (
	"context"

	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
)

// StorageService is an interface for storage operations.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	UploadBytes(ctx context.Context, bucketName, objectName, contentType string, data []byte) error
	ExtractFilenameFromGCSURI(uri string) string
}

// BudgetStore is the slice of the BigQuery repository the pipeline writes
// through. This interface enables mocking and testing of persistence.
// For full repository operations, see infra.BudgetRepository.
type BudgetStore interface {
	InsertDocument(ctx context.Context, row *infra.DocumentRow) error
	UpdateDocumentParseStatus(ctx context.Context, documentID, parseStatus string) error

	StartParseRun(ctx context.Context, documentID string) (string, error)
	CompleteParseRun(ctx context.Context, parseRunID string, records, warnings int, coveragePct float64) error
	MarkParseRunFailed(ctx context.Context, parseRunID string, parseErr error)
	MarkParseRunsAsSuperseded(ctx context.Context, documentID, keepParseRunID string) error

	InsertAllocations(ctx context.Context, rows []*infra.AllocationRow) error
	InsertRunReport(ctx context.Context, row *infra.RunReportRow) error
}

var _ BudgetStore = (*infra.BigQueryBudgetRepository)(nil)
