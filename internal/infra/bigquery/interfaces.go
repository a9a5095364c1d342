package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// BudgetRepository is the persistence surface the pipeline, jobs and API
// depend on. *BigQueryBudgetRepository is the production implementation.
type BudgetRepository interface {
	InsertDocument(ctx context.Context, row *DocumentRow) error
	UpdateDocumentParseStatus(ctx context.Context, documentID, parseStatus string) error
	ListAllDocuments(ctx context.Context) ([]*DocumentRow, error)
	FindDocumentByChecksum(ctx context.Context, checksum string) (*DocumentRow, error)
	FindLatestDocumentByType(ctx context.Context, documentType string) (*DocumentRow, error)

	StartParseRun(ctx context.Context, documentID string) (string, error)
	GetParseRun(ctx context.Context, parseRunID string) (*ParseRunRow, error)
	CompleteParseRun(ctx context.Context, parseRunID string, records, warnings int, coveragePct float64) error
	MarkParseRunFailed(ctx context.Context, parseRunID string, parseErr error)
	MarkParseRunsAsSuperseded(ctx context.Context, documentID, keepParseRunID string) error

	InsertAllocations(ctx context.Context, rows []*AllocationRow) error
	QueryAllocationsByRun(ctx context.Context, parseRunID string) ([]*AllocationRow, error)
	QueryAllocationsByFiscalYear(ctx context.Context, fiscalYear int, collection string) ([]*AllocationRow, error)
	QueryDepartmentTotals(ctx context.Context, fiscalYear int, collection string) ([]*DepartmentTotal, error)

	InsertRunReport(ctx context.Context, row *RunReportRow) error
	QueryRunReportsByRun(ctx context.Context, parseRunID string) ([]*RunReportRow, error)
}

// BigQueryBudgetRepository is the concrete implementation of BudgetRepository
// that interacts with BigQuery. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQueryBudgetRepository struct {
	client *bigquery.Client
}

// NewBigQueryBudgetRepository creates a new instance of BigQueryBudgetRepository
// with a shared BigQuery client.
func NewBigQueryBudgetRepository(ctx context.Context) (*BigQueryBudgetRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryBudgetRepository: creating client: %w", err)
	}
	return &BigQueryBudgetRepository{
		client: client,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryBudgetRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertDocument delegates to the existing InsertDocument function with the shared client.
func (r *BigQueryBudgetRepository) InsertDocument(ctx context.Context, row *DocumentRow) error {
	return InsertDocumentWithClient(ctx, r.client, row)
}

// UpdateDocumentParseStatus delegates to the existing UpdateDocumentParseStatus function with the shared client.
func (r *BigQueryBudgetRepository) UpdateDocumentParseStatus(ctx context.Context, documentID, parseStatus string) error {
	return UpdateDocumentParseStatusWithClient(ctx, r.client, documentID, parseStatus)
}

// ListAllDocuments delegates to the existing ListAllDocuments function with the shared client.
func (r *BigQueryBudgetRepository) ListAllDocuments(ctx context.Context) ([]*DocumentRow, error) {
	return ListAllDocumentsWithClient(ctx, r.client)
}

// FindDocumentByChecksum delegates to the existing FindDocumentByChecksum function with the shared client.
func (r *BigQueryBudgetRepository) FindDocumentByChecksum(ctx context.Context, checksum string) (*DocumentRow, error) {
	return FindDocumentByChecksumWithClient(ctx, r.client, checksum)
}

// FindLatestDocumentByType delegates to the existing FindLatestDocumentByType function with the shared client.
func (r *BigQueryBudgetRepository) FindLatestDocumentByType(ctx context.Context, documentType string) (*DocumentRow, error) {
	return FindLatestDocumentByTypeWithClient(ctx, r.client, documentType)
}

// StartParseRun delegates to the existing StartParseRun function with the shared client.
func (r *BigQueryBudgetRepository) StartParseRun(ctx context.Context, documentID string) (string, error) {
	return StartParseRunWithClient(ctx, r.client, documentID)
}

// GetParseRun delegates to the existing GetParseRun function with the shared client.
func (r *BigQueryBudgetRepository) GetParseRun(ctx context.Context, parseRunID string) (*ParseRunRow, error) {
	return GetParseRunWithClient(ctx, r.client, parseRunID)
}

// CompleteParseRun delegates to the existing CompleteParseRun function with the shared client.
func (r *BigQueryBudgetRepository) CompleteParseRun(ctx context.Context, parseRunID string, records, warnings int, coveragePct float64) error {
	return CompleteParseRunWithClient(ctx, r.client, parseRunID, records, warnings, coveragePct)
}

// MarkParseRunFailed delegates to the existing MarkParseRunFailed function with the shared client.
func (r *BigQueryBudgetRepository) MarkParseRunFailed(ctx context.Context, parseRunID string, parseErr error) {
	MarkParseRunFailedWithClient(ctx, r.client, parseRunID, parseErr)
}

// MarkParseRunsAsSuperseded delegates to the existing MarkParseRunsAsSuperseded function with the shared client.
func (r *BigQueryBudgetRepository) MarkParseRunsAsSuperseded(ctx context.Context, documentID, keepParseRunID string) error {
	return MarkParseRunsAsSupersededWithClient(ctx, r.client, documentID, keepParseRunID)
}

// InsertAllocations delegates to the existing InsertAllocations function with the shared client.
func (r *BigQueryBudgetRepository) InsertAllocations(ctx context.Context, rows []*AllocationRow) error {
	return InsertAllocationsWithClient(ctx, r.client, rows)
}

// QueryAllocationsByRun delegates to the existing QueryAllocationsByRun function with the shared client.
func (r *BigQueryBudgetRepository) QueryAllocationsByRun(ctx context.Context, parseRunID string) ([]*AllocationRow, error) {
	return QueryAllocationsByRunWithClient(ctx, r.client, parseRunID)
}

// QueryAllocationsByFiscalYear delegates to the existing QueryAllocationsByFiscalYear function with the shared client.
func (r *BigQueryBudgetRepository) QueryAllocationsByFiscalYear(ctx context.Context, fiscalYear int, collection string) ([]*AllocationRow, error) {
	return QueryAllocationsByFiscalYearWithClient(ctx, r.client, fiscalYear, collection)
}

// QueryDepartmentTotals delegates to the existing QueryDepartmentTotals function with the shared client.
func (r *BigQueryBudgetRepository) QueryDepartmentTotals(ctx context.Context, fiscalYear int, collection string) ([]*DepartmentTotal, error) {
	return QueryDepartmentTotalsWithClient(ctx, r.client, fiscalYear, collection)
}

// InsertRunReport delegates to the existing InsertRunReport function with the shared client.
func (r *BigQueryBudgetRepository) InsertRunReport(ctx context.Context, row *RunReportRow) error {
	return InsertRunReportWithClient(ctx, r.client, row)
}

// QueryRunReportsByRun delegates to the existing QueryRunReportsByRun function with the shared client.
func (r *BigQueryBudgetRepository) QueryRunReportsByRun(ctx context.Context, parseRunID string) ([]*RunReportRow, error) {
	return QueryRunReportsByRunWithClient(ctx, r.client, parseRunID)
}
