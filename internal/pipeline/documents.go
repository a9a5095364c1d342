package pipeline

import (
	"context"
	"fmt"
	"time"

	bigquerylib "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dkagawa/budgetline/internal/domain"
	"github.com/dkagawa/budgetline/internal/gcsuploader"
	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
)

// createDocument inserts a row into the documents table for this file.
func createDocument(ctx context.Context, gcsURI string) (string, error) {
	// Generate a UUID for this document
	documentID := uuid.NewString()

	// Extract filename from GCS URI
	// e.g. "gs://bucket/folder/hb300-cd1.txt" → "hb300-cd1.txt"
	filename := gcsuploader.ExtractFilenameFromGCSURI(gcsURI)

	row := newDocumentRow(documentID, gcsURI, filename)

	if err := infra.InsertDocument(ctx, row); err != nil {
		return "", fmt.Errorf("createDocument: inserting row: %w", err)
	}

	return documentID, nil
}

// registerDocument is the dependency-injected variant of createDocument,
// used by the orchestration entry points so tests can run without real
// BigQuery and GCS clients.
func registerDocument(ctx context.Context, repo BudgetStore, storage StorageService, gcsURI string) (string, error) {
	documentID := uuid.NewString()
	filename := storage.ExtractFilenameFromGCSURI(gcsURI)

	row := newDocumentRow(documentID, gcsURI, filename)

	if err := repo.InsertDocument(ctx, row); err != nil {
		return "", fmt.Errorf("registerDocument: inserting row: %w", err)
	}

	return documentID, nil
}

// newDocumentRow builds the documents row for a text document processed
// straight from GCS. The snapshot date defaults to today; documents
// registered through the upload API carry the caller-supplied date
// instead.
func newDocumentRow(documentID, gcsURI, filename string) *infra.DocumentRow {
	biennium := domain.DefaultBiennium

	return &infra.DocumentRow{
		DocumentID:         documentID,
		GCSURI:             gcsURI,
		DocumentType:       DefaultDocumentType,
		SourceSystem:       DefaultSourceSystem,
		BienniumFirstYear:  int64(biennium.FirstYear),
		BienniumSecondYear: int64(biennium.SecondYear),
		SnapshotDate:       civil.DateOf(time.Now()),
		UploadTS:           time.Now(),
		ParseStatus:        "PENDING",
		OriginalFilename:   filename,
		FileMimeType:       "text/plain",
		TextGCSURI:         gcsURI,
		Metadata:           bigquerylib.NullJSON{Valid: false}, // NULL for now
	}
}
