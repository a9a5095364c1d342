package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bigquerylib "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/export"
	"github.com/dkagawa/budgetline/internal/gcsuploader"
	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/dkagawa/budgetline/internal/parser"
)

// ProcessRequest names the inputs of one document processing run.
type ProcessRequest struct {
	// DocumentID is a pre-registered document to process. When empty, a
	// new document row is created from GCSURI.
	DocumentID string

	// GCSURI locates the bill text, e.g. "gs://budgetline-prod-documents/hb300_cd1.txt".
	GCSURI string

	// VetoGCSURI optionally locates a veto override CSV. When set, the
	// run stores a POST_VETO collection alongside the PRE_VETO one.
	VetoGCSURI string

	// OneTimeGCSURI optionally locates a one-time appropriations CSV
	// whose records are merged in before validation.
	OneTimeGCSURI string

	// ArtifactBucket receives exported CSV/JSON artifacts for the run.
	// Empty skips the export stage.
	ArtifactBucket string

	Options Options
}

// ProcessBudgetFromGCS processes a budget document from GCS end-to-end:
// registers the document, parses and validates the text, applies veto
// overrides, and stores allocation snapshots plus run reports in BigQuery.
//
// This is the production entry point. It creates real BigQuery and GCS
// dependencies and delegates to ProcessBudgetFromGCSWithDeps.
func ProcessBudgetFromGCS(ctx context.Context, req ProcessRequest) (*RunSummary, error) {
	repo, err := infra.NewBigQueryBudgetRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("ProcessBudgetFromGCS: creating BigQuery repository: %w", err)
	}
	defer repo.Close()

	storage := gcsuploader.NewGCSStorageService()

	return ProcessBudgetFromGCSWithDeps(ctx, req, repo, storage)
}

// ProcessBudgetFromGCSWithDeps is the dependency-injected core of the
// processing flow. Tests pass mock implementations of BudgetStore and
// StorageService.
func ProcessBudgetFromGCSWithDeps(ctx context.Context, req ProcessRequest, repo BudgetStore, storage StorageService) (*RunSummary, error) {
	log := logger.FromContext(ctx)
	opts := req.Options.withDefaults()

	// 1. Ensure a document row exists for this file.
	documentID := req.DocumentID
	if documentID == "" {
		var err error
		documentID, err = registerDocument(ctx, repo, storage, req.GCSURI)
		if err != nil {
			return nil, fmt.Errorf("ProcessBudgetFromGCSWithDeps: %w", err)
		}
		log.Info().Str("document_id", documentID).Str("gcs_uri", req.GCSURI).Msg("Registered document")
	}

	// 2. Start a parse run so every downstream row is attributable.
	parseRunID, err := repo.StartParseRun(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("ProcessBudgetFromGCSWithDeps: starting parse run: %w", err)
	}
	log.Info().Str("parse_run_id", parseRunID).Msg("Started parse run")

	// 3. Fetch the bill text and any override CSVs from GCS.
	raw, err := storage.FetchFromGCS(ctx, req.GCSURI)
	if err != nil {
		err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: fetching document: %w", err)
		markRunFailed(ctx, repo, parseRunID, documentID, err)
		return nil, err
	}

	var vetoCSV []byte
	if req.VetoGCSURI != "" {
		vetoCSV, err = storage.FetchFromGCS(ctx, req.VetoGCSURI)
		if err != nil {
			err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: fetching veto CSV: %w", err)
			markRunFailed(ctx, repo, parseRunID, documentID, err)
			return nil, err
		}
	}

	var oneTimeCSV []byte
	if req.OneTimeGCSURI != "" {
		oneTimeCSV, err = storage.FetchFromGCS(ctx, req.OneTimeGCSURI)
		if err != nil {
			err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: fetching one-time CSV: %w", err)
			markRunFailed(ctx, repo, parseRunID, documentID, err)
			return nil, err
		}
	}

	// 4. Parse, dedupe, validate, and apply vetoes.
	cols, err := TransformDocument(raw, vetoCSV, oneTimeCSV, opts)
	if err != nil {
		err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: %w", err)
		markRunFailed(ctx, repo, parseRunID, documentID, err)
		return nil, err
	}
	log.Info().
		Int("records", len(cols.PreVeto)).
		Int("diagnostics", len(cols.Diagnostics)).
		Float64("coverage_pct", cols.Coverage.Ratio()).
		Msg("Parsed document")

	// 5. A collection that fails validation never reaches the tables.
	if !cols.Valid {
		err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: collection failed validation with %d problems (first: %s)",
			len(cols.Problems), cols.Problems[0])
		markRunFailed(ctx, repo, parseRunID, documentID, err)
		return nil, err
	}

	// 6. Aggregate the working collection for the run summary.
	working := cols.Working()
	summary, err := analysis.BuildSummary(working, opts.Biennium.FirstYear, opts.TopPrograms)
	if err != nil {
		err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: building summary: %w", err)
		markRunFailed(ctx, repo, parseRunID, documentID, err)
		return nil, err
	}

	// 7. Persist one allocation snapshot per collection.
	for _, snap := range cols.Snapshots() {
		rows := infra.RowsFromAllocations(snap.Records, documentID, parseRunID, snap.Collection)
		if err := repo.InsertAllocations(ctx, rows); err != nil {
			err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: inserting %s allocations: %w", snap.Collection, err)
			markRunFailed(ctx, repo, parseRunID, documentID, err)
			return nil, err
		}
		log.Info().Str("collection", snap.Collection).Int("rows", len(rows)).Msg("Inserted allocation snapshot")
	}

	// 8. Store diagnostics and coverage reports for the run.
	for _, row := range buildRunReportRows(parseRunID, documentID, cols) {
		if err := repo.InsertRunReport(ctx, row); err != nil {
			err = fmt.Errorf("ProcessBudgetFromGCSWithDeps: inserting %s report: %w", row.ReportType, err)
			markRunFailed(ctx, repo, parseRunID, documentID, err)
			return nil, err
		}
	}

	// 9. Export artifacts to GCS. Failures here are logged but do not
	// fail the run, since the tables already hold the data.
	var artifactURIs []string
	if req.ArtifactBucket != "" {
		artifactURIs = exportArtifacts(ctx, storage, req.ArtifactBucket, parseRunID, cols, summary, log)
	}

	// 10. Close out the run and supersede earlier runs of this document.
	warnings := len(parser.Warnings(cols.Diagnostics))
	if err := repo.CompleteParseRun(ctx, parseRunID, len(cols.PreVeto), warnings, cols.Coverage.Ratio()); err != nil {
		return nil, fmt.Errorf("ProcessBudgetFromGCSWithDeps: completing parse run: %w", err)
	}
	if err := repo.MarkParseRunsAsSuperseded(ctx, documentID, parseRunID); err != nil {
		return nil, fmt.Errorf("ProcessBudgetFromGCSWithDeps: superseding prior runs: %w", err)
	}
	if err := repo.UpdateDocumentParseStatus(ctx, documentID, infra.StatusSuccess); err != nil {
		return nil, fmt.Errorf("ProcessBudgetFromGCSWithDeps: updating document status: %w", err)
	}

	log.Info().
		Str("document_id", documentID).
		Str("parse_run_id", parseRunID).
		Int("records", len(cols.PreVeto)).
		Int("vetoes_applied", cols.VetoesApplied).
		Msg("Processing complete")

	return &RunSummary{
		DocumentID:    documentID,
		ParseRunID:    parseRunID,
		Records:       len(cols.PreVeto),
		Warnings:      warnings,
		CoveragePct:   cols.Coverage.Ratio(),
		VetoesApplied: cols.VetoesApplied,
		Artifacts:     artifactURIs,
		Summary:       summary,
	}, nil
}

// markRunFailed records a failure on the parse run and flips the document
// to FAILED. Both writes are best-effort; the original error is what the
// caller returns.
func markRunFailed(ctx context.Context, repo BudgetStore, parseRunID, documentID string, cause error) {
	repo.MarkParseRunFailed(ctx, parseRunID, cause)
	if err := repo.UpdateDocumentParseStatus(ctx, documentID, infra.StatusFailed); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("document_id", documentID).
			Msg("Failed to update document status after run failure")
	}
}

// buildRunReportRows renders the diagnostics and coverage reports for a
// finished transform into run_reports rows.
func buildRunReportRows(parseRunID, documentID string, cols *Collections) []*infra.RunReportRow {
	now := time.Now()

	unmatched := make([]string, 0, len(cols.VetoUnmatched))
	for _, c := range cols.VetoUnmatched {
		unmatched = append(unmatched, c.Key())
	}

	// NullJSON carries the payload as a JSON-encoded string. These values
	// are plain data (structs, slices, strings), so Marshal cannot fail.
	diagPayload, _ := json.Marshal(map[string]interface{}{
		"diagnostics": cols.Diagnostics,
		"validation": map[string]interface{}{
			"valid":    cols.Valid,
			"problems": cols.Problems,
		},
		"veto": map[string]interface{}{
			"applied":   cols.VetoesApplied,
			"unmatched": unmatched,
		},
	})

	diagRow := &infra.RunReportRow{
		ReportID:   uuid.NewString(),
		ParseRunID: parseRunID,
		DocumentID: documentID,
		ReportType: infra.ReportTypeDiagnostics,
		Payload:    bigquerylib.NullJSON{JSONVal: string(diagPayload), Valid: true},
		CreatedTS:  bigquerylib.NullTimestamp{Timestamp: now, Valid: true},
	}

	covPayload, _ := json.Marshal(cols.Coverage)
	covRow := &infra.RunReportRow{
		ReportID:   uuid.NewString(),
		ParseRunID: parseRunID,
		DocumentID: documentID,
		ReportType: infra.ReportTypeCoverage,
		Payload:    bigquerylib.NullJSON{JSONVal: string(covPayload), Valid: true},
		CreatedTS:  bigquerylib.NullTimestamp{Timestamp: now, Valid: true},
		Notes: bigquerylib.NullString{
			StringVal: fmt.Sprintf("%.1f%% of %d monetary lines covered", cols.Coverage.Ratio(), cols.Coverage.MonetaryLines),
			Valid:     true,
		},
	}
	if len(cols.Coverage.Missed) > 0 {
		lines := make([]string, 0, len(cols.Coverage.Missed))
		for _, m := range cols.Coverage.Missed {
			lines = append(lines, fmt.Sprintf("line %d: %s", m.Number, m.Text))
		}
		covRow.MissedLines = bigquerylib.NullString{StringVal: strings.Join(lines, "\n"), Valid: true}
	}

	return []*infra.RunReportRow{diagRow, covRow}
}

// artifact is one exported file ready for upload.
type artifact struct {
	name        string
	contentType string
	data        []byte
}

// renderArtifacts serializes the run's collections and summary into the
// files exported alongside every successful run.
func renderArtifacts(cols *Collections, summary analysis.Summary) ([]artifact, error) {
	var artifacts []artifact

	var preCSV bytes.Buffer
	if err := export.WriteCSV(&preCSV, cols.PreVeto); err != nil {
		return nil, fmt.Errorf("renderArtifacts: %w", err)
	}
	artifacts = append(artifacts, artifact{"allocations_pre_veto.csv", "text/csv", preCSV.Bytes()})

	var preJSON bytes.Buffer
	if err := export.WriteJSON(&preJSON, cols.PreVeto); err != nil {
		return nil, fmt.Errorf("renderArtifacts: %w", err)
	}
	artifacts = append(artifacts, artifact{"allocations_pre_veto.json", "application/json", preJSON.Bytes()})

	if cols.PostVeto != nil {
		var postCSV bytes.Buffer
		if err := export.WriteCSV(&postCSV, cols.PostVeto); err != nil {
			return nil, fmt.Errorf("renderArtifacts: %w", err)
		}
		artifacts = append(artifacts, artifact{"allocations_post_veto.csv", "text/csv", postCSV.Bytes()})
	}

	var summaryJSON bytes.Buffer
	if err := export.WriteSummary(&summaryJSON, summary); err != nil {
		return nil, fmt.Errorf("renderArtifacts: %w", err)
	}
	artifacts = append(artifacts, artifact{"summary.json", "application/json", summaryJSON.Bytes()})

	return artifacts, nil
}

// exportArtifacts uploads the run's export files under the bucket's
// artifacts/<parseRunID>/ prefix and returns the URIs that made it.
func exportArtifacts(ctx context.Context, storage StorageService, bucket, parseRunID string, cols *Collections, summary analysis.Summary, log zerolog.Logger) []string {
	artifacts, err := renderArtifacts(cols, summary)
	if err != nil {
		log.Warn().Err(err).Msg("Skipping artifact export")
		return nil
	}

	var uris []string
	for _, a := range artifacts {
		objectName := gcsuploader.ArtifactObjectName(parseRunID, a.name)
		if err := storage.UploadBytes(ctx, bucket, objectName, a.contentType, a.data); err != nil {
			log.Warn().Err(err).Str("artifact", a.name).Msg("Artifact upload failed")
			continue
		}
		uris = append(uris, fmt.Sprintf("gs://%s/%s", bucket, objectName))
	}
	return uris
}
