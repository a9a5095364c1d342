package pipeline

import (
	"context"
	"fmt"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/gcsuploader"
	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/dkagawa/budgetline/internal/parser"
)

// PipelineStep represents a single step in the processing pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Request      ProcessRequest
	DocumentID   string
	ParseRunID   string
	RawBytes     []byte
	VetoCSV      []byte
	OneTimeCSV   []byte
	Collections  *Collections
	Summary      analysis.Summary
	ArtifactURIs []string
}

// Step 1: CreateDocumentStep creates a document record for the file,
// unless the request names one that already exists.
type CreateDocumentStep struct{}

func (s *CreateDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Request.DocumentID != "" {
		state.DocumentID = state.Request.DocumentID
		return nil
	}
	documentID, err := createDocument(ctx, state.Request.GCSURI)
	if err != nil {
		return err
	}
	state.DocumentID = documentID
	return nil
}

// Step 2: StartParseRunStep starts a parse run (status=RUNNING).
type StartParseRunStep struct{}

func (s *StartParseRunStep) Execute(ctx context.Context, state *PipelineState) error {
	parseRunID, err := infra.StartParseRun(ctx, state.DocumentID)
	if err != nil {
		return err
	}
	state.ParseRunID = parseRunID
	return nil
}

// Step 3: FetchSourcesStep fetches the bill text and any override CSVs from GCS.
type FetchSourcesStep struct{}

func (s *FetchSourcesStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := gcsuploader.FetchFromGCS(ctx, state.Request.GCSURI)
	if err != nil {
		infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
		return err
	}
	state.RawBytes = raw

	if state.Request.VetoGCSURI != "" {
		vetoCSV, err := gcsuploader.FetchFromGCS(ctx, state.Request.VetoGCSURI)
		if err != nil {
			infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
			return err
		}
		state.VetoCSV = vetoCSV
	}

	if state.Request.OneTimeGCSURI != "" {
		oneTimeCSV, err := gcsuploader.FetchFromGCS(ctx, state.Request.OneTimeGCSURI)
		if err != nil {
			infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
			return err
		}
		state.OneTimeCSV = oneTimeCSV
	}
	return nil
}

// Step 4: TransformStep parses, dedupes, validates, and applies vetoes.
type TransformStep struct{}

func (s *TransformStep) Execute(ctx context.Context, state *PipelineState) error {
	cols, err := TransformDocument(state.RawBytes, state.VetoCSV, state.OneTimeCSV, state.Request.Options)
	if err != nil {
		infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
		return err
	}
	state.Collections = cols
	return nil
}

// Step 5: EnforceValidationStep stops runs whose collection failed validation.
type EnforceValidationStep struct{}

func (s *EnforceValidationStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Collections.Valid {
		return nil
	}
	err := fmt.Errorf("collection failed validation with %d problems (first: %s)",
		len(state.Collections.Problems), state.Collections.Problems[0])
	infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
	return err
}

// Step 6: BuildSummaryStep aggregates the working collection.
type BuildSummaryStep struct{}

func (s *BuildSummaryStep) Execute(ctx context.Context, state *PipelineState) error {
	opts := state.Request.Options.withDefaults()
	summary, err := analysis.BuildSummary(state.Collections.Working(), opts.Biennium.FirstYear, opts.TopPrograms)
	if err != nil {
		infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
		return err
	}
	state.Summary = summary
	return nil
}

// Step 7: InsertAllocationsStep inserts one snapshot per collection into
// the allocations table.
type InsertAllocationsStep struct{}

func (s *InsertAllocationsStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, snap := range state.Collections.Snapshots() {
		rows := infra.RowsFromAllocations(snap.Records, state.DocumentID, state.ParseRunID, snap.Collection)
		if err := infra.InsertAllocations(ctx, rows); err != nil {
			infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
			return err
		}
	}
	return nil
}

// Step 8: StoreRunReportsStep stores diagnostics and coverage reports in run_reports.
type StoreRunReportsStep struct{}

func (s *StoreRunReportsStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, row := range buildRunReportRows(state.ParseRunID, state.DocumentID, state.Collections) {
		if err := infra.InsertRunReport(ctx, row); err != nil {
			infra.MarkParseRunFailed(ctx, state.ParseRunID, err)
			return err
		}
	}
	return nil
}

// Step 9: ExportArtifactsStep uploads export files to the artifact bucket.
// Upload problems are logged, not returned, so a flaky bucket cannot fail
// a run whose tables are already written.
type ExportArtifactsStep struct{}

func (s *ExportArtifactsStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Request.ArtifactBucket == "" {
		return nil
	}
	state.ArtifactURIs = exportArtifacts(ctx, gcsuploader.NewGCSStorageService(),
		state.Request.ArtifactBucket, state.ParseRunID, state.Collections, state.Summary,
		logger.FromContext(ctx))
	return nil
}

// Step 10: MarkSuccessStep closes out the run, supersedes earlier runs of
// the document, and flips the document to SUCCESS.
type MarkSuccessStep struct{}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	warnings := len(parser.Warnings(state.Collections.Diagnostics))
	if err := infra.CompleteParseRun(ctx, state.ParseRunID, len(state.Collections.PreVeto), warnings, state.Collections.Coverage.Ratio()); err != nil {
		return err
	}
	if err := infra.MarkParseRunsAsSuperseded(ctx, state.DocumentID, state.ParseRunID); err != nil {
		return err
	}
	return infra.UpdateDocumentParseStatus(ctx, state.DocumentID, infra.StatusSuccess)
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewBudgetProcessingPipeline creates the standard 10-step pipeline for
// processing budget documents.
func NewBudgetProcessingPipeline() *Pipeline {
	return NewPipeline(
		&CreateDocumentStep{},
		&StartParseRunStep{},
		&FetchSourcesStep{},
		&TransformStep{},
		&EnforceValidationStep{},
		&BuildSummaryStep{},
		&InsertAllocationsStep{},
		&StoreRunReportsStep{},
		&ExportArtifactsStep{},
		&MarkSuccessStep{},
	)
}
