package pipeline

import (
	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/domain"
)

// Snapshot is one labeled record collection produced by a run. A run
// stores PRE_VETO, POST_VETO or both depending on its veto mode and on
// whether veto changes were applied.
type Snapshot struct {
	Collection string
	Records    []domain.Allocation
}

// RunSummary reports the outcome of one completed pipeline run. It is
// what callers log and what the API returns after an async job finishes.
type RunSummary struct {
	DocumentID    string
	ParseRunID    string
	Records       int
	Warnings      int
	CoveragePct   float64
	VetoesApplied int
	Artifacts     []string
	Summary       analysis.Summary
}
