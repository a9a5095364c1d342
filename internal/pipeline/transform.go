package pipeline

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/onetime"
	"github.com/dkagawa/budgetline/internal/parser"
	"github.com/dkagawa/budgetline/internal/veto"
)

// Options control how a document is transformed into record collections.
// The zero value parses against the default biennium with the default
// dedupe policy and no line repair.
type Options struct {
	Biennium     domain.Biennium
	RepairLines  bool
	DedupePolicy parser.DedupePolicy
	VetoMode     veto.Mode
	TopPrograms  int
	Logger       zerolog.Logger
}

// withDefaults fills unset option fields. A zero dedupe threshold would
// collapse every repeated amount, so it always maps to the default policy.
func (o Options) withDefaults() Options {
	if o.Biennium == (domain.Biennium{}) {
		o.Biennium = domain.DefaultBiennium
	}
	if o.DedupePolicy.Threshold == 0 {
		o.DedupePolicy = parser.DefaultDedupePolicy
	}
	if o.VetoMode == "" {
		o.VetoMode = veto.ModeBoth
	}
	if o.TopPrograms == 0 {
		o.TopPrograms = DefaultTopPrograms
	}
	return o
}

// Collections is the outcome of transforming one document: the labeled
// record collections plus everything observed on the way there.
type Collections struct {
	PreVeto  []domain.Allocation
	PostVeto []domain.Allocation // nil when no veto changes were applied

	Diagnostics []parser.Diagnostic
	Coverage    parser.CoverageReport

	Valid    bool
	Problems []string

	VetoMode      veto.Mode
	VetoesApplied int
	VetoUnmatched []domain.VetoChange
}

// Working returns the collection downstream stages should read: the
// post-veto records when vetoes were applied, the pre-veto records
// otherwise.
func (c *Collections) Working() []domain.Allocation {
	if c.PostVeto != nil {
		return c.PostVeto
	}
	return c.PreVeto
}

// Snapshots returns the labeled collections of this run in storage order.
// Under ModeApply the pre-veto collection is a working input, not a
// stored one, so only POST_VETO appears.
func (c *Collections) Snapshots() []Snapshot {
	var snaps []Snapshot
	if c.VetoMode != veto.ModeApply || c.PostVeto == nil {
		snaps = append(snaps, Snapshot{Collection: infra.CollectionPreVeto, Records: c.PreVeto})
	}
	if c.PostVeto != nil {
		snaps = append(snaps, Snapshot{Collection: infra.CollectionPostVeto, Records: c.PostVeto})
	}
	return snaps
}

// TransformDocument turns raw document bytes into validated record
// collections. It is a pure function of its inputs: no clients, no
// network, no shared state, so it is safe to run concurrently for
// independent documents. vetoCSV and oneTimeCSV are optional; pass nil
// to skip the veto and one-time merge stages.
func TransformDocument(raw, vetoCSV, oneTimeCSV []byte, opts Options) (*Collections, error) {
	opts = opts.withDefaults()

	// 1. Decode and normalize the raw text.
	text := parser.Normalize(parser.DecodeBytes(raw))
	if opts.RepairLines {
		text = parser.RepairLineBreaks(text)
	}

	// 2. Parse the document into records.
	p := parser.New(parser.Config{Biennium: opts.Biennium, Logger: opts.Logger})
	res := p.Parse(text)

	// 3. Suppress layout duplicates.
	records, dupDiags := parser.Dedupe(res.Records, opts.DedupePolicy, opts.Logger)

	diags := make([]parser.Diagnostic, 0, len(res.Diagnostics)+len(dupDiags))
	diags = append(diags, res.Diagnostics...)
	diags = append(diags, dupDiags...)

	// 4. Merge one-time appropriations when a source is given.
	if len(oneTimeCSV) > 0 {
		oneTime, err := onetime.LoadCSV(bytes.NewReader(oneTimeCSV), opts.Biennium)
		if err != nil {
			return nil, fmt.Errorf("TransformDocument: one-time rows: %w", err)
		}
		records = append(records, oneTime...)
	}

	cols := &Collections{
		PreVeto:     records,
		Diagnostics: diags,
		Coverage:    parser.CheckCoverage(text, res),
		VetoMode:    opts.VetoMode,
	}

	// 5. Validate the merged collection.
	validator := NewCollectionValidator(false)
	cols.Valid, cols.Problems = validator.ValidateCollection(records)

	// 6. Apply veto changes when a source is given and the mode allows it.
	if len(vetoCSV) > 0 && opts.VetoMode != veto.ModeNone {
		changes, err := veto.LoadCSV(bytes.NewReader(vetoCSV), opts.Biennium)
		if err != nil {
			return nil, fmt.Errorf("TransformDocument: veto rows: %w", err)
		}
		vres := veto.Apply(records, changes, opts.Logger)
		cols.PostVeto = vres.Records
		cols.VetoesApplied = vres.Applied
		cols.VetoUnmatched = vres.Unmatched
	}

	return cols, nil
}
