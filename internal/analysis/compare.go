package analysis

import (
	"sort"

	"github.com/dkagawa/budgetline/internal/domain"
)

// ChangeType classifies one comparison row.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Change is one difference between two collections, keyed the same way
// veto changes target records plus the section.
type Change struct {
	ProgramID  string          `json:"program_id"`
	FiscalYear int             `json:"fiscal_year"`
	Section    domain.Section  `json:"section"`
	FundType   domain.FundType `json:"fund_type"`
	Before     float64         `json:"before"`
	After      float64         `json:"after"`
	Delta      float64         `json:"change"`
	PctChange  float64         `json:"pct_change"`
	Type       ChangeType      `json:"change_type"`
}

type compareKey struct {
	programID  string
	fiscalYear int
	section    domain.Section
	fund       domain.FundType
}

// Compare diffs two collections, typically pre-veto against post-veto
// or two bill drafts. Amounts are summed per key first, so repeated
// lines within one collection do not produce spurious rows. Keys with
// identical totals are omitted. PctChange is zero for added keys, where
// there is no base to compare against.
func Compare(before, after []domain.Allocation) []Change {
	sums := func(records []domain.Allocation) map[compareKey]float64 {
		m := make(map[compareKey]float64)
		for _, rec := range records {
			k := compareKey{rec.ProgramID, rec.FiscalYear, rec.Section, rec.FundType}
			m[k] += rec.Amount
		}
		return m
	}
	b := sums(before)
	a := sums(after)

	var changes []Change
	for k, bv := range b {
		av, ok := a[k]
		switch {
		case !ok:
			changes = append(changes, change(k, bv, 0, ChangeRemoved))
		case av != bv:
			changes = append(changes, change(k, bv, av, ChangeModified))
		}
	}
	for k, av := range a {
		if _, ok := b[k]; !ok {
			changes = append(changes, change(k, 0, av, ChangeAdded))
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		ci, cj := changes[i], changes[j]
		if ci.ProgramID != cj.ProgramID {
			return ci.ProgramID < cj.ProgramID
		}
		if ci.FiscalYear != cj.FiscalYear {
			return ci.FiscalYear < cj.FiscalYear
		}
		if ci.Section != cj.Section {
			return ci.Section < cj.Section
		}
		return ci.FundType < cj.FundType
	})
	return changes
}

func change(k compareKey, before, after float64, typ ChangeType) Change {
	c := Change{
		ProgramID:  k.programID,
		FiscalYear: k.fiscalYear,
		Section:    k.section,
		FundType:   k.fund,
		Before:     before,
		After:      after,
		Delta:      after - before,
		Type:       typ,
	}
	if before != 0 {
		c.PctChange = c.Delta / before * 100
	}
	return c
}
