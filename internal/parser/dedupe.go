package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

// DedupePolicy controls duplicate suppression. Only sub-groups whose
// shared amount exceeds Threshold are collapsed; smaller repeats are
// routinely legitimate (matching county grants, recurring line items).
type DedupePolicy struct {
	Threshold float64
}

// DefaultDedupePolicy drops repeated appropriations above one hundred
// million dollars, the scale at which the bill layout is known to repeat
// a single appropriation across adjacent lines.
var DefaultDedupePolicy = DedupePolicy{Threshold: 100_000_000}

type dedupeKey struct {
	programID  string
	fiscalYear int
	section    domain.Section
	amount     float64
}

// Dedupe collapses sub-groups of records sharing program, fiscal year,
// section and amount down to their first member when the amount exceeds
// the policy threshold. Order is preserved and the input is not
// modified. Each dropped record produces a warning diagnostic naming the
// fund types seen in its sub-group.
func Dedupe(records []domain.Allocation, policy DedupePolicy, log zerolog.Logger) ([]domain.Allocation, []Diagnostic) {
	groups := make(map[dedupeKey][]int, len(records))
	for i, rec := range records {
		k := dedupeKey{rec.ProgramID, rec.FiscalYear, rec.Section, rec.Amount}
		groups[k] = append(groups[k], i)
	}

	drop := make(map[int]bool)
	var diags []Diagnostic
	for k, idxs := range groups {
		if len(idxs) < 2 || k.amount <= policy.Threshold {
			continue
		}
		funds := fundLetters(records, idxs)
		for _, i := range idxs[1:] {
			drop[i] = true
			msg := fmt.Sprintf("dropped duplicate %s appropriation for %s FY%d: %s across funds %s",
				k.section, k.programID, k.fiscalYear,
				domain.FormatCurrency(k.amount), funds)
			diags = append(diags, Diagnostic{Level: LevelWarn, Line: records[i].LineNumber, Message: msg})
			log.Warn().
				Str("program_id", k.programID).
				Int("fiscal_year", k.fiscalYear).
				Int("line", records[i].LineNumber).
				Msg(msg)
		}
	}

	if len(drop) == 0 {
		return records, nil
	}
	kept := make([]domain.Allocation, 0, len(records)-len(drop))
	for i, rec := range records {
		if !drop[i] {
			kept = append(kept, rec)
		}
	}
	sort.Slice(diags, func(i, j int) bool { return diags[i].Line < diags[j].Line })
	return kept, diags
}

// fundLetters lists the distinct fund-type letters of a sub-group in
// stable order.
func fundLetters(records []domain.Allocation, idxs []int) string {
	seen := make(map[string]bool)
	var letters []string
	for _, i := range idxs {
		s := string(records[i].FundType)
		if !seen[s] {
			seen[s] = true
			letters = append(letters, s)
		}
	}
	sort.Strings(letters)
	return strings.Join(letters, ",")
}
