// Package veto applies line-item veto changes to a parsed allocation
// collection. Changes target records by program, fiscal year and fund
// type and replace amounts in place, so the post-veto collection keeps
// the document order of the original.
package veto

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

// Mode selects which collections a processing run produces.
type Mode string

const (
	// ModeNone skips veto processing entirely.
	ModeNone Mode = "none"
	// ModeApply produces only the post-veto collection.
	ModeApply Mode = "apply"
	// ModeBoth produces the pre-veto and post-veto collections.
	ModeBoth Mode = "both"
)

// ParseMode validates a mode flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeApply, ModeBoth:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid veto mode %q (want none, apply or both)", s)
}

// Result summarizes one veto application.
type Result struct {
	Records   []domain.Allocation
	Applied   int
	Unmatched []domain.VetoChange
}

// Apply replays changes against records and returns the updated
// collection. The input is not modified. Changes apply in order, each
// seeing the effects of the ones before it, so replaying the same list
// is idempotent. A change that matches nothing logs a warning and is
// reported in Result.Unmatched; the collection passes through untouched
// for it.
func Apply(records []domain.Allocation, changes []domain.VetoChange, log zerolog.Logger) Result {
	out := make([]domain.Allocation, len(records))
	copy(out, records)

	res := Result{Records: out}
	for _, ch := range changes {
		matched := false
		for i := range out {
			if !out[i].Matches(ch.ProgramID, ch.FiscalYear, ch.FundType) {
				continue
			}
			matched = true
			if ch.Amount != nil {
				out[i].Amount = *ch.Amount
			}
			if ch.Positions != nil {
				out[i].Positions = ch.Positions
			}
			if ch.Notes != "" {
				out[i].Notes = ch.Notes
			}
		}
		if matched {
			res.Applied++
			continue
		}
		res.Unmatched = append(res.Unmatched, ch)
		log.Warn().
			Str("program_id", ch.ProgramID).
			Int("fiscal_year", ch.FiscalYear).
			Str("fund_type", ch.FundType.String()).
			Msg("no matching allocation for veto change")
	}

	log.Info().
		Int("changes", len(changes)).
		Int("applied", res.Applied).
		Int("unmatched", len(res.Unmatched)).
		Msg("veto changes applied")
	return res
}
