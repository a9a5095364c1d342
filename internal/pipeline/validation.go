package pipeline

import (
	"fmt"

	"github.com/dkagawa/budgetline/internal/domain"
)

// CollectionValidator checks structural invariants over a parsed record
// collection before it is persisted or aggregated.
type CollectionValidator struct {
	requireKnownFunds bool
}

// NewCollectionValidator creates a validator. When requireKnownFunds is
// set, records whose fund letter is outside the statutory A-X range are
// also reported.
func NewCollectionValidator(requireKnownFunds bool) *CollectionValidator {
	return &CollectionValidator{requireKnownFunds: requireKnownFunds}
}

// ValidateCollection checks every record and returns a validity flag plus
// one human-readable message per violation, in record order. It never
// returns an error; callers decide whether an invalid collection is fatal.
func (v *CollectionValidator) ValidateCollection(records []domain.Allocation) (bool, []string) {
	var problems []string

	if len(records) == 0 {
		problems = append(problems, "record collection is empty")
		return false, problems
	}

	for _, rec := range records {
		ref := recordRef(rec)
		if rec.ProgramID == "" {
			problems = append(problems, fmt.Sprintf("%s: missing program_id", ref))
		}
		if rec.ProgramName == "" {
			problems = append(problems, fmt.Sprintf("%s: missing program_name", ref))
		}
		if rec.DepartmentCode == "" {
			problems = append(problems, fmt.Sprintf("%s: missing department_code", ref))
		}
		if rec.FiscalYear == 0 {
			problems = append(problems, fmt.Sprintf("%s: missing fiscal_year", ref))
		}
		if rec.Amount < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative amount %.2f", ref, rec.Amount))
		}
		if v.requireKnownFunds && !rec.FundType.Known() {
			problems = append(problems, fmt.Sprintf("%s: unresolved fund type %q", ref, rec.FundType))
		}
	}

	return len(problems) == 0, problems
}

// recordRef renders the program id and fiscal year reference used in
// validation messages.
func recordRef(rec domain.Allocation) string {
	id := rec.ProgramID
	if id == "" {
		id = "(no program)"
	}
	return fmt.Sprintf("%s FY%d", id, rec.FiscalYear)
}
