package domain

import "fmt"

// VetoChange is one requested edit to the appropriation identified by
// (ProgramID, FiscalYear, FundType). Changes are built from an external
// tabular source, applied once, and never mutated.
type VetoChange struct {
	ProgramID  string
	FiscalYear int
	FundType   FundType // the general fund when the source omits a letter

	Amount    *float64 // replacement amount, when provided
	Positions *float64 // replacement position count, when provided
	Notes     string
}

// Key renders the match key for logs and warnings.
func (c VetoChange) Key() string {
	return fmt.Sprintf("%s FY%d %s", c.ProgramID, c.FiscalYear, c.FundType)
}
