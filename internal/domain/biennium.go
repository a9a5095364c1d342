package domain

import "fmt"

// Biennium identifies the two fiscal years covered by one appropriations
// act. The first amount column on a bill line belongs to FirstYear, the
// second to SecondYear.
type Biennium struct {
	FirstYear  int
	SecondYear int
}

// DefaultBiennium covers the 2025 regular session act (FY2026 and FY2027).
var DefaultBiennium = Biennium{FirstYear: 2026, SecondYear: 2027}

// Contains reports whether year is one of the two covered fiscal years.
func (b Biennium) Contains(year int) bool {
	return year == b.FirstYear || year == b.SecondYear
}

// Years returns the covered fiscal years in order.
func (b Biennium) Years() [2]int {
	return [2]int{b.FirstYear, b.SecondYear}
}

// String implements fmt.Stringer.
func (b Biennium) String() string {
	return fmt.Sprintf("FY%d-FY%d", b.FirstYear, b.SecondYear)
}
