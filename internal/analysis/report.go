package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/dkagawa/budgetline/internal/domain"
)

// ProgramTotal is one program's summed amount for a report.
type ProgramTotal struct {
	ProgramID   string  `json:"program_id"`
	ProgramName string  `json:"program_name"`
	Department  string  `json:"department_code"`
	Amount      float64 `json:"amount"`
}

// Summary is the analysis bundle the export and publishing layers
// consume: one fiscal year's totals sliced by section, fund and
// category, plus distribution statistics and the largest programs.
type Summary struct {
	FiscalYear  int            `json:"fiscal_year"`
	Records     int            `json:"records"`
	Stats       Stats          `json:"stats"`
	Sections    []GroupTotal   `json:"sections"`
	Funds       []GroupTotal   `json:"funds"`
	Categories  []GroupTotal   `json:"categories"`
	TopPrograms []ProgramTotal `json:"top_programs"`
}

// BuildSummary assembles the Summary for one fiscal year. Categories
// come back in the bill's reading order rather than alphabetically, and
// funds carry their display labels.
func BuildSummary(records []domain.Allocation, fiscalYear, topN int) (Summary, error) {
	year := ByFiscalYear(records, fiscalYear)
	s := Summary{
		FiscalYear: fiscalYear,
		Records:    len(year),
		Stats:      Summarize(year),
	}

	var err error
	if s.Sections, err = GroupSum(year, "section"); err != nil {
		return s, fmt.Errorf("build summary: %w", err)
	}
	if s.Funds, err = GroupSum(year, "fund_category"); err != nil {
		return s, fmt.Errorf("build summary: %w", err)
	}
	if s.Categories, err = GroupSum(year, "category"); err != nil {
		return s, fmt.Errorf("build summary: %w", err)
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		return domain.CategoryRank(s.Categories[i].Keys[0]) < domain.CategoryRank(s.Categories[j].Keys[0])
	})
	s.TopPrograms = TopPrograms(year, topN)
	return s, nil
}

// TopPrograms sums amounts per program and returns the n largest,
// biggest first. The capital placeholder program competes like any
// other, which mirrors how the bill presents statewide capital money.
func TopPrograms(records []domain.Allocation, n int) []ProgramTotal {
	totals := make(map[string]*ProgramTotal)
	for _, rec := range records {
		pt, ok := totals[rec.ProgramID]
		if !ok {
			pt = &ProgramTotal{
				ProgramID:   rec.ProgramID,
				ProgramName: rec.ProgramName,
				Department:  rec.DepartmentCode,
			}
			totals[rec.ProgramID] = pt
		}
		pt.Amount += rec.Amount
	}

	out := make([]ProgramTotal, 0, len(totals))
	for _, pt := range totals {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].ProgramID < out[j].ProgramID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FormatCompact renders an amount in the abbreviated style of the
// published summaries: $5.2B, $730.0M, $45.0K, plain dollars below a
// thousand.
func FormatCompact(amount float64) string {
	abs := math.Abs(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s$%.1fK", sign, abs/1e3)
	default:
		return fmt.Sprintf("%s$%.0f", sign, abs)
	}
}
