package analysis

import (
	"testing"

	"github.com/dkagawa/budgetline/internal/domain"
)

func alloc(programID string, fy int, section domain.Section, fund domain.FundType, category string, amount float64) domain.Allocation {
	return domain.Allocation{
		ProgramID:      programID,
		ProgramName:    programID,
		DepartmentCode: domain.DepartmentCodeOf(programID),
		Section:        section,
		FundType:       fund,
		FiscalYear:     fy,
		Amount:         amount,
		Category:       category,
	}
}

func testRecords() []domain.Allocation {
	return []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1_500_000),
		alloc("AGR150", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 2_500_000),
		alloc("LBR111", 2026, domain.SectionOperating, domain.FundFederal, "Employment", 4_000_000),
		alloc("TRN595", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, "Transportation", 2_000_000),
	}
}

func TestGroupSum(t *testing.T) {
	rows, err := GroupSum(testRecords(), "category")
	if err != nil {
		t.Fatalf("GroupSum() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("GroupSum() rows = %d, want 3", len(rows))
	}

	// Sorted by dimension value.
	if rows[0].Keys[0] != "Economic Development" || rows[0].Amount != 4_000_000 {
		t.Errorf("rows[0] = %+v, want Economic Development $4,000,000", rows[0])
	}
	if rows[0].Pct != 40 {
		t.Errorf("rows[0].Pct = %.2f, want 40", rows[0].Pct)
	}
	if rows[1].Keys[0] != "Employment" || rows[1].Pct != 40 {
		t.Errorf("rows[1] = %+v, want Employment at 40%%", rows[1])
	}
	if rows[2].Keys[0] != "Transportation" || rows[2].Pct != 20 {
		t.Errorf("rows[2] = %+v, want Transportation at 20%%", rows[2])
	}
}

func TestGroupSumMultiDim(t *testing.T) {
	rows, err := GroupSum(testRecords(), "section", "fund_type")
	if err != nil {
		t.Fatalf("GroupSum() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("GroupSum() rows = %d, want 3", len(rows))
	}
	if rows[0].Key() != "Capital Improvement / C" {
		t.Errorf("rows[0].Key() = %q, want Capital Improvement / C", rows[0].Key())
	}
}

func TestGroupSumErrors(t *testing.T) {
	if _, err := GroupSum(testRecords(), "flavor"); err == nil {
		t.Error("GroupSum() error = nil for unknown column, want error")
	}
	if _, err := GroupSum(testRecords()); err == nil {
		t.Error("GroupSum() error = nil for no dimensions, want error")
	}
}

func TestGroupSumZeroTotal(t *testing.T) {
	records := []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 0),
		alloc("LBR111", 2026, domain.SectionOperating, domain.FundGeneral, "Employment", 0),
	}
	rows, err := GroupSum(records, "category")
	if err != nil {
		t.Fatalf("GroupSum() error = %v", err)
	}
	for _, r := range rows {
		if r.Pct != 0 {
			t.Errorf("Pct = %.2f for zero-total collection, want 0", r.Pct)
		}
	}
}

func TestGroupSumBy(t *testing.T) {
	totals, err := GroupSumBy(testRecords(), "department_code")
	if err != nil {
		t.Fatalf("GroupSumBy() error = %v", err)
	}
	if totals["AGR"] != 4_000_000 {
		t.Errorf("AGR total = %.0f, want 4000000", totals["AGR"])
	}
	if totals["TRN"] != 2_000_000 {
		t.Errorf("TRN total = %.0f, want 2000000", totals["TRN"])
	}
}
