package analysis

import (
	"testing"

	"github.com/dkagawa/budgetline/internal/domain"
)

func TestCompare(t *testing.T) {
	before := []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1_500_000),
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundFederal, "Human Services", 40_000_000),
		alloc("TRN595", 2026, domain.SectionOperating, domain.FundGeneral, "Transportation", 20_000_000),
	}
	after := []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1_000_000),
		alloc("TRN595", 2026, domain.SectionOperating, domain.FundGeneral, "Transportation", 20_000_000),
		alloc("BED120", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 500_000),
	}

	changes := Compare(before, after)
	if len(changes) != 3 {
		t.Fatalf("Compare() changes = %d, want 3: %+v", len(changes), changes)
	}

	byProgram := map[string]Change{}
	for _, c := range changes {
		byProgram[c.ProgramID] = c
	}

	mod := byProgram["AGR100"]
	if mod.Type != ChangeModified || mod.Delta != -500_000 {
		t.Errorf("AGR100 change = %+v, want modified with delta -500000", mod)
	}
	if mod.PctChange > -33.3 || mod.PctChange < -33.4 {
		t.Errorf("AGR100 pct change = %.2f, want about -33.33", mod.PctChange)
	}

	rem := byProgram["HMS401"]
	if rem.Type != ChangeRemoved || rem.After != 0 || rem.Before != 40_000_000 {
		t.Errorf("HMS401 change = %+v, want removed", rem)
	}

	add := byProgram["BED120"]
	if add.Type != ChangeAdded || add.After != 500_000 || add.PctChange != 0 {
		t.Errorf("BED120 change = %+v, want added with zero pct", add)
	}

	if _, ok := byProgram["TRN595"]; ok {
		t.Error("Compare() reported an unchanged key")
	}
}

func TestCompareSumsPerKey(t *testing.T) {
	before := []domain.Allocation{
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, "Human Services", 10_000_000),
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, "Human Services", 5_000_000),
	}
	after := []domain.Allocation{
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, "Human Services", 15_000_000),
	}
	if changes := Compare(before, after); len(changes) != 0 {
		t.Errorf("Compare() changes = %d, want 0 when per-key sums agree: %+v", len(changes), changes)
	}
}

func TestCompareOrdering(t *testing.T) {
	before := []domain.Allocation{
		alloc("TRN595", 2027, domain.SectionOperating, domain.FundGeneral, "Transportation", 1),
		alloc("TRN595", 2026, domain.SectionOperating, domain.FundGeneral, "Transportation", 1),
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1),
	}
	changes := Compare(before, nil)
	if len(changes) != 3 {
		t.Fatalf("Compare() changes = %d, want 3", len(changes))
	}
	if changes[0].ProgramID != "AGR100" {
		t.Errorf("changes[0] = %s, want AGR100 first", changes[0].ProgramID)
	}
	if changes[1].FiscalYear != 2026 || changes[2].FiscalYear != 2027 {
		t.Errorf("changes for TRN595 not in fiscal-year order: %+v", changes[1:])
	}
}
