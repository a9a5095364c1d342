package analysis

import (
	"testing"

	"github.com/dkagawa/budgetline/internal/domain"
)

func TestBuildSummary(t *testing.T) {
	records := []domain.Allocation{
		alloc("LBR111", 2026, domain.SectionOperating, domain.FundFederal, "Employment", 4_000_000),
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1_500_000),
		alloc("TRN595", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, "Transportation", 2_000_000),
		alloc("TRN595", 2027, domain.SectionOperating, domain.FundGeneral, "Transportation", 9_000_000),
	}

	s, err := BuildSummary(records, 2026, 2)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}

	if s.Records != 3 {
		t.Errorf("Records = %d, want 3 (FY2027 excluded)", s.Records)
	}
	if s.Stats.Total != 7_500_000 {
		t.Errorf("Stats.Total = %.0f, want 7500000", s.Stats.Total)
	}

	// Categories follow the bill's reading order, not the alphabet.
	wantCats := []string{"Economic Development", "Employment", "Transportation"}
	if len(s.Categories) != len(wantCats) {
		t.Fatalf("Categories = %d rows, want %d", len(s.Categories), len(wantCats))
	}
	for i, want := range wantCats {
		if s.Categories[i].Keys[0] != want {
			t.Errorf("Categories[%d] = %q, want %q", i, s.Categories[i].Keys[0], want)
		}
	}

	if len(s.Funds) != 3 {
		t.Errorf("Funds = %d rows, want 3", len(s.Funds))
	}
	if len(s.TopPrograms) != 2 {
		t.Fatalf("TopPrograms = %d, want 2", len(s.TopPrograms))
	}
	if s.TopPrograms[0].ProgramID != "LBR111" {
		t.Errorf("TopPrograms[0] = %s, want LBR111", s.TopPrograms[0].ProgramID)
	}
}

func TestBuildSummaryEmptyYear(t *testing.T) {
	s, err := BuildSummary(nil, 2026, 5)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}
	if s.Records != 0 || s.Stats.Count != 0 || len(s.TopPrograms) != 0 {
		t.Errorf("BuildSummary() over empty collection = %+v, want empty summary", s)
	}
}

func TestTopPrograms(t *testing.T) {
	records := []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 1_000),
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundSpecial, "Economic Development", 2_000),
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, "Human Services", 5_000),
		alloc("BED120", 2026, domain.SectionOperating, domain.FundGeneral, "Economic Development", 3_000),
	}

	top := TopPrograms(records, 2)
	if len(top) != 2 {
		t.Fatalf("TopPrograms() = %d entries, want 2", len(top))
	}
	if top[0].ProgramID != "HMS401" || top[0].Amount != 5_000 {
		t.Errorf("top[0] = %+v, want HMS401 $5,000", top[0])
	}
	if top[1].ProgramID != "AGR100" || top[1].Amount != 3_000 {
		t.Errorf("top[1] = %+v, want AGR100 $3,000 across funds", top[1])
	}

	if all := TopPrograms(records, 0); len(all) != 3 {
		t.Errorf("TopPrograms(0) = %d entries, want all 3", len(all))
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{name: "billions", amount: 5_184_050_637, want: "$5.2B"},
		{name: "millions", amount: 730_000_000, want: "$730.0M"},
		{name: "thousands", amount: 45_000, want: "$45.0K"},
		{name: "small", amount: 950, want: "$950"},
		{name: "zero", amount: 0, want: "$0"},
		{name: "negative", amount: -2_500_000, want: "-$2.5M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCompact(tt.amount); got != tt.want {
				t.Errorf("FormatCompact(%v) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}
