package parser

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

func alloc(programID string, fy int, section domain.Section, fund domain.FundType, amount float64, line int) domain.Allocation {
	return domain.Allocation{
		ProgramID:      programID,
		ProgramName:    programID,
		DepartmentCode: domain.DepartmentCodeOf(programID),
		Section:        section,
		FundType:       fund,
		FiscalYear:     fy,
		Amount:         amount,
		LineNumber:     line,
	}
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name      string
		records   []domain.Allocation
		policy    DedupePolicy
		wantKept  int
		wantDiags int
	}{
		{
			name: "large duplicate dropped",
			records: []domain.Allocation{
				alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, 200_000_000, 10),
				alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundRevenueBond, 200_000_000, 11),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  1,
			wantDiags: 1,
		},
		{
			name: "small duplicate kept",
			records: []domain.Allocation{
				alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, 50_000_000, 10),
				alloc("HMS401", 2026, domain.SectionOperating, domain.FundGeneral, 50_000_000, 11),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  2,
			wantDiags: 0,
		},
		{
			name: "amount at threshold kept",
			records: []domain.Allocation{
				alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, 100_000_000, 10),
				alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundRevenueBond, 100_000_000, 11),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  2,
			wantDiags: 0,
		},
		{
			name: "different sections kept",
			records: []domain.Allocation{
				alloc("TRN901", 2026, domain.SectionOperating, domain.FundGeneral, 200_000_000, 10),
				alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundGeneral, 200_000_000, 11),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  2,
			wantDiags: 0,
		},
		{
			name: "different fiscal years kept",
			records: []domain.Allocation{
				alloc("TRN901", 2026, domain.SectionOperating, domain.FundGeneral, 200_000_000, 10),
				alloc("TRN901", 2027, domain.SectionOperating, domain.FundGeneral, 200_000_000, 10),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  2,
			wantDiags: 0,
		},
		{
			name: "custom threshold",
			records: []domain.Allocation{
				alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, 5_000, 10),
				alloc("AGR100", 2026, domain.SectionOperating, domain.FundSpecial, 5_000, 11),
			},
			policy:    DedupePolicy{Threshold: 1_000},
			wantKept:  1,
			wantDiags: 1,
		},
		{
			name: "triplicate collapses to first",
			records: []domain.Allocation{
				alloc("EDN100", 2026, domain.SectionOperating, domain.FundGeneral, 300_000_000, 10),
				alloc("EDN100", 2026, domain.SectionOperating, domain.FundFederal, 300_000_000, 11),
				alloc("EDN100", 2026, domain.SectionOperating, domain.FundSpecial, 300_000_000, 12),
			},
			policy:    DefaultDedupePolicy,
			wantKept:  1,
			wantDiags: 2,
		},
		{
			name:      "empty input",
			records:   nil,
			policy:    DefaultDedupePolicy,
			wantKept:  0,
			wantDiags: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, diags := Dedupe(tt.records, tt.policy, zerolog.Nop())
			if got := len(kept); got != tt.wantKept {
				t.Errorf("Dedupe() kept = %d, want %d", got, tt.wantKept)
			}
			if got := len(diags); got != tt.wantDiags {
				t.Errorf("Dedupe() diagnostics = %d, want %d", got, tt.wantDiags)
			}
		})
	}
}

func TestDedupeKeepsFirstAndOrder(t *testing.T) {
	records := []domain.Allocation{
		alloc("AGR100", 2026, domain.SectionOperating, domain.FundGeneral, 1_000, 5),
		alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, 200_000_000, 10),
		alloc("HMS401", 2026, domain.SectionOperating, domain.FundFederal, 2_000, 15),
		alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundRevenueBond, 200_000_000, 20),
	}
	kept, diags := Dedupe(records, DefaultDedupePolicy, zerolog.Nop())

	want := []string{"AGR100", "TRN901", "HMS401"}
	if len(kept) != len(want) {
		t.Fatalf("Dedupe() kept = %d records, want %d", len(kept), len(want))
	}
	for i, id := range want {
		if kept[i].ProgramID != id {
			t.Errorf("kept[%d] = %s, want %s", i, kept[i].ProgramID, id)
		}
	}
	if kept[1].FundType != domain.FundGeneralObligationBond {
		t.Errorf("survivor fund = %q, want the first record's fund C", kept[1].FundType)
	}

	if len(diags) != 1 {
		t.Fatalf("Dedupe() diagnostics = %d, want 1", len(diags))
	}
	msg := diags[0].Message
	for _, part := range []string{"TRN901", "FY2026", "C,E"} {
		if !strings.Contains(msg, part) {
			t.Errorf("diagnostic %q missing %q", msg, part)
		}
	}
	if diags[0].Line != 20 {
		t.Errorf("diagnostic line = %d, want 20", diags[0].Line)
	}
}

func TestDedupeDoesNotModifyInput(t *testing.T) {
	records := []domain.Allocation{
		alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, 200_000_000, 10),
		alloc("TRN901", 2026, domain.SectionCapitalImprovement, domain.FundRevenueBond, 200_000_000, 11),
	}
	if _, _ = Dedupe(records, DefaultDedupePolicy, zerolog.Nop()); len(records) != 2 {
		t.Errorf("input length changed to %d", len(records))
	}
	if records[1].FundType != domain.FundRevenueBond {
		t.Errorf("input record mutated: %+v", records[1])
	}
}
