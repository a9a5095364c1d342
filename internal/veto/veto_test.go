package veto

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func alloc(programID string, fy int, fund domain.FundType, amount float64) domain.Allocation {
	return domain.Allocation{
		ProgramID:      programID,
		ProgramName:    programID,
		DepartmentCode: domain.DepartmentCodeOf(programID),
		Section:        domain.SectionOperating,
		FundType:       fund,
		FiscalYear:     fy,
		Amount:         amount,
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Mode
		wantErr bool
	}{
		{name: "none", in: "none", want: ModeNone},
		{name: "apply", in: "apply", want: ModeApply},
		{name: "both", in: "both", want: ModeBoth},
		{name: "invalid", in: "dry-run", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	tests := []struct {
		name        string
		csv         string
		wantChanges int
		wantErr     bool
		check       func(t *testing.T, changes []domain.VetoChange)
	}{
		{
			name: "both years with fund letters",
			csv: "Program,Type,FY 2026 Amount,FY 2027 Amount\n" +
				"AGR100,Operating,\"2,701,795A\",\"2,650,000A\"\n",
			wantChanges: 2,
			check: func(t *testing.T, changes []domain.VetoChange) {
				first := changes[0]
				if first.ProgramID != "AGR100" || first.FiscalYear != 2026 {
					t.Errorf("first change = %+v, want AGR100 FY2026", first)
				}
				if first.FundType != domain.FundGeneral {
					t.Errorf("fund = %q, want A", first.FundType)
				}
				if first.Amount == nil || *first.Amount != 2_701_795 {
					t.Errorf("amount = %v, want 2701795", first.Amount)
				}
				if !strings.Contains(first.Notes, "Veto change for AGR100 FY2026") {
					t.Errorf("notes = %q, want veto provenance", first.Notes)
				}
			},
		},
		{
			name: "letterless cell defaults to general funds",
			csv: "Program,Type,FY 2026 Amount,FY 2027 Amount\n" +
				"TRN595,Operating,\"5,000,000\",\n",
			wantChanges: 1,
			check: func(t *testing.T, changes []domain.VetoChange) {
				if changes[0].FundType != domain.FundGeneral {
					t.Errorf("fund = %q, want A", changes[0].FundType)
				}
			},
		},
		{
			name: "special fund letter kept",
			csv: "Program,Type,FY 2026 Amount,FY 2027 Amount\n" +
				"LBR171,Operating,,\"750,000B\"\n",
			wantChanges: 1,
			check: func(t *testing.T, changes []domain.VetoChange) {
				if changes[0].FundType != domain.FundSpecial || changes[0].FiscalYear != 2027 {
					t.Errorf("change = %+v, want FY2027 fund B", changes[0])
				}
			},
		},
		{
			name: "zero amount is a real change",
			csv: "Program,Type,FY 2026 Amount,FY 2027 Amount\n" +
				"HMS230,Operating,0,\n",
			wantChanges: 1,
			check: func(t *testing.T, changes []domain.VetoChange) {
				if changes[0].Amount == nil || *changes[0].Amount != 0 {
					t.Errorf("amount = %v, want 0", changes[0].Amount)
				}
			},
		},
		{
			name: "compact header names",
			csv: "Program,FY2026,FY2027\n" +
				"BED120,\"1,000,000\",\"1,000,000\"\n",
			wantChanges: 2,
		},
		{
			name:        "blank program rows skipped",
			csv:         "Program,Type,FY 2026 Amount,FY 2027 Amount\n,,\"1,000\",\n",
			wantChanges: 0,
		},
		{
			name:    "missing program column",
			csv:     "Agency,FY 2026 Amount\nAGR,\"1,000\"\n",
			wantErr: true,
		},
		{
			name:    "no amount columns",
			csv:     "Program,Type\nAGR100,Operating\n",
			wantErr: true,
		},
		{
			name:    "garbage amount",
			csv:     "Program,FY 2026 Amount\nAGR100,not-a-number\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := LoadCSV(strings.NewReader(tt.csv), domain.DefaultBiennium)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := len(changes); got != tt.wantChanges {
				t.Fatalf("LoadCSV() changes = %d, want %d: %+v", got, tt.wantChanges, changes)
			}
			if tt.check != nil {
				tt.check(t, changes)
			}
		})
	}
}

func TestApply(t *testing.T) {
	base := []domain.Allocation{
		alloc("AGR100", 2026, domain.FundGeneral, 1_500_000),
		alloc("AGR100", 2026, domain.FundSpecial, 250_000),
		alloc("TRN595", 2026, domain.FundGeneral, 20_000_000),
	}

	res := Apply(base, []domain.VetoChange{
		{ProgramID: "AGR100", FiscalYear: 2026, FundType: domain.FundGeneral, Amount: ptr(1_000_000), Notes: "Veto change for AGR100 FY2026"},
	}, zerolog.Nop())

	if res.Applied != 1 || len(res.Unmatched) != 0 {
		t.Fatalf("Apply() = %d applied, %d unmatched, want 1 and 0", res.Applied, len(res.Unmatched))
	}
	if res.Records[0].Amount != 1_000_000 {
		t.Errorf("vetoed amount = %.0f, want 1000000", res.Records[0].Amount)
	}
	if res.Records[0].Notes != "Veto change for AGR100 FY2026" {
		t.Errorf("vetoed notes = %q, want veto provenance", res.Records[0].Notes)
	}
	if res.Records[1].Amount != 250_000 || res.Records[2].Amount != 20_000_000 {
		t.Error("untargeted records changed")
	}
	if base[0].Amount != 1_500_000 {
		t.Error("Apply() modified its input")
	}
}

func TestApplyUnmatched(t *testing.T) {
	base := []domain.Allocation{alloc("AGR100", 2026, domain.FundGeneral, 1_500_000)}

	res := Apply(base, []domain.VetoChange{
		{ProgramID: "XYZ999", FiscalYear: 2026, FundType: domain.FundGeneral, Amount: ptr(1)},
	}, zerolog.Nop())

	if res.Applied != 0 || len(res.Unmatched) != 1 {
		t.Fatalf("Apply() = %d applied, %d unmatched, want 0 and 1", res.Applied, len(res.Unmatched))
	}
	if res.Records[0].Amount != 1_500_000 {
		t.Errorf("record amount = %.0f, want unchanged 1500000", res.Records[0].Amount)
	}
}

func TestApplyOrderAndIdempotence(t *testing.T) {
	base := []domain.Allocation{alloc("AGR100", 2026, domain.FundGeneral, 1_500_000)}
	changes := []domain.VetoChange{
		{ProgramID: "AGR100", FiscalYear: 2026, FundType: domain.FundGeneral, Amount: ptr(1_000_000)},
		{ProgramID: "AGR100", FiscalYear: 2026, FundType: domain.FundGeneral, Amount: ptr(500_000)},
	}

	res := Apply(base, changes, zerolog.Nop())
	if res.Records[0].Amount != 500_000 {
		t.Errorf("amount after ordered changes = %.0f, want the later change's 500000", res.Records[0].Amount)
	}

	again := Apply(res.Records, changes, zerolog.Nop())
	if again.Records[0].Amount != 500_000 {
		t.Errorf("amount after replay = %.0f, want 500000", again.Records[0].Amount)
	}
}

func TestApplyReplacesAllMatches(t *testing.T) {
	base := []domain.Allocation{
		alloc("HMS401", 2026, domain.FundGeneral, 40_000_000),
		alloc("HMS401", 2026, domain.FundGeneral, 40_000_000),
	}
	res := Apply(base, []domain.VetoChange{
		{ProgramID: "HMS401", FiscalYear: 2026, FundType: domain.FundGeneral, Amount: ptr(30_000_000)},
	}, zerolog.Nop())

	for i, r := range res.Records {
		if r.Amount != 30_000_000 {
			t.Errorf("record %d amount = %.0f, want 30000000", i, r.Amount)
		}
	}
}

func TestApplyPositions(t *testing.T) {
	base := []domain.Allocation{alloc("EDN100", 2026, domain.FundGeneral, 10_000_000)}
	res := Apply(base, []domain.VetoChange{
		{ProgramID: "EDN100", FiscalYear: 2026, FundType: domain.FundGeneral, Positions: ptr(12)},
	}, zerolog.Nop())

	if res.Records[0].Positions == nil || *res.Records[0].Positions != 12 {
		t.Errorf("positions = %v, want 12", res.Records[0].Positions)
	}
	if res.Records[0].Amount != 10_000_000 {
		t.Errorf("amount = %.0f, want untouched 10000000", res.Records[0].Amount)
	}
}
