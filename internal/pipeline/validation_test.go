package pipeline

import (
	"strings"
	"testing"

	"github.com/dkagawa/budgetline/internal/domain"
)

func validRecord() domain.Allocation {
	return domain.Allocation{
		ProgramID:      "AGR100",
		ProgramName:    "Agricultural Resource Management",
		DepartmentCode: "AGR",
		DepartmentName: "Agriculture",
		Section:        domain.SectionOperating,
		FundType:       domain.FundGeneral,
		FiscalYear:     2026,
		Amount:         1_500_000,
	}
}

func TestCollectionValidator_ValidateCollection(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*domain.Allocation)
		wantValid    bool
		wantFragment string
	}{
		{
			name:      "valid record",
			mutate:    func(a *domain.Allocation) {},
			wantValid: true,
		},
		{
			name:         "missing program id",
			mutate:       func(a *domain.Allocation) { a.ProgramID = "" },
			wantValid:    false,
			wantFragment: "missing program_id",
		},
		{
			name:         "missing program name",
			mutate:       func(a *domain.Allocation) { a.ProgramName = "" },
			wantValid:    false,
			wantFragment: "missing program_name",
		},
		{
			name:         "missing department code",
			mutate:       func(a *domain.Allocation) { a.DepartmentCode = "" },
			wantValid:    false,
			wantFragment: "missing department_code",
		},
		{
			name:         "missing fiscal year",
			mutate:       func(a *domain.Allocation) { a.FiscalYear = 0 },
			wantValid:    false,
			wantFragment: "missing fiscal_year",
		},
		{
			name:         "negative amount",
			mutate:       func(a *domain.Allocation) { a.Amount = -250_000 },
			wantValid:    false,
			wantFragment: "negative amount -250000.00",
		},
		{
			name:      "zero amount is fine",
			mutate:    func(a *domain.Allocation) { a.Amount = 0 },
			wantValid: true,
		},
		{
			name:      "unknown fund tolerated by default",
			mutate:    func(a *domain.Allocation) { a.FundType = domain.FundType("9") },
			wantValid: true,
		},
	}

	validator := NewCollectionValidator(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			valid, problems := validator.ValidateCollection([]domain.Allocation{rec})
			if valid != tt.wantValid {
				t.Errorf("ValidateCollection() valid = %v, want %v (problems: %v)", valid, tt.wantValid, problems)
			}
			if tt.wantValid && len(problems) != 0 {
				t.Errorf("ValidateCollection() problems = %v, want none", problems)
			}
			if tt.wantFragment != "" {
				if len(problems) == 0 {
					t.Fatalf("ValidateCollection() returned no problems, want one containing %q", tt.wantFragment)
				}
				if !strings.Contains(problems[0], tt.wantFragment) {
					t.Errorf("ValidateCollection() problem = %q, want it to contain %q", problems[0], tt.wantFragment)
				}
			}
		})
	}
}

func TestCollectionValidator_EmptyCollection(t *testing.T) {
	validator := NewCollectionValidator(false)

	valid, problems := validator.ValidateCollection(nil)
	if valid {
		t.Error("ValidateCollection(nil) valid = true, want false")
	}
	if len(problems) != 1 || problems[0] != "record collection is empty" {
		t.Errorf("ValidateCollection(nil) problems = %v, want [record collection is empty]", problems)
	}
}

func TestCollectionValidator_ProblemsReferenceRecord(t *testing.T) {
	validator := NewCollectionValidator(false)

	rec := validRecord()
	rec.Amount = -1
	_, problems := validator.ValidateCollection([]domain.Allocation{rec})

	if len(problems) != 1 {
		t.Fatalf("ValidateCollection() returned %d problems, want 1", len(problems))
	}
	if !strings.Contains(problems[0], "AGR100") || !strings.Contains(problems[0], "FY2026") {
		t.Errorf("ValidateCollection() problem = %q, want it to reference AGR100 and FY2026", problems[0])
	}
}

func TestCollectionValidator_RequireKnownFunds(t *testing.T) {
	rec := validRecord()
	rec.FundType = domain.FundType("9")
	records := []domain.Allocation{rec}

	if valid, _ := NewCollectionValidator(false).ValidateCollection(records); !valid {
		t.Error("ValidateCollection() without fund check: valid = false, want true")
	}

	valid, problems := NewCollectionValidator(true).ValidateCollection(records)
	if valid {
		t.Error("ValidateCollection() with fund check: valid = true, want false")
	}
	if len(problems) != 1 || !strings.Contains(problems[0], `unresolved fund type "9"`) {
		t.Errorf("ValidateCollection() problems = %v, want one unresolved fund type message", problems)
	}
}

func TestRecordRef(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.Allocation
		want string
	}{
		{"with program", domain.Allocation{ProgramID: "TRN595", FiscalYear: 2027}, "TRN595 FY2027"},
		{"without program", domain.Allocation{FiscalYear: 2026}, "(no program) FY2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recordRef(tt.rec); got != tt.want {
				t.Errorf("recordRef() = %q, want %q", got, tt.want)
			}
		})
	}
}
