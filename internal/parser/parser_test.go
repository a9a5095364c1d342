package parser

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

func newTestParser() *Parser {
	return New(Config{Logger: zerolog.Nop()})
}

// sampleBill is a miniature appropriations document exercising every
// line shape the matcher table recognizes. Totals by section and fund
// are asserted in TestParseSampleDocument.
const sampleBill = `                              STATE BUDGET

A.  ECONOMIC DEVELOPMENT

 1.   AGR100 - AGRICULTURAL LOAN DIVISION

OPERATING                         AGR        1,500,000A     1,550,000A
                                  AGR          250,000B       250,000B

 2.   AGR150 - PLANT AND ANIMAL HEALTH

OPERATING                         AGR        2,300,000A     2,300,000A
INVESTMENT CAPITAL                AGR        5,000,000C     3,000,000C

 3.   BED100 - STRATEGIC MARKETING AND SUPPORT

OPERATING                         BED        4,200,000A     4,250,000A
                                  BED        1,000,000N     1,000,000N

B.  EMPLOYMENT

 4.   LBR111 - WORKFORCE DEVELOPMENT

OPERATING                         LBR        3,100,000A     3,100,000A
                                  LBR          800,000N       800,000N

C.  TRANSPORTATION

 5.   TRN595 - HIGHWAYS ADMINISTRATION

OPERATING                         TRN       20,000,000A              A

 6.   TRN195 - HIGHWAYS SAFETY

OPERATING                         TRN        2,500,000B     2,500,000B
INVESTMENT CAPITAL                TRN      500,000,000E   450,000,000E
                                  TRN       15,000,000C      8,000,000C

F.  HUMAN SERVICES

 7.   HMS401 - HEALTH CARE PAYMENTS

OPERATING                         HMS      900,000,000A   950,000,000A
                                  HMS    1,100,000,000N 1,200,000,000N

SUMMARY TOTALS

Operating Budget Total: $2,035,650,000
`

func sumWhere(records []domain.Allocation, fy int, section domain.Section, fund domain.FundType) float64 {
	var total float64
	for _, r := range records {
		if r.FiscalYear == fy && r.Section == section && (fund == "" || r.FundType == fund) {
			total += r.Amount
		}
	}
	return total
}

func recordsFor(records []domain.Allocation, programID string) []domain.Allocation {
	var out []domain.Allocation
	for _, r := range records {
		if r.ProgramID == programID {
			out = append(out, r)
		}
	}
	return out
}

func TestParseSampleDocument(t *testing.T) {
	p := newTestParser()
	res := p.Parse(sampleBill)

	if got, want := len(res.Records), 27; got != want {
		t.Fatalf("Parse() records = %d, want %d", got, want)
	}
	if got := len(res.Warnings()); got != 0 {
		t.Errorf("Parse() warnings = %d, want 0: %v", got, res.Diagnostics)
	}

	totals := []struct {
		name string
		fy   int
		sec  domain.Section
		fund domain.FundType
		want float64
	}{
		{"fy2026 operating general", 2026, domain.SectionOperating, domain.FundGeneral, 931_100_000},
		{"fy2026 operating special", 2026, domain.SectionOperating, domain.FundSpecial, 2_750_000},
		{"fy2026 operating federal", 2026, domain.SectionOperating, domain.FundFederal, 1_101_800_000},
		{"fy2026 operating all funds", 2026, domain.SectionOperating, "", 2_035_650_000},
		{"fy2026 capital bond", 2026, domain.SectionCapitalImprovement, domain.FundGeneralObligationBond, 20_000_000},
		{"fy2026 capital all funds", 2026, domain.SectionCapitalImprovement, "", 520_000_000},
		{"fy2027 operating all funds", 2027, domain.SectionOperating, "", 2_165_750_000},
		{"fy2027 capital all funds", 2027, domain.SectionCapitalImprovement, "", 461_000_000},
	}
	for _, tt := range totals {
		t.Run(tt.name, func(t *testing.T) {
			if got := sumWhere(res.Records, tt.fy, tt.sec, tt.fund); got != tt.want {
				t.Errorf("sum = %.0f, want %.0f", got, tt.want)
			}
		})
	}

	// The nil second-year letter on TRN595 must not become a record.
	trn595 := recordsFor(res.Records, "TRN595")
	if len(trn595) != 1 {
		t.Fatalf("TRN595 records = %d, want 1", len(trn595))
	}
	if trn595[0].FiscalYear != 2026 || trn595[0].Amount != 20_000_000 || trn595[0].FundType != domain.FundGeneral {
		t.Errorf("TRN595 record = %+v, want FY2026 $20,000,000 fund A", trn595[0])
	}

	// Inline capital amounts book under the placeholder program with the
	// department named on the header line.
	capital := recordsFor(res.Records, CapitalProgramID)
	if len(capital) != 4 {
		t.Fatalf("capital placeholder records = %d, want 4", len(capital))
	}
	depts := map[string]bool{}
	for _, r := range capital {
		depts[r.DepartmentCode] = true
		if r.Section != domain.SectionCapitalImprovement {
			t.Errorf("capital record section = %q, want %q", r.Section, domain.SectionCapitalImprovement)
		}
	}
	if !depts["AGR"] || !depts["TRN"] {
		t.Errorf("capital record departments = %v, want AGR and TRN", depts)
	}

	// The indented continuation stays with the program that opened the
	// capital block.
	trn195 := recordsFor(res.Records, "TRN195")
	var contFound bool
	for _, r := range trn195 {
		if r.Section == domain.SectionCapitalImprovement && r.Amount == 15_000_000 {
			contFound = true
			if r.FundType != domain.FundGeneralObligationBond {
				t.Errorf("continuation fund = %q, want %q", r.FundType, domain.FundGeneralObligationBond)
			}
		}
	}
	if !contFound {
		t.Error("indented capital continuation not attributed to TRN195")
	}

	for _, r := range recordsFor(res.Records, "LBR111") {
		if r.Category != "Employment" {
			t.Errorf("LBR111 category = %q, want Employment", r.Category)
		}
	}
	for _, r := range res.Records {
		if r.LineNumber == 0 {
			t.Errorf("record %s has no line number", r.ProgramID)
		}
	}
}

func TestParseSampleCoverage(t *testing.T) {
	p := newTestParser()
	res := p.Parse(sampleBill)
	report := CheckCoverage(sampleBill, res)

	if got, want := report.MonetaryLines, 15; got != want {
		t.Errorf("CheckCoverage() monetary lines = %d, want %d", got, want)
	}
	if got, want := len(report.Missed), 1; got != want {
		t.Fatalf("CheckCoverage() missed = %d, want %d: %v", got, want, report.Missed)
	}
	if !strings.Contains(report.Missed[0].Text, "Operating Budget Total") {
		t.Errorf("missed line = %q, want the narrative total", report.Missed[0].Text)
	}
	if report.Ratio() <= 90 || report.Ratio() >= 100 {
		t.Errorf("CheckCoverage() ratio = %.1f, want between 90 and 100", report.Ratio())
	}
}

func TestParseLineKinds(t *testing.T) {
	const header = " 1.   AGR100 - AGRICULTURAL LOAN DIVISION\n"

	tests := []struct {
		name        string
		doc         string
		wantRecords int
		check       func(t *testing.T, res *Result)
	}{
		{
			name:        "operating header with inline amounts",
			doc:         header + "OPERATING   AGR   1,500,000A   1,550,000A\n",
			wantRecords: 2,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].FiscalYear != 2026 || res.Records[0].Amount != 1_500_000 {
					t.Errorf("first record = %+v, want FY2026 $1,500,000", res.Records[0])
				}
				if res.Records[1].FiscalYear != 2027 || res.Records[1].Amount != 1_550_000 {
					t.Errorf("second record = %+v, want FY2027 $1,550,000", res.Records[1])
				}
				for _, r := range res.Records {
					if r.Section != domain.SectionOperating {
						t.Errorf("section = %q, want %q", r.Section, domain.SectionOperating)
					}
					if r.Notes == "" {
						t.Error("inline emission should carry a provenance note")
					}
				}
			},
		},
		{
			name:        "letterless amounts default to general funds in operating context",
			doc:         header + "OPERATING   AGR   500,000   600,000\n",
			wantRecords: 2,
			check: func(t *testing.T, res *Result) {
				for _, r := range res.Records {
					if r.FundType != domain.FundGeneral {
						t.Errorf("fund = %q, want %q", r.FundType, domain.FundGeneral)
					}
				}
			},
		},
		{
			name:        "letterless capital amounts default to bond funds",
			doc:         header + "INVESTMENT CAPITAL   AGR   5,000,000   3,000,000\n",
			wantRecords: 2,
			check: func(t *testing.T, res *Result) {
				for _, r := range res.Records {
					if r.FundType != domain.FundGeneralObligationBond {
						t.Errorf("fund = %q, want %q", r.FundType, domain.FundGeneralObligationBond)
					}
				}
			},
		},
		{
			name:        "zero amounts emit nothing",
			doc:         header + "OPERATING   AGR   0   0\n",
			wantRecords: 0,
		},
		{
			name:        "amount line before any program emits nothing",
			doc:         "AGR   1,500,000A   1,500,000A\n",
			wantRecords: 0,
		},
		{
			name: "context survives blank lines",
			doc: header + "OPERATING   AGR   1,000,000A\n\n\n" +
				"AGR   2,000,000B   2,000,000B\n",
			wantRecords: 3,
			check: func(t *testing.T, res *Result) {
				for _, r := range res.Records {
					if r.ProgramID != "AGR100" {
						t.Errorf("program = %q, want AGR100", r.ProgramID)
					}
				}
			},
		},
		{
			name: "new program header resets section",
			doc: header + "INVESTMENT CAPITAL   AGR   5,000,000C\n" +
				" 2.   AGR150 - PLANT AND ANIMAL HEALTH\n" +
				"AGR   1,000,000A\n",
			wantRecords: 2,
			check: func(t *testing.T, res *Result) {
				last := res.Records[len(res.Records)-1]
				if last.ProgramID != "AGR150" || last.Section != domain.SectionOperating {
					t.Errorf("record after new header = %+v, want AGR150 operating", last)
				}
			},
		},
		{
			name: "nbsp spacing still parses",
			doc: header + "OPERATING   AGR   1,000,000A\n" +
				"   AGR   500,000B\n",
			wantRecords: 2,
		},
		{
			name:        "unknown fund letter maps to uncategorized funds",
			doc:         header + "OPERATING   AGR   1,000,000Q\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].FundType != domain.FundUnknown {
					t.Errorf("fund = %q, want %q", res.Records[0].FundType, domain.FundUnknown)
				}
			},
		},
		{
			name:        "records without category header are uncategorized",
			doc:         header + "OPERATING   AGR   1,000,000A\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].Category != domain.UncategorizedLabel {
					t.Errorf("category = %q, want %q", res.Records[0].Category, domain.UncategorizedLabel)
				}
			},
		},
		{
			name:        "unmapped category letter becomes Other",
			doc:         "Z.  MISCELLANEOUS\n" + header + "OPERATING   AGR   1,000,000A\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].Category != "Other" {
					t.Errorf("category = %q, want Other", res.Records[0].Category)
				}
			},
		},
		{
			name: "bare section header sets capital context",
			doc: header + "INVESTMENT CAPITAL\n" +
				"AGR   4,000,000C\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].Section != domain.SectionCapitalImprovement {
					t.Errorf("section = %q, want %q", res.Records[0].Section, domain.SectionCapitalImprovement)
				}
				if res.Records[0].ProgramID != "AGR100" {
					t.Errorf("program = %q, want AGR100", res.Records[0].ProgramID)
				}
			},
		},
		{
			name: "trailing amounts need full context",
			doc: header + "OPERATING\n" +
				"GRANT TO COUNTY OF MAUI   AGR   750,000A\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if res.Records[0].Amount != 750_000 || res.Records[0].ProgramID != "AGR100" {
					t.Errorf("record = %+v, want $750,000 under AGR100", res.Records[0])
				}
			},
		},
		{
			name:        "overflowing amount is reported and skipped",
			doc:         header + "OPERATING   AGR   99,999,999,999,999,999,999A   1,000,000A\n",
			wantRecords: 1,
			check: func(t *testing.T, res *Result) {
				if got := len(res.Warnings()); got != 1 {
					t.Fatalf("warnings = %d, want 1", got)
				}
				if res.Records[0].FiscalYear != 2027 {
					t.Errorf("surviving record fiscal year = %d, want 2027", res.Records[0].FiscalYear)
				}
			},
		},
		{
			name:        "operating amounts before any program are reported",
			doc:         "OPERATING   AGR   1,500,000A\n",
			wantRecords: 0,
			check: func(t *testing.T, res *Result) {
				if got := len(res.Warnings()); got != 1 {
					t.Errorf("warnings = %d, want 1", got)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParser()
			res := p.Parse(Normalize(tt.doc))
			if got := len(res.Records); got != tt.wantRecords {
				t.Fatalf("Parse() records = %d, want %d: %+v", got, tt.wantRecords, res.Records)
			}
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	p := newTestParser()
	if _, err := p.ParseFile("testdata/does-not-exist.txt"); err == nil {
		t.Error("ParseFile() error = nil, want error for missing file")
	}
}

func TestParserDefaultBiennium(t *testing.T) {
	p := New(Config{})
	res := p.Parse(" 1.   AGR100 - LOANS\nOPERATING   AGR   1,000,000A   1,000,000A\n")
	years := map[int]bool{}
	for _, r := range res.Records {
		years[r.FiscalYear] = true
	}
	if !years[domain.DefaultBiennium.FirstYear] || !years[domain.DefaultBiennium.SecondYear] {
		t.Errorf("fiscal years = %v, want both default biennium years", years)
	}
}
