package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/domain"
)

func sampleRecords() []domain.Allocation {
	positions := 12.0
	return []domain.Allocation{
		{
			ProgramID:      "AGR100",
			ProgramName:    "AGRICULTURAL LOAN DIVISION",
			DepartmentCode: "AGR",
			DepartmentName: "Department of Agriculture",
			Section:        domain.SectionOperating,
			FundType:       domain.FundGeneral,
			FiscalYear:     2026,
			Amount:         1_500_000,
			Positions:      &positions,
			Category:       "Economic Development",
			LineNumber:     7,
		},
		{
			ProgramID:      "TRN595",
			ProgramName:    "HIGHWAYS, ADMINISTRATION",
			DepartmentCode: "TRN",
			DepartmentName: "Department of Transportation",
			Section:        domain.SectionCapitalImprovement,
			FundType:       domain.FundGeneralObligationBond,
			FiscalYear:     2026,
			Amount:         20_000_000,
			Category:       "Transportation",
			LineNumber:     42,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading written csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("csv rows = %d, want header + 2", len(rows))
	}
	if got, want := len(rows[0]), len(domain.ExportColumns); got != want {
		t.Errorf("header columns = %d, want %d", got, want)
	}
	if rows[0][0] != "program_id" {
		t.Errorf("header[0] = %q, want program_id", rows[0][0])
	}
	if rows[1][0] != "AGR100" || rows[1][8] != "1500000" {
		t.Errorf("row 1 = %v, want AGR100 with amount 1500000", rows[1])
	}
	// The comma in the program name must survive the round trip.
	if rows[2][1] != "HIGHWAYS, ADMINISTRATION" {
		t.Errorf("row 2 program name = %q, want comma preserved", rows[2][1])
	}
	if rows[2][6] != "General Obligation Bond Fund" {
		t.Errorf("row 2 fund category = %q, want label", rows[2][6])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal written json: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("json rows = %d, want 2", len(rows))
	}
	if rows[0]["program_id"] != "AGR100" {
		t.Errorf("program_id = %v, want AGR100", rows[0]["program_id"])
	}
	if rows[0]["amount"] != 1_500_000.0 {
		t.Errorf("amount = %v, want numeric 1500000", rows[0]["amount"])
	}
	if rows[0]["positions"] != 12.0 {
		t.Errorf("positions = %v, want 12", rows[0]["positions"])
	}
	if _, ok := rows[1]["positions"]; ok {
		t.Error("absent positions serialized, want omitted")
	}
	if rows[1]["fund_category"] != "General Obligation Bond Fund" {
		t.Errorf("fund_category = %v, want label", rows[1]["fund_category"])
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	csvPath := filepath.Join(dir, "allocations.csv")
	if err := WriteCSVFile(csvPath, records); err != nil {
		t.Fatalf("WriteCSVFile() error = %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("reading csv file: %v", err)
	}
	if !strings.HasPrefix(string(data), "program_id,") {
		t.Errorf("csv file starts %q, want header", string(data)[:20])
	}

	jsonPath := filepath.Join(dir, "allocations.json")
	if err := WriteJSONFile(jsonPath, records); err != nil {
		t.Fatalf("WriteJSONFile() error = %v", err)
	}
	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("json file missing: %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	records := sampleRecords()
	summary, err := analysis.BuildSummary(records, 2026, 5)
	if err != nil {
		t.Fatalf("BuildSummary() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteSummary(&buf, summary); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if decoded["fiscal_year"] != 2026.0 {
		t.Errorf("fiscal_year = %v, want 2026", decoded["fiscal_year"])
	}
	if _, ok := decoded["top_programs"]; !ok {
		t.Error("summary missing top_programs")
	}
}

func TestWriteChanges(t *testing.T) {
	before := sampleRecords()
	after := make([]domain.Allocation, len(before))
	copy(after, before)
	after[0].Amount = 1_000_000

	var buf bytes.Buffer
	if err := WriteChanges(&buf, analysis.Compare(before, after)); err != nil {
		t.Fatalf("WriteChanges() error = %v", err)
	}
	var changes []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &changes); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(changes))
	}
	if changes[0]["change_type"] != "modified" {
		t.Errorf("change_type = %v, want modified", changes[0]["change_type"])
	}
}
