// Package export renders allocation collections and analysis summaries
// to the flat CSV and JSON layouts downstream spreadsheets and the
// publishing site consume.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/domain"
)

// WriteCSV writes records in ExportColumns order with a header row.
func WriteCSV(w io.Writer, records []domain.Allocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.ExportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes records to a CSV file at path.
func WriteCSVFile(path string, records []domain.Allocation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}

// jsonRecord mirrors ExportColumns for JSON output, keeping numbers
// numeric.
type jsonRecord struct {
	ProgramID      string   `json:"program_id"`
	ProgramName    string   `json:"program_name"`
	DepartmentCode string   `json:"department_code"`
	DepartmentName string   `json:"department_name"`
	Section        string   `json:"section"`
	FundType       string   `json:"fund_type"`
	FundCategory   string   `json:"fund_category"`
	FiscalYear     int      `json:"fiscal_year"`
	Amount         float64  `json:"amount"`
	Positions      *float64 `json:"positions,omitempty"`
	Ceiling        *float64 `json:"ceiling,omitempty"`
	Category       string   `json:"category"`
	Notes          string   `json:"notes,omitempty"`
	LineNumber     int      `json:"line_number,omitempty"`
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []domain.Allocation) error {
	rows := make([]jsonRecord, len(records))
	for i, rec := range records {
		rows[i] = jsonRecord{
			ProgramID:      rec.ProgramID,
			ProgramName:    rec.ProgramName,
			DepartmentCode: rec.DepartmentCode,
			DepartmentName: rec.DepartmentName,
			Section:        string(rec.Section),
			FundType:       string(rec.FundType),
			FundCategory:   rec.FundType.Label(),
			FiscalYear:     rec.FiscalYear,
			Amount:         rec.Amount,
			Positions:      rec.Positions,
			Ceiling:        rec.Ceiling,
			Category:       rec.Category,
			Notes:          rec.Notes,
			LineNumber:     rec.LineNumber,
		}
	}
	return writeIndented(w, rows, "write json")
}

// WriteJSONFile writes records to a JSON file at path.
func WriteJSONFile(path string, records []domain.Allocation) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, records) })
}

// WriteSummary writes an analysis summary as indented JSON.
func WriteSummary(w io.Writer, s analysis.Summary) error {
	return writeIndented(w, s, "write summary")
}

// WriteSummaryFile writes an analysis summary to a JSON file at path.
func WriteSummaryFile(path string, s analysis.Summary) error {
	return writeFile(path, func(w io.Writer) error { return WriteSummary(w, s) })
}

// WriteChanges writes a budget comparison as indented JSON.
func WriteChanges(w io.Writer, changes []analysis.Change) error {
	return writeIndented(w, changes, "write changes")
}

// WriteChangesFile writes a budget comparison to a JSON file at path.
func WriteChangesFile(path string, changes []analysis.Change) error {
	return writeFile(path, func(w io.Writer) error { return WriteChanges(w, changes) })
}

func writeIndented(w io.Writer, v interface{}, what string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
