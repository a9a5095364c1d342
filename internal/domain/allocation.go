// Package domain defines the fiscal data model shared by the parser,
// veto, analysis and reporting layers: allocations, fund types, sections,
// categories, departments and the biennium they belong to.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Allocation is one monetary line item recovered from the bill text (or
// synthesized from a supplementary source). Treat values as immutable:
// every transformation copies the record and replaces fields on the copy,
// so a pre-veto and post-veto snapshot can coexist and be compared.
type Allocation struct {
	ProgramID      string
	ProgramName    string
	DepartmentCode string
	DepartmentName string
	Section        Section
	FundType       FundType
	FiscalYear     int
	Amount         float64

	Positions *float64 // permanent position count, when the line carries one
	Ceiling   *float64 // expenditure ceiling, when the line carries one

	Category string // top-level budget category from the part heading
	Notes    string // provenance, e.g. which inline column produced this record

	LineNumber int // 1-based line in the source document, 0 for synthetic rows
}

// ExportColumns is the flat-row layout every allocation can be rendered
// into. This is the full contract consumed by CSV, JSON and warehouse
// sinks; fund_category is derived from the fund type code.
var ExportColumns = []string{
	"program_id", "program_name", "department_code", "department_name",
	"section", "fund_type", "fund_category", "fiscal_year", "amount",
	"positions", "ceiling", "category", "notes", "line_number",
}

// Row renders the allocation as strings in ExportColumns order.
func (a Allocation) Row() []string {
	row := make([]string, 0, len(ExportColumns))
	for _, col := range ExportColumns {
		switch col {
		case "amount":
			row = append(row, strconv.FormatFloat(a.Amount, 'f', -1, 64))
		case "positions":
			row = append(row, formatOptional(a.Positions))
		case "ceiling":
			row = append(row, formatOptional(a.Ceiling))
		case "line_number":
			row = append(row, strconv.Itoa(a.LineNumber))
		default:
			v, _ := a.Field(col)
			row = append(row, v)
		}
	}
	return row
}

// Field returns the value of a string-valued column by name. Numeric
// columns are rendered with strconv so grouping on them works too.
func (a Allocation) Field(name string) (string, error) {
	switch name {
	case "program_id":
		return a.ProgramID, nil
	case "program_name":
		return a.ProgramName, nil
	case "department_code":
		return a.DepartmentCode, nil
	case "department_name":
		return a.DepartmentName, nil
	case "section":
		return string(a.Section), nil
	case "fund_type":
		return string(a.FundType), nil
	case "fund_category":
		return a.FundType.Label(), nil
	case "fiscal_year":
		return strconv.Itoa(a.FiscalYear), nil
	case "amount":
		return strconv.FormatFloat(a.Amount, 'f', -1, 64), nil
	case "category":
		return a.Category, nil
	case "notes":
		return a.Notes, nil
	case "line_number":
		return strconv.Itoa(a.LineNumber), nil
	default:
		return "", fmt.Errorf("unknown column %q", name)
	}
}

// Numeric returns the value of a numeric column by name. Absent optional
// fields read as 0.
func (a Allocation) Numeric(name string) (float64, error) {
	switch name {
	case "amount":
		return a.Amount, nil
	case "positions":
		if a.Positions == nil {
			return 0, nil
		}
		return *a.Positions, nil
	case "ceiling":
		if a.Ceiling == nil {
			return 0, nil
		}
		return *a.Ceiling, nil
	default:
		return 0, fmt.Errorf("unknown numeric column %q", name)
	}
}

// Matches reports whether the allocation is addressed by the given veto
// key (program id, fiscal year, fund type).
func (a Allocation) Matches(programID string, fiscalYear int, fund FundType) bool {
	return a.ProgramID == programID && a.FiscalYear == fiscalYear && a.FundType == fund
}

// FormatCurrency renders an amount as whole dollars with thousands
// separators, e.g. 1234567 → "$1,234,567".
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 0, 64)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
