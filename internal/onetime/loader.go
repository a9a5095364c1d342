// Package onetime loads the one-time appropriation worksheet that
// accompanies the bill. Its rows have no program structure of their
// own, so each becomes an allocation under a synthetic per-department
// program id.
package onetime

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dkagawa/budgetline/internal/domain"
)

// LoadFile reads one-time appropriations from the CSV file at path.
func LoadFile(path string, biennium domain.Biennium) ([]domain.Allocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load one-time file: %w", err)
	}
	defer f.Close()
	records, err := LoadCSV(f, biennium)
	if err != nil {
		return nil, fmt.Errorf("load one-time file %q: %w", path, err)
	}
	return records, nil
}

// LoadCSV parses one-time appropriations from CSV content. Required
// columns are the department code, a description and an amount; fund
// type and fiscal year are optional and default to general funds in the
// first biennium year. Rows gain synthetic program ids of the form
// AGROT1, AGROT2 counted per department.
func LoadCSV(r io.Reader, biennium domain.Biennium) ([]domain.Allocation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read one-time header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.Allocation
	counters := make(map[string]int)
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read one-time row %d: %w", rowNum+1, err)
		}
		rowNum++

		dept := strings.ToUpper(strings.TrimSpace(cell(row, cols.department)))
		if dept == "" {
			continue
		}
		amount, err := parseAmount(cell(row, cols.amount))
		if err != nil {
			return nil, fmt.Errorf("one-time row %d (%s): %w", rowNum, dept, err)
		}

		fund := domain.FundGeneral
		if s := strings.TrimSpace(cell(row, cols.fund)); s != "" {
			fund = domain.ParseFundType(s)
		}
		fiscalYear := biennium.FirstYear
		if s := strings.TrimSpace(cell(row, cols.year)); s != "" {
			fiscalYear, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("one-time row %d (%s): fiscal year %q: %w", rowNum, dept, s, err)
			}
			if !biennium.Contains(fiscalYear) {
				return nil, fmt.Errorf("one-time row %d (%s): fiscal year %d outside %s", rowNum, dept, fiscalYear, biennium)
			}
		}
		deptName := strings.TrimSpace(cell(row, cols.departmentName))
		if deptName == "" {
			deptName = domain.DepartmentName(dept)
		}

		counters[dept]++
		zero := 0.0
		records = append(records, domain.Allocation{
			ProgramID:      fmt.Sprintf("%sOT%d", dept, counters[dept]),
			ProgramName:    strings.TrimSpace(cell(row, cols.description)),
			DepartmentCode: dept,
			DepartmentName: deptName,
			Section:        domain.SectionOneTime,
			FundType:       fund,
			FiscalYear:     fiscalYear,
			Amount:         amount,
			Positions:      &zero,
			Category:       domain.UncategorizedLabel,
			Notes:          "one-time appropriation",
		})
	}
	return records, nil
}

type columnIndex struct {
	department     int
	departmentName int
	description    int
	amount         int
	fund           int
	year           int
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{department: -1, departmentName: -1, description: -1, amount: -1, fund: -1, year: -1}
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.ReplaceAll(norm, " ", "_")
		switch norm {
		case "department", "department_code", "dept":
			cols.department = i
		case "department_name", "agency":
			cols.departmentName = i
		case "description", "purpose":
			cols.description = i
		case "amount":
			cols.amount = i
		case "fund", "fund_type":
			cols.fund = i
		case "fiscal_year", "year", "fy":
			cols.year = i
		}
	}
	if cols.department < 0 || cols.description < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("one-time header missing department, description or amount: %v", header)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q: %w", s, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	return amount, nil
}
