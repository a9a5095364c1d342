package veto

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dkagawa/budgetline/internal/domain"
)

// LoadFile reads veto changes from the CSV file at path. Columns are
// Program, Type and one amount column per biennium year, e.g.
// "FY 2026 Amount". Each non-empty amount cell becomes one change.
func LoadFile(path string, biennium domain.Biennium) ([]domain.VetoChange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load veto file: %w", err)
	}
	defer f.Close()
	changes, err := LoadCSV(f, biennium)
	if err != nil {
		return nil, fmt.Errorf("load veto file %q: %w", path, err)
	}
	return changes, nil
}

// LoadCSV parses veto changes from CSV content. Amount cells keep the
// bill's notation: comma-grouped dollars with an optional trailing fund
// letter ("2,701,795A"). A cell without a letter targets general funds.
func LoadCSV(r io.Reader, biennium domain.Biennium) ([]domain.VetoChange, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read veto header: %w", err)
	}
	cols, err := mapColumns(header, biennium)
	if err != nil {
		return nil, err
	}

	var changes []domain.VetoChange
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read veto row %d: %w", rowNum+1, err)
		}
		rowNum++

		if cols.program >= len(row) {
			continue
		}
		programID := strings.TrimSpace(row[cols.program])
		if programID == "" {
			continue
		}
		for _, yc := range []struct {
			year int
			col  int
		}{
			{biennium.FirstYear, cols.firstYear},
			{biennium.SecondYear, cols.secondYear},
		} {
			if yc.col < 0 || yc.col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[yc.col])
			if cell == "" {
				continue
			}
			amount, fund, err := parseAmountCell(cell)
			if err != nil {
				return nil, fmt.Errorf("veto row %d (%s): %w", rowNum, programID, err)
			}
			changes = append(changes, domain.VetoChange{
				ProgramID:  programID,
				FiscalYear: yc.year,
				FundType:   fund,
				Amount:     &amount,
				Notes:      fmt.Sprintf("Veto change for %s FY%d", programID, yc.year),
			})
		}
	}
	return changes, nil
}

type columnIndex struct {
	program    int
	firstYear  int
	secondYear int
}

// mapColumns locates the needed columns by normalized header name. The
// amount columns are recognized by the year they carry, so "FY 2026
// Amount" and "FY2026" both work.
func mapColumns(header []string, biennium domain.Biennium) (columnIndex, error) {
	cols := columnIndex{program: -1, firstYear: -1, secondYear: -1}
	first := strconv.Itoa(biennium.FirstYear)
	second := strconv.Itoa(biennium.SecondYear)
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		switch {
		case norm == "program":
			cols.program = i
		case strings.Contains(norm, first):
			cols.firstYear = i
		case strings.Contains(norm, second):
			cols.secondYear = i
		}
	}
	if cols.program < 0 {
		return cols, fmt.Errorf("veto header missing Program column: %v", header)
	}
	if cols.firstYear < 0 && cols.secondYear < 0 {
		return cols, fmt.Errorf("veto header has no amount column for FY%s or FY%s: %v", first, second, header)
	}
	return cols, nil
}

// parseAmountCell splits a bill-notation amount cell into its dollar
// value and fund type.
func parseAmountCell(cell string) (float64, domain.FundType, error) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")

	letters := ""
	for len(s) > 0 {
		last := s[len(s)-1]
		if last < 'A' || last > 'Z' {
			break
		}
		letters = string(last) + letters
		s = s[:len(s)-1]
	}
	fund := domain.FundGeneral
	if letters != "" {
		fund = domain.ParseFundType(letters)
	}

	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fund, fmt.Errorf("unparseable amount %q: %w", cell, err)
	}
	if amount < 0 {
		return 0, fund, fmt.Errorf("negative amount %q", cell)
	}
	return amount, fund, nil
}
