package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkagawa/budgetline/internal/domain"
)

// amountToken is one monetary column of a budget line: comma-grouped
// digits plus an optional fund-type letter.
type amountToken struct {
	digits string
	letter string
}

// tokenPair holds the first and second fiscal-year columns of a line.
// Either slot may be empty; a bare nil letter in the second column
// arrives here as an empty token.
type tokenPair struct {
	first  amountToken
	second amountToken
}

// pairFromGroups lifts regex submatches into a tokenPair. offset is the
// index of the first amountPair group within the submatch slice. The
// bare-letter alternative carries no digits, so it never reaches a
// token.
func pairFromGroups(g []string, offset int) tokenPair {
	return tokenPair{
		first:  amountToken{digits: g[offset], letter: g[offset+1]},
		second: amountToken{digits: g[offset+2], letter: g[offset+3]},
	}
}

// emitSpec describes where the records of one line belong. inline marks
// amounts that rode on a section header rather than a dedicated amount
// line; their records carry a provenance note.
type emitSpec struct {
	programID   string
	programName string
	department  string
	section     domain.Section
	category    string
	pair        tokenPair
	inline      bool
}

// emitPair applies the emission rule to both columns of a line: the
// first token maps to the first fiscal year of the biennium, the second
// to the second. Tokens that are absent or zero produce nothing.
func (p *Parser) emitPair(out *lineResult, ln line, spec emitSpec) {
	p.emitOne(out, ln, spec, p.cfg.Biennium.FirstYear, spec.pair.first)
	p.emitOne(out, ln, spec, p.cfg.Biennium.SecondYear, spec.pair.second)
}

func (p *Parser) emitOne(out *lineResult, ln line, spec emitSpec, fiscalYear int, tok amountToken) {
	if tok.digits == "" {
		return
	}
	amount, err := strconv.ParseInt(strings.ReplaceAll(tok.digits, ",", ""), 10, 64)
	if err != nil {
		p.warnf(out, ln.number, "unparseable amount %q: %v", tok.digits, err)
		return
	}
	if amount <= 0 {
		return
	}

	// A missing fund letter defaults by emission context, decided per
	// token: bond funds for capital appropriations, general funds for
	// operating ones.
	var fund domain.FundType
	switch {
	case tok.letter != "":
		fund = domain.ParseFundType(tok.letter)
	case spec.section == domain.SectionCapitalImprovement:
		fund = domain.FundGeneralObligationBond
	default:
		fund = domain.FundGeneral
	}

	category := spec.category
	if category == "" {
		category = domain.UncategorizedLabel
	}
	var notes string
	if spec.inline {
		notes = fmt.Sprintf("FY%d inline column", fiscalYear)
	}
	out.records = append(out.records, domain.Allocation{
		ProgramID:      spec.programID,
		ProgramName:    spec.programName,
		DepartmentCode: spec.department,
		DepartmentName: domain.DepartmentName(spec.department),
		Section:        spec.section,
		FundType:       fund,
		FiscalYear:     fiscalYear,
		Amount:         float64(amount),
		Category:       category,
		Notes:          notes,
		LineNumber:     ln.number,
	})
}

// warnf records a warning diagnostic on the line result and mirrors it
// to the configured logger.
func (p *Parser) warnf(out *lineResult, lineNo int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	out.diags = append(out.diags, Diagnostic{Level: LevelWarn, Line: lineNo, Message: msg})
	p.cfg.Logger.Warn().Int("line", lineNo).Msg(msg)
}
