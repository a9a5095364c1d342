package parser

import (
	"regexp"
	"strings"

	"github.com/dkagawa/budgetline/internal/domain"
)

// Program ID and name used for appropriations that appear inline on an
// INVESTMENT CAPITAL header before any program-level attribution is
// possible.
const (
	CapitalProgramID   = "CAPITAL_IMPROVEMENT"
	CapitalProgramName = "CAPITAL IMPROVEMENTS"
)

// Raw section tokens as they appear in the bill text. The state machine
// stores these verbatim; domain.Section values are derived at emission
// time.
const (
	sectionTokenOperating = "OPERATING"
	sectionTokenCapital   = "INVESTMENT CAPITAL"
)

// line carries one physical input line through classification. text is
// the whitespace-trimmed form the patterns run against; raw keeps the
// original so indentation survives for the continuation matcher.
type line struct {
	number int
	raw    string
	text   string
}

func (ln line) indented() bool {
	return len(ln.raw) > 0 && (ln.raw[0] == ' ' || ln.raw[0] == '\t')
}

// state is the running extraction context. It is copied by value into
// each handler, which returns the (possibly updated) state, so no handler
// can mutate context behind the classifier's back.
type state struct {
	department  string
	programID   string
	programName string
	section     string // sectionTokenOperating, sectionTokenCapital or ""
	category    string
}

// lineResult is the outcome of classifying a single line: the records it
// emitted and any diagnostics raised while extracting them.
type lineResult struct {
	records []domain.Allocation
	diags   []Diagnostic
}

// matcher pairs a predicate with the handler that consumes the match.
// classify tries matchers in slice order; the first predicate to return
// submatches wins and its handler owns the whole line.
type matcher struct {
	name   string
	match  func(ln line, st state) []string
	handle func(p *Parser, ln line, groups []string, st state, out *lineResult) state
}

// amountPair matches the one or two amount tokens a budget line carries:
// comma-grouped digits with an optional fund-type letter, and for the
// second slot optionally a bare letter standing for an appropriation
// reduced to nil. Submatch layout is digits1, letter1, digits2, letter2,
// bareLetter2.
const amountPair = `([\d,]+)([A-Z]?)(?:\s+(?:([\d,]+)([A-Z]?)|([A-Z])))?`

var (
	categoryRe  = regexp.MustCompile(`^([A-Z])\.\s+(.+?)\s*(?:\([A-Z]+\))?$`)
	programRe   = regexp.MustCompile(`^(\d+)\.\s+([A-Z]{2,4}\d*)\s*-\s*(.+?)((?:\s+\d[\d,.]*[A-Z*#]?)*)\s*$`)
	capitalRe   = regexp.MustCompile(`^INVESTMENT\s+CAPITAL\s+([A-Z]{1,4}\d*)\s+` + amountPair + `(?:\s.*)?$`)
	amountRe    = regexp.MustCompile(`^([A-Z]{1,4})\s+` + amountPair + `$`)
	operatingRe = regexp.MustCompile(`^OPERATING(?:\s+([A-Z]{1,4})\s+` + amountPair + `)?$`)
	sectionRe   = regexp.MustCompile(`^(OPERATING|INVESTMENT\s+CAPITAL)$`)
	trailingRe  = regexp.MustCompile(`([A-Z]{1,4})\s+` + amountPair + `$`)
)

// newMatchers builds the classification table. Order is the precedence
// contract: earlier entries shadow later ones for any line both would
// accept.
func newMatchers() []matcher {
	return []matcher{
		{
			name: "category-header",
			match: func(ln line, st state) []string {
				return categoryRe.FindStringSubmatch(ln.text)
			},
			handle: handleCategory,
		},
		{
			name: "program-header",
			match: func(ln line, st state) []string {
				return programRe.FindStringSubmatch(ln.text)
			},
			handle: handleProgram,
		},
		{
			name: "capital-header",
			match: func(ln line, st state) []string {
				return capitalRe.FindStringSubmatch(ln.text)
			},
			handle: handleCapitalHeader,
		},
		{
			name: "capital-continuation",
			match: func(ln line, st state) []string {
				if st.section != sectionTokenCapital || st.programID == "" || !ln.indented() {
					return nil
				}
				return amountRe.FindStringSubmatch(ln.text)
			},
			handle: handleCapitalContinuation,
		},
		{
			name: "fund-amount-line",
			match: func(ln line, st state) []string {
				if st.programID == "" {
					return nil
				}
				return amountRe.FindStringSubmatch(ln.text)
			},
			handle: handleAmountLine,
		},
		{
			name: "operating-header",
			match: func(ln line, st state) []string {
				return operatingRe.FindStringSubmatch(ln.text)
			},
			handle: handleOperatingHeader,
		},
		{
			name: "section-header",
			match: func(ln line, st state) []string {
				return sectionRe.FindStringSubmatch(ln.text)
			},
			handle: handleSectionHeader,
		},
		{
			name: "trailing-amounts",
			match: func(ln line, st state) []string {
				if st.department == "" || st.programID == "" || st.section == "" {
					return nil
				}
				return trailingRe.FindStringSubmatch(ln.text)
			},
			handle: handleTrailingAmounts,
		},
	}
}

func handleCategory(p *Parser, ln line, g []string, st state, out *lineResult) state {
	st.category = domain.CategoryName(g[1])
	return st
}

// handleProgram starts a new program block. The section resets because an
// appropriation before the next OPERATING or INVESTMENT CAPITAL keyword
// has no section to belong to.
func handleProgram(p *Parser, ln line, g []string, st state, out *lineResult) state {
	st.programID = g[2]
	st.programName = strings.TrimSpace(g[3])
	st.department = domain.DepartmentCodeOf(st.programID)
	st.section = ""
	return st
}

// handleCapitalHeader consumes an INVESTMENT CAPITAL header carrying
// inline amounts. Those amounts predate any program attribution, so they
// book under the capital-improvement placeholder program with the
// department named on the line itself.
func handleCapitalHeader(p *Parser, ln line, g []string, st state, out *lineResult) state {
	st.section = sectionTokenCapital
	p.emitPair(out, ln, emitSpec{
		programID:   CapitalProgramID,
		programName: CapitalProgramName,
		department:  g[1],
		section:     domain.SectionCapitalImprovement,
		category:    st.category,
		pair:        pairFromGroups(g, 2),
		inline:      true,
	})
	return st
}

func handleCapitalContinuation(p *Parser, ln line, g []string, st state, out *lineResult) state {
	p.emitPair(out, ln, emitSpec{
		programID:   st.programID,
		programName: st.programName,
		department:  st.department,
		section:     domain.SectionCapitalImprovement,
		category:    st.category,
		pair:        pairFromGroups(g, 2),
	})
	return st
}

// handleAmountLine consumes a department-prefixed amount line inside a
// program block. The department token on the line is an anchor only; the
// record carries the context department so county and agency rows stay
// attributed to the program that owns them.
func handleAmountLine(p *Parser, ln line, g []string, st state, out *lineResult) state {
	p.emitPair(out, ln, emitSpec{
		programID:   st.programID,
		programName: st.programName,
		department:  st.department,
		section:     sectionOf(st),
		category:    st.category,
		pair:        pairFromGroups(g, 2),
	})
	return st
}

func handleOperatingHeader(p *Parser, ln line, g []string, st state, out *lineResult) state {
	st.section = sectionTokenOperating
	if g[1] == "" {
		return st
	}
	if st.programID == "" {
		p.warnf(out, ln.number, "operating header carries amounts before any program")
		return st
	}
	p.emitPair(out, ln, emitSpec{
		programID:   st.programID,
		programName: st.programName,
		department:  st.department,
		section:     domain.SectionOperating,
		category:    st.category,
		pair:        pairFromGroups(g, 2),
		inline:      true,
	})
	return st
}

func handleSectionHeader(p *Parser, ln line, g []string, st state, out *lineResult) state {
	if strings.HasPrefix(g[1], "INVESTMENT") {
		st.section = sectionTokenCapital
	} else {
		st.section = sectionTokenOperating
	}
	return st
}

func handleTrailingAmounts(p *Parser, ln line, g []string, st state, out *lineResult) state {
	p.emitPair(out, ln, emitSpec{
		programID:   st.programID,
		programName: st.programName,
		department:  st.department,
		section:     sectionOf(st),
		category:    st.category,
		pair:        pairFromGroups(g, 2),
	})
	return st
}

// sectionOf resolves the domain section for an emission happening under
// the current context.
func sectionOf(st state) domain.Section {
	if strings.Contains(st.section, "INVESTMENT") {
		return domain.SectionCapitalImprovement
	}
	return domain.SectionOperating
}
