// Package parser turns the plain-text appropriations bill into budget
// allocation records. A fixed, ordered matcher table classifies each
// line; a running context carries the current category, program and
// section between lines; and every monetary token that survives
// extraction becomes one domain.Allocation per fiscal year.
package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/domain"
)

// Config controls a Parser. The zero value is usable: it parses against
// the default biennium and logs nowhere.
type Config struct {
	Biennium domain.Biennium
	Logger   zerolog.Logger
}

// Parser extracts allocation records from normalized bill text. It is
// stateless across documents; all per-document context lives on the
// stack of Parse.
type Parser struct {
	cfg      Config
	matchers []matcher
}

// New builds a Parser from cfg, filling in the default biennium when none
// is given.
func New(cfg Config) *Parser {
	if cfg.Biennium == (domain.Biennium{}) {
		cfg.Biennium = domain.DefaultBiennium
	}
	return &Parser{cfg: cfg, matchers: newMatchers()}
}

// Result is the outcome of parsing one document. Records preserves
// document order. Consumed maps 1-based line numbers to the name of the
// matcher that claimed them, which the coverage checker uses to find
// monetary lines the parser never touched.
type Result struct {
	Records     []domain.Allocation
	Diagnostics []Diagnostic
	Consumed    map[int]string
	Lines       int
}

// Warnings returns the warning-level diagnostics of the run.
func (r *Result) Warnings() []Diagnostic {
	return Warnings(r.Diagnostics)
}

// Parse classifies every line of text and returns the extracted records
// together with the diagnostics raised along the way. Lines that fail
// extraction are reported and skipped; the running context survives so
// one bad line cannot sink the rest of the document. The input is
// expected to be Normalize'd.
func (p *Parser) Parse(text string) *Result {
	res := &Result{Consumed: make(map[int]string)}
	st := state{}
	lines := strings.Split(text, "\n")
	res.Lines = len(lines)
	for i, raw := range lines {
		ln := line{number: i + 1, raw: raw, text: strings.TrimSpace(raw)}
		if ln.text == "" {
			continue
		}
		var out lineResult
		next, name := p.classify(ln, st, &out)
		st = next
		if name != "" {
			res.Consumed[ln.number] = name
		}
		res.Records = append(res.Records, out.records...)
		res.Diagnostics = append(res.Diagnostics, out.diags...)
	}
	p.cfg.Logger.Info().
		Int("lines", res.Lines).
		Int("records", len(res.Records)).
		Int("warnings", len(res.Warnings())).
		Msg("document parsed")
	return res
}

// ParseFile reads, normalizes and parses the document at path.
func (p *Parser) ParseFile(path string) (*Result, error) {
	text, err := ReadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	return p.Parse(text), nil
}

// classify runs the matcher table against one line. It returns the
// updated context and the name of the matcher that consumed the line, or
// "" when nothing matched. Handlers may consume a line yet emit nothing,
// as with zero amounts and bare nil letters.
func (p *Parser) classify(ln line, st state, out *lineResult) (state, string) {
	for _, m := range p.matchers {
		if g := m.match(ln, st); g != nil {
			return m.handle(p, ln, g, st, out), m.name
		}
	}
	return st, ""
}
