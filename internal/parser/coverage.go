package parser

import (
	"regexp"
	"strings"
)

// monetaryRes recognizes lines that look like they carry dollar figures:
// comma-grouped amounts with a fund letter, long undelimited digit runs,
// and dollar-sign totals.
var monetaryRes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+[A-Z]\b`),
	regexp.MustCompile(`\b\d{6,}[A-Z]?\b`),
	regexp.MustCompile(`\$\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?[A-Z]?\b`),
}

// MissedLine is a monetary-looking line no matcher claimed.
type MissedLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// CoverageReport summarizes how much of a document's monetary content
// the parser accounted for. A consumed line counts as covered even when
// it emitted no records, since zero amounts and nil letters are
// deliberate skips.
type CoverageReport struct {
	TotalLines    int          `json:"total_lines"`
	MonetaryLines int          `json:"monetary_lines"`
	CoveredLines  int          `json:"covered_lines"`
	Missed        []MissedLine `json:"missed,omitempty"`
}

// Ratio returns covered monetary lines as a percentage. A document with
// no monetary lines is fully covered.
func (r CoverageReport) Ratio() float64 {
	if r.MonetaryLines == 0 {
		return 100
	}
	return float64(r.CoveredLines) / float64(r.MonetaryLines) * 100
}

// CheckCoverage audits a parse result against the document it came
// from, flagging monetary lines the matcher table never touched. It is
// the safety net for bill layouts the patterns do not anticipate.
func CheckCoverage(text string, res *Result) CoverageReport {
	report := CoverageReport{}
	for i, raw := range strings.Split(text, "\n") {
		report.TotalLines++
		ln := strings.TrimSpace(raw)
		if ln == "" || !looksMonetary(ln) {
			continue
		}
		report.MonetaryLines++
		if _, ok := res.Consumed[i+1]; ok {
			report.CoveredLines++
			continue
		}
		report.Missed = append(report.Missed, MissedLine{Number: i + 1, Text: ln})
	}
	return report
}

func looksMonetary(ln string) bool {
	for _, re := range monetaryRes {
		if re.MatchString(ln) {
			return true
		}
	}
	return false
}
