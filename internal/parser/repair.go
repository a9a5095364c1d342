package parser

import (
	"regexp"
	"strings"
)

var (
	wordEndRe   = regexp.MustCompile(`[A-Za-z0-9]\s*$`)
	wordStartRe = regexp.MustCompile(`^\s*[A-Za-z0-9]`)
)

// RepairLineBreaks rejoins lines that text extraction split mid-entry,
// such as a program name carried onto a second line or an amount column
// separated from its row. A line is folded into its predecessor when the
// predecessor ends in a word character and the line starts with one.
// The heuristic is deliberately aggressive and will glue adjacent rows
// of a well-formed document, so it is applied only on request, never as
// part of the normal parse.
func RepairLineBreaks(text string) string {
	var fixed []string
	for _, raw := range strings.Split(text, "\n") {
		ln := strings.TrimSpace(raw)
		if len(fixed) == 0 {
			if ln != "" {
				fixed = append(fixed, ln)
			}
			continue
		}
		prev := fixed[len(fixed)-1]
		if ln != "" && prev != "" && wordEndRe.MatchString(prev) && wordStartRe.MatchString(ln) {
			fixed[len(fixed)-1] = prev + " " + ln
			continue
		}
		fixed = append(fixed, ln)
	}
	return strings.Join(fixed, "\n")
}
