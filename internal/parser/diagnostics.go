package parser

import "fmt"

// DiagLevel classifies the severity of a Diagnostic.
type DiagLevel string

const (
	LevelInfo DiagLevel = "info"
	LevelWarn DiagLevel = "warning"
)

// Diagnostic records one noteworthy event observed while processing a
// document, tied to the source line that caused it. Line is 1-based and
// zero for events not attributable to a single line.
type Diagnostic struct {
	Level   DiagLevel `json:"level"`
	Line    int       `json:"line,omitempty"`
	Message string    `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", d.Level, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Level, d.Message)
}

// Warnings filters a diagnostic list down to warning-level entries.
func Warnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Level == LevelWarn {
			out = append(out, d)
		}
	}
	return out
}
