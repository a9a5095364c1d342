package domain

import "strings"

// Section identifies which part of the appropriations act a line item
// belongs to.
type Section string

const (
	// SectionOperating covers recurring operating appropriations.
	SectionOperating Section = "Operating"
	// SectionCapitalImprovement covers capital improvement (investment) projects.
	SectionCapitalImprovement Section = "Capital Improvement"
	// SectionOneTime covers one-time appropriations loaded from a
	// supplementary source rather than the bill text.
	SectionOneTime Section = "One-Time"
	// SectionUnspecified is the zero value before any section header has
	// been seen.
	SectionUnspecified Section = "Unspecified"
)

// ParseSection maps loose user input ("operating", "capital", "cip",
// "one-time") to a Section. Unrecognized input returns SectionUnspecified.
func ParseSection(s string) Section {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "operating", "op":
		return SectionOperating
	case "capital", "capital improvement", "capital_improvement", "cip", "investment", "investment capital":
		return SectionCapitalImprovement
	case "one-time", "onetime", "one_time":
		return SectionOneTime
	default:
		return SectionUnspecified
	}
}

// String implements fmt.Stringer.
func (s Section) String() string {
	return string(s)
}
