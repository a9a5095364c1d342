package domain

// categoryNames maps the single-letter part headings of the bill to the
// top-level budget category each part covers.
var categoryNames = map[string]string{
	"A": "Economic Development",
	"B": "Employment",
	"C": "Transportation",
	"D": "Environment",
	"E": "Health",
	"F": "Human Services",
	"G": "Formal Education",
	"H": "Culture and Recreation",
	"I": "Public Safety",
	"J": "Individual Rights",
	"K": "Government Operations",
}

// categoryOrder is the order the parts appear in the bill, used when
// sorting report output.
var categoryOrder = []string{
	"Economic Development", "Employment", "Transportation", "Environment",
	"Health", "Human Services", "Formal Education", "Culture and Recreation",
	"Public Safety", "Individual Rights", "Government Operations",
}

// UncategorizedLabel is assigned to records extracted before any category
// heading has been seen.
const UncategorizedLabel = "Uncategorized"

// CategoryName resolves a part letter ("A".."K") to its category name.
// Unknown letters resolve to "Other", matching how out-of-range headings
// were historically bucketed.
func CategoryName(letter string) string {
	if name, ok := categoryNames[letter]; ok {
		return name
	}
	return "Other"
}

// CategoryRank returns the position of a category name in bill order,
// for sorting. Names outside the canonical list sort last.
func CategoryRank(name string) int {
	for i, c := range categoryOrder {
		if c == name {
			return i
		}
	}
	return len(categoryOrder)
}

// Categories returns the canonical category names in bill order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}
