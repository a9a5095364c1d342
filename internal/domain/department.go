package domain

import (
	"sort"
	"strings"
)

// departmentNames maps expenditure department codes to display names.
// The county codes appear only on capital improvement items.
var departmentNames = map[string]string{
	"AGR": "Department of Agriculture",
	"AGS": "Department of Accounting and General Services",
	"ATG": "Department of the Attorney General",
	"BED": "Department of Business, Economic Development and Tourism",
	"BUF": "Department of Budget and Finance",
	"CCA": "Department of Commerce and Consumer Affairs",
	"CCH": "City and County of Honolulu",
	"COH": "County of Hawaii",
	"COK": "County of Kauai",
	"DEF": "Department of Defense",
	"EDN": "Department of Education",
	"GOV": "Office of the Governor",
	"HHL": "Department of Hawaiian Home Lands",
	"HMS": "Department of Human Services",
	"HRD": "Department of Human Resources Development",
	"HTH": "Department of Health",
	"LAW": "Department of Law Enforcement",
	"LBR": "Department of Labor and Industrial Relations",
	"LNR": "Department of Land and Natural Resources",
	"LTG": "Office of the Lieutenant Governor",
	"P":   "Legislature",
	"PSD": "Department of Public Safety",
	"TAX": "Department of Taxation",
	"TRN": "Department of Transportation",
	"UOH": "University of Hawaii",
}

// DepartmentName resolves a department code to its display name, falling
// back to the code itself for codes not in the registry.
func DepartmentName(code string) string {
	if name, ok := departmentNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// DepartmentCodeOf derives the department code from a program id by taking
// its leading letters: "AGR100" → "AGR", "HTH" → "HTH".
func DepartmentCodeOf(programID string) string {
	i := 0
	for i < len(programID) {
		c := programID[i]
		if c < 'A' || c > 'Z' {
			break
		}
		i++
	}
	return programID[:i]
}

// DepartmentCodes returns every registered code in sorted order.
func DepartmentCodes() []string {
	codes := make([]string, 0, len(departmentNames))
	for code := range departmentNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
