package analysis

import "github.com/dkagawa/budgetline/internal/domain"

// Filter returns the records for which keep is true, preserving order.
func Filter(records []domain.Allocation, keep func(domain.Allocation) bool) []domain.Allocation {
	var out []domain.Allocation
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ByFiscalYear keeps records of one fiscal year.
func ByFiscalYear(records []domain.Allocation, year int) []domain.Allocation {
	return Filter(records, func(r domain.Allocation) bool { return r.FiscalYear == year })
}

// BySection keeps records of one budget section.
func BySection(records []domain.Allocation, section domain.Section) []domain.Allocation {
	return Filter(records, func(r domain.Allocation) bool { return r.Section == section })
}

// ByDepartment keeps records of one department code.
func ByDepartment(records []domain.Allocation, code string) []domain.Allocation {
	return Filter(records, func(r domain.Allocation) bool { return r.DepartmentCode == code })
}

// ByFund keeps records financed by one fund type.
func ByFund(records []domain.Allocation, fund domain.FundType) []domain.Allocation {
	return Filter(records, func(r domain.Allocation) bool { return r.FundType == fund })
}
