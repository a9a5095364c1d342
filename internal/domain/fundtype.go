package domain

import "strings"

// FundType is the single-letter means-of-financing code that the bill
// attaches to each appropriation amount (the trailing letter in tokens
// like "1,500,000A").
type FundType string

const (
	FundGeneral               FundType = "A"
	FundSpecial               FundType = "B"
	FundGeneralObligationBond FundType = "C"
	FundGOBondSpecialRepaid   FundType = "D" // debt service paid from special funds
	FundRevenueBond           FundType = "E"
	FundFederalAidInterstate  FundType = "J"
	FundFederalAidPrimary     FundType = "K"
	FundFederalAidSecondary   FundType = "L"
	FundFederalAidUrban       FundType = "M"
	FundFederal               FundType = "N"
	FundOtherFederal          FundType = "P"
	FundPrivateContributions  FundType = "R"
	FundCounty                FundType = "S"
	FundTrust                 FundType = "T"
	FundInterdepartmental     FundType = "U"
	FundARP                   FundType = "V"
	FundRevolving             FundType = "W"
	FundOther                 FundType = "X"
	FundUnknown               FundType = "Z"
)

// fundLabels maps each code to its name in the official means-of-financing
// classification.
var fundLabels = map[FundType]string{
	FundGeneral:               "General Funds",
	FundSpecial:               "Special Funds",
	FundGeneralObligationBond: "General Obligation Bond Fund",
	FundGOBondSpecialRepaid:   "General Obligation Bond Fund with Debt Service Cost to be Paid from Special Funds",
	FundRevenueBond:           "Revenue Bond Funds",
	FundFederalAidInterstate:  "Federal Aid Interstate Funds",
	FundFederalAidPrimary:     "Federal Aid Primary Funds",
	FundFederalAidSecondary:   "Federal Aid Secondary Funds",
	FundFederalAidUrban:       "Federal Aid Urban Funds",
	FundFederal:               "Federal Funds",
	FundOtherFederal:          "Other Federal Funds",
	FundPrivateContributions:  "Private Contributions",
	FundCounty:                "County Funds",
	FundTrust:                 "Trust Funds",
	FundInterdepartmental:     "Interdepartmental Transfers",
	FundARP:                   "American Rescue Plan Funds",
	FundRevolving:             "Revolving Funds",
	FundOther:                 "Other Funds",
	FundUnknown:               "Uncategorized Funds",
}

// FundTypes lists every known code in letter order, FundUnknown last.
var FundTypes = []FundType{
	FundGeneral, FundSpecial, FundGeneralObligationBond, FundGOBondSpecialRepaid,
	FundRevenueBond, FundFederalAidInterstate, FundFederalAidPrimary,
	FundFederalAidSecondary, FundFederalAidUrban, FundFederal, FundOtherFederal,
	FundPrivateContributions, FundCounty, FundTrust, FundInterdepartmental,
	FundARP, FundRevolving, FundOther, FundUnknown,
}

// ParseFundType resolves a fund type from a single-letter code or a fund
// name. Empty or unrecognized input resolves to FundUnknown.
func ParseFundType(s string) FundType {
	s = strings.TrimSpace(s)
	if s == "" {
		return FundUnknown
	}

	if len(s) == 1 {
		ft := FundType(strings.ToUpper(s))
		if _, ok := fundLabels[ft]; ok {
			return ft
		}
		return FundUnknown
	}

	// Full or partial name, e.g. "General Funds", "trust", "revolving funds".
	for _, ft := range FundTypes {
		if strings.EqualFold(s, fundLabels[ft]) {
			return ft
		}
	}
	lower := strings.ToLower(s)
	for _, ft := range FundTypes {
		label := strings.ToLower(fundLabels[ft])
		if strings.HasPrefix(label, lower) || strings.Contains(label, lower) {
			return ft
		}
	}

	return FundUnknown
}

// Label returns the display name for the code ("A" → "General Funds").
func (f FundType) Label() string {
	if label, ok := fundLabels[f]; ok {
		return label
	}
	return fundLabels[FundUnknown]
}

// Known reports whether the fund type was resolved to a real code.
func (f FundType) Known() bool {
	_, ok := fundLabels[f]
	return ok && f != FundUnknown
}

// String implements fmt.Stringer.
func (f FundType) String() string {
	return string(f)
}
