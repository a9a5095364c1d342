package domain

import "testing"

func TestParseFundType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FundType
	}{
		{"general letter", "A", FundGeneral},
		{"lowercase letter", "b", FundSpecial},
		{"bond letter", "C", FundGeneralObligationBond},
		{"trust letter", "T", FundTrust},
		{"revolving letter", "W", FundRevolving},
		{"arp letter", "V", FundARP},
		{"unknown letter", "Q", FundUnknown},
		{"empty", "", FundUnknown},
		{"whitespace", "   ", FundUnknown},
		{"full name", "General Funds", FundGeneral},
		{"full name case insensitive", "trust funds", FundTrust},
		{"partial name", "Revolving", FundRevolving},
		{"partial name federal", "Federal Funds", FundFederal},
		{"garbage", "not a fund", FundUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFundType(tt.input); got != tt.want {
				t.Errorf("ParseFundType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFundTypeLabel(t *testing.T) {
	tests := []struct {
		fund FundType
		want string
	}{
		{FundGeneral, "General Funds"},
		{FundSpecial, "Special Funds"},
		{FundGeneralObligationBond, "General Obligation Bond Fund"},
		{FundFederal, "Federal Funds"},
		{FundInterdepartmental, "Interdepartmental Transfers"},
		{FundUnknown, "Uncategorized Funds"},
		{FundType("?"), "Uncategorized Funds"},
	}

	for _, tt := range tests {
		if got := tt.fund.Label(); got != tt.want {
			t.Errorf("FundType(%q).Label() = %q, want %q", tt.fund, got, tt.want)
		}
	}
}

func TestFundTypeKnown(t *testing.T) {
	if !FundGeneral.Known() {
		t.Error("FundGeneral.Known() = false, want true")
	}
	if FundUnknown.Known() {
		t.Error("FundUnknown.Known() = true, want false")
	}
	if FundType("?").Known() {
		t.Error(`FundType("?").Known() = true, want false`)
	}
}

func TestFundTypesCoverAllLetters(t *testing.T) {
	if len(FundTypes) != len(fundLabels) {
		t.Errorf("FundTypes has %d entries, fundLabels has %d", len(FundTypes), len(fundLabels))
	}
	for _, ft := range FundTypes {
		if _, ok := fundLabels[ft]; !ok {
			t.Errorf("fund type %q has no label", ft)
		}
	}
}
