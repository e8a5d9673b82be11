package model

import "testing"

func TestEmployee_HasQualification(t *testing.T) {
	e := &Employee{
		Qualifications: []string{"Facharzt", "Intensivmedizin", "Ultraschall-Zertifikat"},
	}

	tests := []struct {
		qual     string
		expected bool
	}{
		{"Facharzt", true},
		{"Intensivmedizin", true},
		{"Oberarzt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.qual, func(t *testing.T) {
			if result := e.HasQualification(tt.qual); result != tt.expected {
				t.Errorf("HasQualification(%s) = %v, expected %v", tt.qual, result, tt.expected)
			}
		})
	}
}

func TestEmployee_HasAllQualifications(t *testing.T) {
	e := &Employee{
		Qualifications: []string{"Facharzt", "Intensivmedizin"},
	}

	if !e.HasAllQualifications([]string{"Facharzt"}) {
		t.Error("应满足子集资质要求")
	}
	if !e.HasAllQualifications(nil) {
		t.Error("空要求应该总是满足")
	}
	if e.HasAllQualifications([]string{"Facharzt", "Chefarzt"}) {
		t.Error("缺少Chefarzt时不应满足")
	}
}

func TestContractType_Values(t *testing.T) {
	e := &Employee{Contract: ContractOnCall}
	if e.Contract != ContractType("on_call") {
		t.Errorf("期望 on_call，得到 %v", e.Contract)
	}
}
