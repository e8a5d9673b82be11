package cpsat

import (
	"testing"

	"github.com/paiban/rosterplan/pkg/model"
)

func TestNormalize_NoEmployees(t *testing.T) {
	req := SolveRequest{
		Shifts: []model.Shift{{Name: "Früh"}},
		Days:   []string{"1"},
	}
	_, errs := Normalize(req)
	if len(errs) == 0 {
		t.Fatalf("expected validation errors")
	}
	if errs[0] != "No employees provided" {
		t.Fatalf("expected %q, got %q", "No employees provided", errs[0])
	}
}

func TestNormalize_NoShifts(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{{Initials: "AM", Name: "员工1"}},
		Days:      []string{"1"},
	}
	_, errs := Normalize(req)
	if len(errs) == 0 || errs[0] != "No shifts provided" {
		t.Fatalf("expected %q, got %v", "No shifts provided", errs)
	}
}

func TestNormalize_NoDays(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{{Initials: "AM", Name: "员工1"}},
		Shifts:    []model.Shift{{Name: "Früh"}},
	}
	_, errs := Normalize(req)
	if len(errs) == 0 || errs[0] != "No days provided" {
		t.Fatalf("expected %q, got %v", "No days provided", errs)
	}
}

func TestNormalize_InvalidFixedAssignment(t *testing.T) {
	req := SolveRequest{
		Employees:        []model.Employee{{Initials: "AM", Name: "员工1"}},
		Shifts:           []model.Shift{{Name: "Früh"}},
		Days:             []string{"1"},
		FixedAssignments: []model.FixedAssignment{{EmployeeInitials: "AM", Day: "", ShiftName: "Früh"}},
	}
	_, errs := Normalize(req)
	if len(errs) == 0 {
		t.Fatalf("expected validation error for incomplete fixed assignment")
	}
}

func TestNormalize_Valid(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{{Initials: "AM", Name: "员工1"}},
		Shifts:    []model.Shift{{Name: "Früh"}},
		Days:      []string{"1", "2"},
	}
	inst, errs := Normalize(req)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if inst.EmployeeByName["AM"] == nil {
		t.Fatalf("expected employee AM to be indexed")
	}
	if inst.ShiftByName["Früh"] == nil {
		t.Fatalf("expected shift Früh to be indexed")
	}
	if inst.DayIndex["2"] != 1 {
		t.Fatalf("expected day 2 at index 1, got %d", inst.DayIndex["2"])
	}
}

func TestResolveTimeLimit(t *testing.T) {
	cases := []struct {
		mode   OptimizationMode
		custom float64
		want   float64
	}{
		{ModeQuick, 0, quickTimeLimitSeconds},
		{ModeOptimal, 0, optimalTimeLimitSeconds},
		{ModeCustom, 1, minCustomTimeLimit},
		{ModeCustom, 9999, maxCustomTimeLimit},
		{ModeCustom, 60, 60},
	}
	for _, c := range cases {
		if got := resolveTimeLimit(c.mode, c.custom); got != c.want {
			t.Errorf("resolveTimeLimit(%v, %v) = %v, want %v", c.mode, c.custom, got, c.want)
		}
	}
}

func TestIsWeekend(t *testing.T) {
	cases := map[int]bool{0: true, 1: false, 5: false, 6: true, 7: true, 13: true, 14: true}
	for dayNum, want := range cases {
		if got := isWeekend(dayNum); got != want {
			t.Errorf("isWeekend(%d) = %v, want %v", dayNum, got, want)
		}
	}
}
