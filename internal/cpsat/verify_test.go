package cpsat

import (
	"testing"

	"github.com/paiban/rosterplan/pkg/model"
)

func buildVerifyInstance(t *testing.T) *ProblemInstance {
	t.Helper()
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2", Qualifications: []string{"Facharzt"}},
			{Initials: "KT", Name: "员工3"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00", Requirements: []string{"Min. 1"}},
			{Name: "Nacht", TimeStart: "22:00", TimeEnd: "06:00", Requirements: []string{"Facharzt"}},
		},
		Days: []string{"1", "2"},
		FixedAssignments: []model.FixedAssignment{
			{EmployeeInitials: "AM", Day: "1", ShiftName: "Früh"},
		},
		Availability: model.AvailabilityMap{
			"AM": {"2": "krank"},
		},
		OptimizationMode: ModeQuick,
	}
	inst, errs := Normalize(req)
	if len(errs) > 0 {
		t.Fatalf("unexpected normalize errors: %v", errs)
	}
	return inst
}

// TestVerify_CleanSolutionHasNoViolations 一个完全自洽的解不应触发任何复核失败
func TestVerify_CleanSolutionHasNoViolations(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Früh"},
		{Employee: "PS", Day: "1", Shift: "Nacht"},
		{Employee: "KT", Day: "2", Shift: "Früh"},
		{Employee: "PS", Day: "2", Shift: "Nacht"},
	}
	if got := Verify(inst, assignments); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

// TestVerify_DetectsExclusivityViolation 同一员工同一天被赋值多个班次
func TestVerify_DetectsExclusivityViolation(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Früh"},
		{Employee: "AM", Day: "1", Shift: "Nacht"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "exclusivity") {
		t.Fatalf("expected an exclusivity violation, got %+v", violations)
	}
}

// TestVerify_DetectsCoverageShortfall Früh 在 day 2 要求至少 1 人，但这里无人赋值
func TestVerify_DetectsCoverageShortfall(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Früh"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "coverage") {
		t.Fatalf("expected a coverage violation for day 2 Früh, got %+v", violations)
	}
}

// TestVerify_DetectsQualificationViolation AM 不具备 Facharzt 资质却被排到 Nacht
func TestVerify_DetectsQualificationViolation(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Nacht"},
		{Employee: "PS", Day: "2", Shift: "Früh"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "qualification") {
		t.Fatalf("expected a qualification violation, got %+v", violations)
	}
}

// TestVerify_DetectsAvailabilityViolation AM 在 day 2 标记为不可用却被赋值
func TestVerify_DetectsAvailabilityViolation(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Früh"},
		{Employee: "AM", Day: "2", Shift: "Früh"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "availability") {
		t.Fatalf("expected an availability violation, got %+v", violations)
	}
}

// TestVerify_DetectsMissingFixedAssignment 固定指派 AM/1/Früh 在解中缺失
func TestVerify_DetectsMissingFixedAssignment(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "PS", Day: "2", Shift: "Nacht"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "fixed_assignment") {
		t.Fatalf("expected a fixed_assignment violation, got %+v", violations)
	}
}

// TestVerify_DetectsRestViolation day1 晚班紧跟 day2 早班，违反 11 小时休息
func TestVerify_DetectsRestViolation(t *testing.T) {
	inst := buildVerifyInstance(t)
	assignments := []model.Assignment{
		{Employee: "PS", Day: "1", Shift: "Nacht"},
		{Employee: "PS", Day: "2", Shift: "Früh"},
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "rest") {
		t.Fatalf("expected a rest violation, got %+v", violations)
	}
}

// TestVerify_DetectsWeeklyHoursViolation 在同一个 7 天窗口内堆出超过 48 小时
func TestVerify_DetectsWeeklyHoursViolation(t *testing.T) {
	inst := &ProblemInstance{
		Employees:   []model.Employee{{Initials: "AM", Name: "员工1"}},
		ShiftByName: map[string]*model.Shift{},
		Days:        []string{"1", "2", "3", "4", "5"},
	}
	lang := &model.Shift{Name: "Lang", TimeStart: "06:00", TimeEnd: "18:00"} // 12h
	inst.ShiftByName["Lang"] = lang

	var assignments []model.Assignment
	for _, day := range inst.Days {
		assignments = append(assignments, model.Assignment{Employee: "AM", Day: day, Shift: "Lang"})
	}
	violations := Verify(inst, assignments)
	if !hasViolation(violations, "weekly_hours") {
		t.Fatalf("expected a weekly_hours violation (5*12h=60h > 48h cap), got %+v", violations)
	}
}

func hasViolation(violations []Violation, rule string) bool {
	for _, v := range violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
