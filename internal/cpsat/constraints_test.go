package cpsat

import (
	"testing"

	"github.com/paiban/rosterplan/pkg/model"
)

func solveOrFatal(t *testing.T, req SolveRequest) (*ProblemInstance, VariableSet, *SolveOutcome) {
	t.Helper()
	inst, errs := Normalize(req)
	if len(errs) > 0 {
		t.Fatalf("unexpected normalize errors: %v", errs)
	}
	vars, outcome, err := Solve(inst)
	if err != nil {
		t.Fatalf("solve returned error: %v", err)
	}
	return inst, vars, outcome
}

// TestCoverage_RequiredHeadcountMet 每个 (day, shift) 至少满足 requirements 里声明的最低人手
func TestCoverage_RequiredHeadcountMet(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00", Requirements: []string{"Min. 2"}},
		},
		Days:             []string{"1"},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	if len(assignments) != 2 {
		t.Fatalf("expected both employees assigned to meet min 2, got %d assignments", len(assignments))
	}
}

// TestExclusivity_AtMostOneShiftPerDay CP-SAT 解中每个员工每天至多一个班次
func TestExclusivity_AtMostOneShiftPerDay(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
			{Name: "Spät", TimeStart: "14:00", TimeEnd: "22:00"},
		},
		Days:             []string{"1", "2", "3"},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	perEmployeeDay := map[empDay]int{}
	for _, a := range assignments {
		perEmployeeDay[empDay{a.Employee, a.Day}]++
	}
	for k, n := range perEmployeeDay {
		if n > 1 {
			t.Errorf("day %s has %d shifts assigned to employee %s", k.day, n, k.employee)
		}
	}
}

// TestQualificationGating_UnqualifiedNeverAssignedToDemandingShift 缺乏资质的员工
// 在需要该资质的班次上的变量必须被钉死为 0，即便这会导致无解
func TestQualificationGating_UnqualifiedNeverAssignedToDemandingShift(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "PS", Name: "员工1"}, // 无资质
		},
		Shifts: []model.Shift{
			{Name: "Nacht", TimeStart: "22:00", TimeEnd: "06:00", Requirements: []string{"Facharzt"}},
		},
		Days:             []string{"1"},
		OptimizationMode: ModeQuick,
	}
	_, _, outcome := solveOrFatal(t, req)
	if outcome.Status != StatusInfeasible {
		t.Fatalf("expected infeasible solve (sole employee lacks required qualification), got %s", outcome.Status)
	}
}

// TestQualificationGating_QualifiedEmployeeCanFillDemandingShift 具备资质的员工可以被排入
func TestQualificationGating_QualifiedEmployeeCanFillDemandingShift(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1", Qualifications: []string{"Facharzt"}},
		},
		Shifts: []model.Shift{
			{Name: "Nacht", TimeStart: "22:00", TimeEnd: "06:00", Requirements: []string{"Facharzt"}},
		},
		Days:             []string{"1"},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	if len(assignments) != 1 || assignments[0].Employee != "AM" {
		t.Fatalf("expected AM assigned to Nacht, got %+v", assignments)
	}
}

// TestAvailability_UnavailableDayNeverAssigned 被标记为不可用的 (employee, day) 在任何班次上都不会被赋值
func TestAvailability_UnavailableDayNeverAssigned(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
		},
		Days: []string{"1"},
		Availability: model.AvailabilityMap{
			"AM": {"1": "krank"},
		},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	for _, a := range assignments {
		if a.Employee == "AM" && a.Day == "1" {
			t.Fatalf("employee AM assigned on day 1 despite being marked unavailable")
		}
	}
}

// TestFixedAssignment_PinnedVariableHonored 固定指派对应的变量必须在解中为真
func TestFixedAssignment_PinnedVariableHonored(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
		},
		Days: []string{"1"},
		FixedAssignments: []model.FixedAssignment{
			{EmployeeInitials: "PS", Day: "1", ShiftName: "Früh"},
		},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	found := false
	for _, a := range assignments {
		if a.Employee == "PS" && a.Day == "1" && a.Shift == "Früh" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fixed assignment PS/1/Früh honored, got %+v", assignments)
	}
}

// TestRest_NoLateShiftFollowedByEarlyShift 相邻两天不允许晚班紧跟早班（11小时休息）。
// 两个班次的最低人手都设为 0，这样覆盖约束不会强迫任何指派，唯一的压力来自休息
// 约束与 day1 的固定指派：如果 day2 的 Früh 也被指派，必然违反互斥前的休息窗口。
func TestRest_NoLateShiftFollowedByEarlyShift(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{{Initials: "AM", Name: "员工1"}},
		Shifts: []model.Shift{
			{Name: "Nacht", TimeStart: "22:00", TimeEnd: "06:00", Requirements: []string{"Min. 0"}},
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00", Requirements: []string{"Min. 0"}},
		},
		Days: []string{"1", "2"},
		FixedAssignments: []model.FixedAssignment{
			{EmployeeInitials: "AM", Day: "1", ShiftName: "Nacht"},
		},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	byDay := map[string]string{}
	for _, a := range assignments {
		byDay[a.Day] = a.Shift
	}
	if byDay["1"] != "Nacht" {
		t.Fatalf("expected fixed assignment Nacht on day 1 to be honored, got %+v", byDay)
	}
	if byDay["2"] == "Früh" {
		t.Fatalf("rest constraint violated: Nacht on day 1 followed by Früh on day 2")
	}
}

// TestWeeklyHours_CappedAt48 每个 7 天窗口内的总工时不得超过 48 小时。用 3 名员工
// 分担每天 1 人的最低需求，使覆盖约束与周工时约束不会天然互斥。
func TestWeeklyHours_CappedAt48(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
			{Initials: "KT", Name: "员工3"},
		},
		Shifts: []model.Shift{
			{Name: "Lang", TimeStart: "06:00", TimeEnd: "18:00"}, // 12h
		},
		Days:             []string{"1", "2", "3", "4", "5", "6", "7"},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	hoursByEmployee := map[string]float64{}
	for _, a := range assignments {
		hoursByEmployee[a.Employee] += 12
	}
	for emp, hours := range hoursByEmployee {
		if hours > 48 {
			t.Errorf("employee %s worked %.0fh in a single 7-day window, exceeds 48h cap", emp, hours)
		}
	}
}

// TestMaxConsecutiveDaysRule_AppliesToAllEmployeesRegardlessOfAppliesTo 回归测试：
// 最大连续工作天数规则必须约束全部员工，appliesTo 字段对它不生效（与 compileNoWorkRule
// 不同）。这里用唯一员工、coverage 强制其每天都要上班来触发：若该规则被错误地按
// appliesTo 过滤掉，模型会保持可行；修复后模型必须不可行。
func TestMaxConsecutiveDaysRule_AppliesToAllEmployeesRegardlessOfAppliesTo(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "ZZ", Name: "Other"},
		},
		Shifts: []model.Shift{
			{Name: "Tag", TimeStart: "08:00", TimeEnd: "16:00"},
		},
		Days: []string{"1", "2", "3"},
		Rules: []model.Rule{
			{
				Type:      model.RuleHard,
				Text:      "Mitarbeiter arbeitet höchstens 2 aufeinanderfolgende arbeitstage",
				AppliesTo: "AM", // 不匹配 "Other"
			},
		},
		OptimizationMode: ModeQuick,
	}
	_, _, outcome := solveOrFatal(t, req)
	if outcome.Status != StatusInfeasible {
		t.Fatalf("expected infeasible: sole employee must work all 3 days for coverage, "+
			"which exceeds the 2-day consecutive cap regardless of appliesTo; got %s", outcome.Status)
	}
}

// TestNoWorkRule_RespectsAppliesTo compileNoWorkRule 按 appliesTo 过滤，只约束命中的员工
func TestNoWorkRule_RespectsAppliesTo(t *testing.T) {
	req := SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "Anna Müller"},
			{Initials: "PS", Name: "Peter Schmidt"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
		},
		Days: []string{"6"}, // day_num 6 -> isSaturday ((6-1)%7==5)
		Rules: []model.Rule{
			{
				Type:      model.RuleHard,
				Text:      "Anna Müller arbeitet nicht am Samstag",
				AppliesTo: "Anna Müller",
			},
		},
		OptimizationMode: ModeQuick,
	}
	inst, vars, outcome := solveOrFatal(t, req)
	if !outcome.Status.IsSuccessful() {
		t.Fatalf("expected a feasible solve, got %s", outcome.Status)
	}
	assignments := ExtractSolution(inst, vars, outcome.Response)
	for _, a := range assignments {
		if a.Employee == "AM" && a.Day == "6" {
			t.Fatalf("employee AM assigned on day 6 despite a matching no-work rule")
		}
	}
}
