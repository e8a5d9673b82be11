package cpsat

import (
	"fmt"

	"github.com/paiban/rosterplan/pkg/model"
)

// Violation 描述一次不变量校验失败
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Verify 对一个已提取的排班结果独立复核通用不变量（覆盖、互斥、资质、
// 可用性、固定排班、休息时间、周工时）。
// CP-SAT 本身已经保证这些性质对其返回的任何解成立；这里的复核是一道独立
// 防线，用于捕获编译阶段的实现缺陷（例如变量遗漏、系数算错）。
func Verify(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	var violations []Violation

	violations = append(violations, checkExclusivity(assignments)...)
	violations = append(violations, checkCoverage(inst, assignments)...)
	violations = append(violations, checkQualifications(inst, assignments)...)
	violations = append(violations, checkAvailability(inst, assignments)...)
	violations = append(violations, checkFixedAssignments(inst, assignments)...)
	violations = append(violations, checkRest(inst, assignments)...)
	violations = append(violations, checkWeeklyHours(inst, assignments)...)

	return violations
}

type empDay struct{ employee, day string }

func checkExclusivity(assignments []model.Assignment) []Violation {
	seen := make(map[empDay]int)
	for _, a := range assignments {
		seen[empDay{a.Employee, a.Day}]++
	}
	var violations []Violation
	for k, n := range seen {
		if n > 1 {
			violations = append(violations, Violation{
				Rule:    "exclusivity",
				Message: fmt.Sprintf("employee %s has %d shifts on day %s", k.employee, n, k.day),
			})
		}
	}
	return violations
}

func checkCoverage(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	coverage := AnalyzeCoverage(inst, assignments)
	var violations []Violation
	for day, byShift := range coverage {
		for shift, entry := range byShift {
			if entry.Status == "understaffed" {
				violations = append(violations, Violation{
					Rule:    "coverage",
					Message: fmt.Sprintf("day %s shift %s assigned=%d required=%d", day, shift, entry.Assigned, entry.Required),
				})
			}
		}
	}
	return violations
}

func checkQualifications(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	var violations []Violation
	for _, a := range assignments {
		shift, ok := inst.ShiftByName[a.Shift]
		if !ok {
			continue
		}
		required := extractRequiredQualifications(shift.Requirements)
		if len(required) == 0 {
			continue
		}
		emp, ok := inst.EmployeeByName[a.Employee]
		if !ok || emp.HasAllQualifications(required) {
			continue
		}
		violations = append(violations, Violation{
			Rule:    "qualification",
			Message: fmt.Sprintf("employee %s assigned to %s on %s without required qualifications", a.Employee, a.Shift, a.Day),
		})
	}
	return violations
}

func checkAvailability(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	var violations []Violation
	for _, a := range assignments {
		byDay, ok := inst.Availability[a.Employee]
		if !ok {
			continue
		}
		code, ok := byDay[a.Day]
		if !ok || !model.IsUnavailable(code) {
			continue
		}
		violations = append(violations, Violation{
			Rule:    "availability",
			Message: fmt.Sprintf("employee %s assigned on unavailable day %s (%s)", a.Employee, a.Day, code),
		})
	}
	return violations
}

func checkFixedAssignments(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	present := make(map[VarKey]bool, len(assignments))
	for _, a := range assignments {
		present[VarKey{Initials: a.Employee, Day: a.Day, Shift: a.Shift}] = true
	}
	var violations []Violation
	for _, fa := range inst.FixedAssignments {
		key := VarKey{Initials: fa.EmployeeInitials, Day: fa.Day, Shift: fa.ShiftName}
		if !present[key] {
			violations = append(violations, Violation{
				Rule:    "fixed_assignment",
				Message: fmt.Sprintf("fixed assignment %+v not honored", fa),
			})
		}
	}
	return violations
}

func checkRest(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	byEmployeeDay := make(map[empDay]string, len(assignments))
	for _, a := range assignments {
		byEmployeeDay[empDay{a.Employee, a.Day}] = a.Shift
	}

	var violations []Violation
	for i := 0; i+1 < len(inst.Days); i++ {
		dayA, dayB := inst.Days[i], inst.Days[i+1]
		for _, emp := range inst.Employees {
			shiftA, okA := byEmployeeDay[empDay{emp.Initials, dayA}]
			shiftB, okB := byEmployeeDay[empDay{emp.Initials, dayB}]
			if !okA || !okB {
				continue
			}
			sA, okShiftA := inst.ShiftByName[shiftA]
			sB, okShiftB := inst.ShiftByName[shiftB]
			if !okShiftA || !okShiftB {
				continue
			}
			if isLateShift(sA.Time()) && isEarlyShift(sB.Time()) {
				violations = append(violations, Violation{
					Rule:    "rest",
					Message: fmt.Sprintf("employee %s has late shift on %s followed by early shift on %s", emp.Initials, dayA, dayB),
				})
			}
		}
	}
	return violations
}

func checkWeeklyHours(inst *ProblemInstance, assignments []model.Assignment) []Violation {
	hoursByEmployeeDay := make(map[empDay]float64, len(assignments))
	for _, a := range assignments {
		shift, ok := inst.ShiftByName[a.Shift]
		if !ok {
			continue
		}
		hoursByEmployeeDay[empDay{a.Employee, a.Day}] = shiftDurationHours(shift.Time())
	}

	var violations []Violation
	for start := 0; start < len(inst.Days); start += 7 {
		end := start + 7
		if end > len(inst.Days) {
			end = len(inst.Days)
		}
		window := inst.Days[start:end]

		for _, emp := range inst.Employees {
			var total float64
			for _, day := range window {
				total += hoursByEmployeeDay[empDay{emp.Initials, day}]
			}
			if total > 48 {
				violations = append(violations, Violation{
					Rule:    "weekly_hours",
					Message: fmt.Sprintf("employee %s exceeds 48h in window starting %s: %.1fh", emp.Initials, window[0], total),
				})
			}
		}
	}
	return violations
}
