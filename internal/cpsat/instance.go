// Package cpsat 实现排班引擎的 CP-SAT 求解核心：变量构建、硬约束编译、
// 软目标编译、求解驱动与结果分析。
package cpsat

import (
	"fmt"
	"strconv"

	"github.com/paiban/rosterplan/pkg/model"
)

// OptimizationMode 求解耗时预算模式
type OptimizationMode string

const (
	ModeQuick   OptimizationMode = "quick"
	ModeOptimal OptimizationMode = "optimal"
	ModeCustom  OptimizationMode = "custom"
)

const (
	quickTimeLimitSeconds   = 30
	optimalTimeLimitSeconds = 300
	minCustomTimeLimit      = 5
	maxCustomTimeLimit      = 600
)

// SolveRequest 是一次求解调用的完整输入
type SolveRequest struct {
	Employees        []model.Employee
	Shifts           []model.Shift
	Days             []string
	Rules            []model.Rule
	Availability     model.AvailabilityMap
	FixedAssignments []model.FixedAssignment
	OptimizationMode OptimizationMode
	TimeLimit        float64 // 仅在 OptimizationMode == custom 时生效
}

// ProblemInstance 是输入归一化之后、供后续编译阶段使用的内部问题实例。
// 一次求解调用构建一个 ProblemInstance，编译完成后不再修改。
type ProblemInstance struct {
	Employees        []model.Employee
	EmployeeByName   map[string]*model.Employee // by initials
	Shifts           []model.Shift
	ShiftByName      map[string]*model.Shift
	Days             []string
	DayIndex         map[string]int // day token -> position in Days
	Rules            []model.Rule
	Availability     model.AvailabilityMap
	FixedAssignments []model.FixedAssignment
	TimeLimitSeconds float64
}

// Normalize 校验请求并构建 ProblemInstance。错误文本与原始实现保持一致，
// 便于上游调用方按精确字符串匹配。
func Normalize(req SolveRequest) (*ProblemInstance, []string) {
	var errs []string

	if len(req.Employees) == 0 {
		errs = append(errs, "No employees provided")
	}
	if len(req.Shifts) == 0 {
		errs = append(errs, "No shifts provided")
	}
	if len(req.Days) == 0 {
		errs = append(errs, "No days provided")
	}

	for i, e := range req.Employees {
		if e.Initials == "" {
			errs = append(errs, fmt.Sprintf("Employee %d missing initials", i))
		}
		if e.Name == "" {
			errs = append(errs, fmt.Sprintf("Employee %d missing name", i))
		}
	}

	for i, s := range req.Shifts {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("Shift %d missing name", i))
		}
	}

	for _, fa := range req.FixedAssignments {
		if fa.EmployeeInitials == "" || fa.Day == "" || fa.ShiftName == "" {
			errs = append(errs, fmt.Sprintf("Invalid fixed assignment: %+v", fa))
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	inst := &ProblemInstance{
		Employees:        req.Employees,
		EmployeeByName:   make(map[string]*model.Employee, len(req.Employees)),
		Shifts:           req.Shifts,
		ShiftByName:      make(map[string]*model.Shift, len(req.Shifts)),
		Days:             req.Days,
		DayIndex:         make(map[string]int, len(req.Days)),
		Rules:            req.Rules,
		Availability:     req.Availability,
		FixedAssignments: req.FixedAssignments,
		TimeLimitSeconds: resolveTimeLimit(req.OptimizationMode, req.TimeLimit),
	}

	for i := range inst.Employees {
		inst.EmployeeByName[inst.Employees[i].Initials] = &inst.Employees[i]
	}
	for i := range inst.Shifts {
		inst.ShiftByName[inst.Shifts[i].Name] = &inst.Shifts[i]
	}
	for i, d := range inst.Days {
		inst.DayIndex[d] = i
	}

	return inst, nil
}

// resolveTimeLimit 将优化模式映射为求解耗时预算（秒）
func resolveTimeLimit(mode OptimizationMode, custom float64) float64 {
	switch mode {
	case ModeQuick:
		return quickTimeLimitSeconds
	case ModeCustom:
		if custom < minCustomTimeLimit {
			return minCustomTimeLimit
		}
		if custom > maxCustomTimeLimit {
			return maxCustomTimeLimit
		}
		return custom
	default:
		return optimalTimeLimitSeconds
	}
}

// dayOrdinal 把一个日期 token 解析为整数；解析失败时退化为其在序列中的位置。
// 日期始终是不透明 token，周末/相邻关系只依赖这个整数。
func dayOrdinal(inst *ProblemInstance, day string) int {
	if n, err := strconv.Atoi(day); err == nil {
		return n
	}
	if idx, ok := inst.DayIndex[day]; ok {
		return idx
	}
	return 0
}

// isWeekend 判断某天是否属于周末：day_num % 7 in {0, 6}
func isWeekend(dayNum int) bool {
	m := dayNum % 7
	return m == 0 || m == 6
}

// isSunday 判断某天是否为周日的简化启发式：day_num % 7 == 0
func isSunday(dayNum int) bool {
	return dayNum%7 == 0
}

// isSaturday 判断某天是否为周六的简化启发式：(day_num - 1) % 7 == 5
func isSaturday(dayNum int) bool {
	m := (dayNum - 1) % 7
	if m < 0 {
		m += 7
	}
	return m == 5
}
