package cpsat

import (
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/paiban/rosterplan/pkg/model"
)

// CompileHardConstraints 编译全部硬约束：覆盖、互斥、休息、周工时、资质、
// 固定排班、可用性以及自由文本自定义硬规则。
func CompileHardConstraints(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	compileCoverage(cp, inst, vars)
	compileExclusivity(cp, inst, vars)
	compileRest(cp, inst, vars)
	compileWeeklyHours(cp, inst, vars)
	compileQualificationGating(cp, inst, vars)
	compileFixedAssignments(cp, inst, vars)
	compileAvailability(cp, inst, vars)
	compileCustomHardRules(cp, inst, vars)
}

// compileCoverage 保证每个 (day, shift) 至少有 minRequired(shift) 名员工在岗
func compileCoverage(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for _, day := range inst.Days {
		for _, shift := range inst.Shifts {
			var terms []cpmodel.LinearArgument
			for _, emp := range inst.Employees {
				if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
					terms = append(terms, v)
				}
			}
			if len(terms) == 0 {
				continue
			}
			required := int64(minRequired(shift.Requirements))
			expr := cpmodel.NewLinearExpr().AddSum(terms...)
			cp.AddLinearConstraint(expr, required, int64(len(terms)))
		}
	}
}

// compileExclusivity 保证每个 (employee, day) 至多一个班次变量为真
func compileExclusivity(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for _, emp := range inst.Employees {
		for _, day := range inst.Days {
			var bvs []cpmodel.BoolVar
			for _, shift := range inst.Shifts {
				if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
					bvs = append(bvs, v)
				}
			}
			if len(bvs) > 1 {
				cp.AddAtMostOne(bvs...)
			}
		}
	}
}

// compileRest 保证相邻两天之间晚班与早班不会同时出现（11小时休息）
func compileRest(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for i := 0; i+1 < len(inst.Days); i++ {
		dayA, dayB := inst.Days[i], inst.Days[i+1]
		for _, emp := range inst.Employees {
			for _, late := range inst.Shifts {
				if !isLateShift(late.Time()) {
					continue
				}
				lateVar, ok := vars.Get(emp.Initials, dayA, late.Name)
				if !ok {
					continue
				}
				for _, early := range inst.Shifts {
					if !isEarlyShift(early.Time()) {
						continue
					}
					earlyVar, ok := vars.Get(emp.Initials, dayB, early.Name)
					if !ok {
						continue
					}
					cp.AddAtMostOne(lateVar, earlyVar)
				}
			}
		}
	}
}

// compileWeeklyHours 保证每个员工在每个固定 7 天窗口内工作时长不超过 48 小时
func compileWeeklyHours(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for start := 0; start < len(inst.Days); start += 7 {
		end := start + 7
		if end > len(inst.Days) {
			end = len(inst.Days)
		}
		window := inst.Days[start:end]

		for _, emp := range inst.Employees {
			var terms []cpmodel.LinearArgument
			var coeffs []int64
			for _, day := range window {
				for _, shift := range inst.Shifts {
					v, ok := vars.Get(emp.Initials, day, shift.Name)
					if !ok {
						continue
					}
					terms = append(terms, v)
					coeffs = append(coeffs, int64(math.Round(shiftDurationHours(shift.Time()))))
				}
			}
			if len(terms) == 0 {
				continue
			}
			expr := cpmodel.NewLinearExpr().AddWeightedSum(terms, coeffs)
			cp.AddLinearConstraint(expr, 0, 48)
		}
	}
}

// compileQualificationGating 将缺乏所需资质的员工在对应班次上的变量钉死为 0
func compileQualificationGating(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for _, shift := range inst.Shifts {
		required := extractRequiredQualifications(shift.Requirements)
		if len(required) == 0 {
			continue
		}
		for _, emp := range inst.Employees {
			if emp.HasAllQualifications(required) {
				continue
			}
			for _, day := range inst.Days {
				if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
					pinFalse(cp, v)
				}
			}
		}
	}
}

// compileFixedAssignments 将固定指派对应的变量钉死为 1
func compileFixedAssignments(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for _, fa := range inst.FixedAssignments {
		if v, ok := vars.Get(fa.EmployeeInitials, fa.Day, fa.ShiftName); ok {
			pinTrue(cp, v)
		}
	}
}

// compileAvailability 将标记为不可用的 (employee, day) 对应的全部班次变量钉死为 0
func compileAvailability(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for initials, byDay := range inst.Availability {
		for day, code := range byDay {
			if !model.IsUnavailable(code) {
				continue
			}
			for _, shift := range inst.Shifts {
				if v, ok := vars.Get(initials, day, shift.Name); ok {
					pinFalse(cp, v)
				}
			}
		}
	}
}

// compileCustomHardRules 处理两类自由文本硬约束规则：禁止在特定日期/班次类型上班，
// 以及限制最大连续工作天数
func compileCustomHardRules(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	for _, rule := range inst.Rules {
		if rule.Type != model.RuleHard {
			continue
		}
		switch {
		case isNoWorkRule(rule.Text):
			compileNoWorkRule(cp, inst, vars, rule)
		case isConsecutiveDaysRule(rule.Text):
			compileMaxConsecutiveDaysRule(cp, inst, vars, rule)
		}
	}
}

func compileNoWorkRule(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, rule model.Rule) {
	selector := noWorkDaySelector(rule.Text)
	if selector == nil {
		return
	}
	for _, emp := range inst.Employees {
		if !matchesEmployee(rule.AppliesTo, emp.Name) {
			continue
		}
		for _, day := range inst.Days {
			if !selector(dayOrdinal(inst, day)) {
				continue
			}
			for _, shift := range inst.Shifts {
				if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
					pinFalse(cp, v)
				}
			}
		}
	}
}

// compileMaxConsecutiveDaysRule 对每个员工（不按 appliesTo 过滤）施加滑动窗口约束
func compileMaxConsecutiveDaysRule(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, rule model.Rule) {
	limit := extractFirstInt(rule.Text, 5)
	windowLen := limit + 1
	if windowLen > len(inst.Days) {
		return
	}

	for _, emp := range inst.Employees {
		working := workingIndicators(cp, inst, vars, emp.Initials)

		for start := 0; start+windowLen <= len(working); start++ {
			window := working[start : start+windowLen]
			expr := cpmodel.NewLinearExpr().AddSum(toLinearArgs(window)...)
			cp.AddLinearConstraint(expr, 0, int64(limit))
		}
	}
}

// workingIndicators 为某员工的每一天创建一个"当天是否工作"的辅助布尔变量
func workingIndicators(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, initials string) []cpmodel.BoolVar {
	indicators := make([]cpmodel.BoolVar, len(inst.Days))
	for i, day := range inst.Days {
		var dayVars []cpmodel.BoolVar
		for _, shift := range inst.Shifts {
			if v, ok := vars.Get(initials, day, shift.Name); ok {
				dayVars = append(dayVars, v)
			}
		}
		working := cp.NewBoolVar()
		if len(dayVars) == 0 {
			pinFalse(cp, working)
			indicators[i] = working
			continue
		}
		sum := cpmodel.NewLinearExpr().AddSum(toLinearArgs(dayVars)...)
		// working == 1 当且仅当该员工当天至少有一个班次变量为真（至多一个，由互斥约束保证）
		cp.AddEquality(sum, working)
		indicators[i] = working
	}
	return indicators
}

func toLinearArgs(bvs []cpmodel.BoolVar) []cpmodel.LinearArgument {
	args := make([]cpmodel.LinearArgument, len(bvs))
	for i, b := range bvs {
		args[i] = b
	}
	return args
}

func pinTrue(cp *cpmodel.Builder, v cpmodel.BoolVar) {
	cp.AddEquality(v, cp.NewConstant(1))
}

func pinFalse(cp *cpmodel.Builder, v cpmodel.BoolVar) {
	cp.AddEquality(v, cp.NewConstant(0))
}
