package cpsat

import (
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/paiban/rosterplan/pkg/model"
)

const (
	weekendFairnessWeight  = 10
	workloadBalanceWeight  = 5
	demandingShiftWeight   = 3
	consecutiveDaysWeight  = 8
	consecutiveDaysFactor  = 10 // effective multiplier is weight*factor = 80, see objectives.py
)

// objectiveAccumulator 累积惩罚项与奖励项；最终目标是 minimize(Σ penalties − Σ rewards)
type objectiveAccumulator struct {
	cp       *cpmodel.Builder
	penalty  []cpmodel.LinearArgument
	penaltyW []int64
	reward   []cpmodel.LinearArgument
	rewardW  []int64
}

func newObjectiveAccumulator(cp *cpmodel.Builder) *objectiveAccumulator {
	return &objectiveAccumulator{cp: cp}
}

func (a *objectiveAccumulator) addPenalty(term cpmodel.LinearArgument, weight int64) {
	a.penalty = append(a.penalty, term)
	a.penaltyW = append(a.penaltyW, weight)
}

func (a *objectiveAccumulator) addReward(term cpmodel.LinearArgument, weight int64) {
	a.reward = append(a.reward, term)
	a.rewardW = append(a.rewardW, weight)
}

// finalize 构建 minimize(Σ penalties·w − Σ rewards·w) 并提交给求解器
func (a *objectiveAccumulator) finalize() {
	expr := cpmodel.NewLinearExpr()
	if len(a.penalty) > 0 {
		expr.AddWeightedSum(a.penalty, a.penaltyW)
	}
	negW := make([]int64, len(a.rewardW))
	for i, w := range a.rewardW {
		negW[i] = -w
	}
	if len(a.reward) > 0 {
		expr.AddWeightedSum(a.reward, negW)
	}
	a.cp.Minimize(expr)
}

// CompileObjective 编译全部软目标（周末公平性、工作量均衡、高强度班次分配、
// 连续工作天数惩罚、自定义软规则）并提交给求解器
func CompileObjective(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet) {
	acc := newObjectiveAccumulator(cp)

	compileWeekendFairness(cp, inst, vars, acc)
	compileWorkloadBalance(cp, inst, vars, acc)
	compileDemandingShiftDistribution(cp, inst, vars, acc)
	compileConsecutiveDaysPenalty(cp, inst, vars, acc)
	compileSoftCustomRules(cp, inst, vars, acc)

	acc.finalize()
}

// employeeCount 为某个员工创建一个整数变量，等于其满足 predicate 的 (day, shift) 组合数
func employeeCount(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, initials string, predicate func(day string, shift model.Shift) bool) cpmodel.IntVar {
	var terms []cpmodel.LinearArgument
	for _, day := range inst.Days {
		for _, shift := range inst.Shifts {
			if !predicate(day, shift) {
				continue
			}
			if v, ok := vars.Get(initials, day, shift.Name); ok {
				terms = append(terms, v)
			}
		}
	}
	count := cp.NewIntVar(0, int64(len(inst.Days)*len(inst.Shifts)))
	if len(terms) == 0 {
		cp.AddEquality(count, cp.NewConstant(0))
		return count
	}
	sum := cpmodel.NewLinearExpr().AddSum(terms...)
	cp.AddEquality(count, sum)
	return count
}

// addPairwiseAbsDiffPenalty 对每一对员工计数之间的绝对差加权计入惩罚
func addPairwiseAbsDiffPenalty(cp *cpmodel.Builder, acc *objectiveAccumulator, counts []cpmodel.IntVar, weight int64, maxBound int64) {
	for i := 0; i < len(counts); i++ {
		for j := i + 1; j < len(counts); j++ {
			diff := cpmodel.NewLinearExpr().AddTerm(counts[i], 1).AddTerm(counts[j], -1)
			absDiff := cp.NewIntVar(0, maxBound)
			cp.AddAbsEquality(absDiff, diff)
			acc.addPenalty(absDiff, weight)
		}
	}
}

// compileWeekendFairness 周末工作次数的两两绝对差，权重 10
func compileWeekendFairness(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator) {
	counts := make([]cpmodel.IntVar, len(inst.Employees))
	for i, emp := range inst.Employees {
		counts[i] = employeeCount(cp, inst, vars, emp.Initials, func(day string, shift model.Shift) bool {
			return isWeekend(dayOrdinal(inst, day))
		})
	}
	addPairwiseAbsDiffPenalty(cp, acc, counts, weekendFairnessWeight, int64(len(inst.Days)))
}

// compileWorkloadBalance 总工作量相对目标区间的超出/不足，权重 5
func compileWorkloadBalance(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator) {
	n := len(inst.Employees)
	if n == 0 {
		return
	}
	total := len(inst.Days) * len(inst.Shifts)
	minTarget := total / n
	maxTarget := minTarget
	if total%n != 0 {
		maxTarget = minTarget + 1
	}

	for _, emp := range inst.Employees {
		count := employeeCount(cp, inst, vars, emp.Initials, func(day string, shift model.Shift) bool { return true })

		under := cp.NewIntVar(0, int64(total))
		cp.AddMaxEquality(under, cpmodel.NewLinearExpr().AddConstant(0),
			cpmodel.NewLinearExpr().AddConstant(int64(minTarget)).AddTerm(count, -1))
		acc.addPenalty(under, workloadBalanceWeight)

		over := cp.NewIntVar(0, int64(total))
		cp.AddMaxEquality(over, cpmodel.NewLinearExpr().AddConstant(0),
			cpmodel.NewLinearExpr().AddTerm(count, 1).AddConstant(int64(-maxTarget)))
		acc.addPenalty(over, workloadBalanceWeight)
	}
}

// compileDemandingShiftDistribution 对每个高强度班次做两两绝对差，权重 3
func compileDemandingShiftDistribution(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator) {
	for _, shift := range inst.Shifts {
		if !isDemandingShift(shift.Name, shift.Time()) {
			continue
		}
		counts := make([]cpmodel.IntVar, len(inst.Employees))
		for i, emp := range inst.Employees {
			counts[i] = employeeCount(cp, inst, vars, emp.Initials, func(day string, s model.Shift) bool {
				return s.Name == shift.Name
			})
		}
		addPairwiseAbsDiffPenalty(cp, acc, counts, demandingShiftWeight, int64(len(inst.Days)))
	}
}

// compileConsecutiveDaysPenalty 连续 6 天工作的布尔惩罚，有效乘数 weight*factor = 80
func compileConsecutiveDaysPenalty(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator) {
	const windowLen = 6
	if len(inst.Days) < windowLen {
		return
	}

	for _, emp := range inst.Employees {
		working := workingIndicators(cp, inst, vars, emp.Initials)

		for start := 0; start+windowLen <= len(working); start++ {
			window := working[start : start+windowLen]
			all6 := cp.NewBoolVar()
			sum := cpmodel.NewLinearExpr().AddSum(toLinearArgs(window)...)
			// all6 <=> sum(window) == windowLen
			cp.AddEquality(sum, cpmodel.NewLinearExpr().AddTerm(all6, windowLen)).OnlyEnforceIf(all6)
			cp.AddLinearConstraint(sum, 0, windowLen-1).OnlyEnforceIf(all6.Not())

			acc.addPenalty(all6, consecutiveDaysWeight*consecutiveDaysFactor)
		}
	}
}

// compileSoftCustomRules 处理 bevorzugt（奖励）与 vermeiden（惩罚）两类自由文本软规则；
// 按照 _add_preference_reward/_add_avoidance_penalty 的行为，appliesTo=="all" 时规则不生效。
func compileSoftCustomRules(cp *cpmodel.Builder, inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator) {
	for _, rule := range inst.Rules {
		if rule.Type != model.RuleSoft {
			continue
		}
		switch {
		case isPreferenceRule(rule.Text):
			compilePreferenceReward(inst, vars, acc, rule)
		case isAvoidanceRule(rule.Text):
			compileAvoidancePenalty(inst, vars, acc, rule)
		}
	}
}

func compilePreferenceReward(inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator, rule model.Rule) {
	if rule.AppliesTo == "all" {
		return
	}
	emp := firstMatchingEmployee(inst, rule.AppliesTo)
	if emp == nil {
		return
	}
	weight := int64(ruleWeight())
	for _, day := range inst.Days {
		for _, shift := range inst.Shifts {
			if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
				acc.addReward(v, weight)
			}
		}
	}
}

func compileAvoidancePenalty(inst *ProblemInstance, vars VariableSet, acc *objectiveAccumulator, rule model.Rule) {
	if rule.AppliesTo == "all" {
		return
	}
	emp := firstMatchingEmployee(inst, rule.AppliesTo)
	if emp == nil {
		return
	}
	weight := int64(ruleWeight())
	for _, day := range inst.Days {
		for _, shift := range inst.Shifts {
			if !containsFold(rule.Text, shift.Name) {
				continue
			}
			if v, ok := vars.Get(emp.Initials, day, shift.Name); ok {
				acc.addPenalty(v, weight)
			}
		}
	}
}

func firstMatchingEmployee(inst *ProblemInstance, appliesTo string) *model.Employee {
	for i := range inst.Employees {
		if matchesEmployee(appliesTo, inst.Employees[i].Name) {
			return &inst.Employees[i]
		}
	}
	return nil
}
