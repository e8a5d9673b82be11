package cpsat

import (
	"strings"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	"github.com/paiban/rosterplan/pkg/model"
)

// CoverageEntry 一个 (day, shift) 的覆盖情况
type CoverageEntry struct {
	Assigned int    `json:"assigned"`
	Required int    `json:"required"`
	Status   string `json:"status"` // "ok" | "understaffed"
}

// FairnessEntry 单个员工的公平性指标
type FairnessEntry struct {
	WeekendCount int `json:"weekend_count"`
	NightCount   int `json:"night_count"`
	TotalCount   int `json:"total_count"`
}

// FairnessMetrics 团队层面的公平性汇总
type FairnessMetrics struct {
	ByEmployee           map[string]FairnessEntry `json:"by_employee"`
	WeekendCountVariance float64                  `json:"weekend_count_variance"`
	NightCountVariance   float64                  `json:"night_count_variance"`
	TotalCountVariance   float64                  `json:"total_count_variance"`
}

// WorkloadEntry 单个员工的工作量指标
type WorkloadEntry struct {
	TotalShifts     int            `json:"total_shifts"`
	TotalHours      float64        `json:"total_hours"`
	CountByShift    map[string]int `json:"count_by_shift"`
	AvgHoursPerWeek float64        `json:"avg_hours_per_week"`
}

// ConstraintSummary 约束满足情况摘要
type ConstraintSummary struct {
	HardConstraintsSatisfied bool    `json:"hard_constraints_satisfied"`
	ObjectiveValue           float64 `json:"objective_value"`
	NumConflicts             int64   `json:"num_conflicts"`
	NumBranches              int64   `json:"num_branches"`
	WallTimeSeconds          float64 `json:"wall_time_seconds"`
}

// SolutionAnalysis 求解结果的完整分析
type SolutionAnalysis struct {
	Coverage   map[string]map[string]CoverageEntry `json:"coverage"` // day -> shift -> entry
	Fairness   FairnessMetrics                      `json:"fairness"`
	Workload   map[string]WorkloadEntry             `json:"workload"`
	Constraint ConstraintSummary                    `json:"constraint_summary"`
}

// ExtractSolution 从求解响应中提取所有赋值
func ExtractSolution(inst *ProblemInstance, vars VariableSet, resp *cmpb.CpSolverResponse) []model.Assignment {
	var assignments []model.Assignment
	for _, emp := range inst.Employees {
		for _, day := range inst.Days {
			for _, shift := range inst.Shifts {
				v, ok := vars.Get(emp.Initials, day, shift.Name)
				if !ok {
					continue
				}
				if !cpmodel.SolutionBooleanValue(resp, v) {
					continue
				}
				assignments = append(assignments, model.Assignment{
					Employee: emp.Initials,
					Day:      day,
					Shift:    shift.Name,
					Station:  stationFor(shift),
				})
			}
		}
	}
	return assignments
}

// stationFor 返回班次的工位标签：station，缺省 category，再缺省 "Unknown"
func stationFor(shift model.Shift) string {
	if shift.Station != "" {
		return shift.Station
	}
	if shift.Category != "" {
		return shift.Category
	}
	return "Unknown"
}

// BuildPivot 构建 initials -> day -> cell 的排班透视表。cell 的 Locked/Violation
// 恒为 false，分析器本身从不置位，消费方需要另行对照 fixed_assignments。
func BuildPivot(inst *ProblemInstance, assignments []model.Assignment) model.SchedulePivot {
	pivot := make(model.SchedulePivot, len(inst.Employees))
	for _, emp := range inst.Employees {
		row := make(map[string]model.ScheduleCell, len(inst.Days))
		for _, day := range inst.Days {
			row[day] = model.ScheduleCell{}
		}
		pivot[emp.Initials] = row
	}

	for _, a := range assignments {
		row, ok := pivot[a.Employee]
		if !ok {
			continue
		}
		row[a.Day] = model.ScheduleCell{
			Shift:   a.Shift,
			Station: a.Station,
		}
	}

	return pivot
}

// AnalyzeCoverage 计算每个 (day, shift) 的覆盖情况
func AnalyzeCoverage(inst *ProblemInstance, assignments []model.Assignment) map[string]map[string]CoverageEntry {
	assignedCount := make(map[string]map[string]int)
	for _, a := range assignments {
		byShift, ok := assignedCount[a.Day]
		if !ok {
			byShift = make(map[string]int)
			assignedCount[a.Day] = byShift
		}
		byShift[a.Shift]++
	}

	coverage := make(map[string]map[string]CoverageEntry, len(inst.Days))
	for _, day := range inst.Days {
		byShift := make(map[string]CoverageEntry, len(inst.Shifts))
		for _, shift := range inst.Shifts {
			assigned := assignedCount[day][shift.Name]
			required := minRequired(shift.Requirements)
			status := "ok"
			if assigned < required {
				status = "understaffed"
			}
			byShift[shift.Name] = CoverageEntry{Assigned: assigned, Required: required, Status: status}
		}
		coverage[day] = byShift
	}
	return coverage
}

// AnalyzeFairness 计算周末/夜班/总班次的分布及其总体（population）方差
func AnalyzeFairness(inst *ProblemInstance, assignments []model.Assignment) FairnessMetrics {
	byEmployee := make(map[string]FairnessEntry, len(inst.Employees))
	for _, emp := range inst.Employees {
		byEmployee[emp.Initials] = FairnessEntry{}
	}

	shiftTimes := make(map[string]string, len(inst.Shifts))
	for _, s := range inst.Shifts {
		shiftTimes[s.Name] = s.Time()
	}

	for _, a := range assignments {
		entry := byEmployee[a.Employee]
		entry.TotalCount++
		if isWeekend(dayOrdinal(inst, a.Day)) {
			entry.WeekendCount++
		}
		if isNightShiftName(a.Shift) {
			entry.NightCount++
		}
		byEmployee[a.Employee] = entry
	}

	weekendCounts := make([]float64, 0, len(byEmployee))
	nightCounts := make([]float64, 0, len(byEmployee))
	totalCounts := make([]float64, 0, len(byEmployee))
	for _, e := range byEmployee {
		weekendCounts = append(weekendCounts, float64(e.WeekendCount))
		nightCounts = append(nightCounts, float64(e.NightCount))
		totalCounts = append(totalCounts, float64(e.TotalCount))
	}

	return FairnessMetrics{
		ByEmployee:           byEmployee,
		WeekendCountVariance: populationVariance(weekendCounts),
		NightCountVariance:   populationVariance(nightCounts),
		TotalCountVariance:   populationVariance(totalCounts),
	}
}

// isNightShiftName 判定班次名称是否含 nacht/rufbereitschaft（与 isDemandingShift 的名称判据一致）
func isNightShiftName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "nacht") || strings.Contains(lower, "rufbereitschaft")
}

// populationVariance 计算总体方差（除以 N，而非 N-1），四舍五入到 2 位小数
func populationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	variance := sq / float64(len(values))
	return roundTo2(variance)
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// AnalyzeWorkload 计算每个员工的总班次数、总工时、按班次计数及每 7 天窗口的平均工时
func AnalyzeWorkload(inst *ProblemInstance, assignments []model.Assignment) map[string]WorkloadEntry {
	shiftTimes := make(map[string]string, len(inst.Shifts))
	for _, s := range inst.Shifts {
		shiftTimes[s.Name] = s.Time()
	}

	byEmployee := make(map[string]WorkloadEntry, len(inst.Employees))
	for _, emp := range inst.Employees {
		byEmployee[emp.Initials] = WorkloadEntry{CountByShift: make(map[string]int)}
	}

	for _, a := range assignments {
		entry, ok := byEmployee[a.Employee]
		if !ok {
			entry = WorkloadEntry{CountByShift: make(map[string]int)}
		}
		entry.TotalShifts++
		entry.TotalHours += shiftDurationHours(shiftTimes[a.Shift])
		entry.CountByShift[a.Shift]++
		byEmployee[a.Employee] = entry
	}

	numWeeks := float64(len(inst.Days)) / 7
	if numWeeks <= 0 {
		numWeeks = 1
	}
	for initials, entry := range byEmployee {
		entry.AvgHoursPerWeek = roundTo2(entry.TotalHours / numWeeks)
		byEmployee[initials] = entry
	}

	return byEmployee
}

// Analyze 构建完整的求解结果分析
func Analyze(inst *ProblemInstance, assignments []model.Assignment, outcome *SolveOutcome) SolutionAnalysis {
	return SolutionAnalysis{
		Coverage: AnalyzeCoverage(inst, assignments),
		Fairness: AnalyzeFairness(inst, assignments),
		Workload: AnalyzeWorkload(inst, assignments),
		Constraint: ConstraintSummary{
			HardConstraintsSatisfied: outcome.Status.IsSuccessful(),
			ObjectiveValue:           outcome.Statistics.ObjectiveValue,
			NumConflicts:             outcome.Statistics.NumConflicts,
			NumBranches:              outcome.Statistics.NumBranches,
			WallTimeSeconds:          outcome.Statistics.WallTimeSeconds,
		},
	}
}
