// Package stats 提供排班团队级公平性与覆盖率报表，作为求解核心分析结果
// 之外的补充报表层（基尼系数等团队级指标不参与求解本身）。
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/paiban/rosterplan/pkg/model"
)

// EmployeeStat 单个员工的团队级统计
type EmployeeStat struct {
	Initials      string  `json:"initials"`
	Name          string  `json:"name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	NightShifts   int     `json:"night_shifts"`
	WeekendShifts int     `json:"weekend_shifts"`
	Deviation     float64 `json:"deviation"` // 与平均工时的偏差百分比
}

// FairnessMetrics 团队级公平性指标，基尼系数衡量分布不均程度（0=完全公平，1=完全不公平）
type FairnessMetrics struct {
	WorkloadGini         float64        `json:"workload_gini"`
	WorkloadVariance     float64        `json:"workload_variance"`
	WorkloadStdDev       float64        `json:"workload_std_dev"`
	AvgHoursPerEmployee  float64        `json:"avg_hours_per_employee"`
	MaxHours             float64        `json:"max_hours"`
	MinHours             float64        `json:"min_hours"`
	NightShiftGini       float64        `json:"night_shift_gini"`
	WeekendShiftGini     float64        `json:"weekend_shift_gini"`
	EmployeeStats        []EmployeeStat `json:"employee_stats"`
	OverallFairnessScore float64        `json:"overall_fairness_score"`
}

// FairnessAnalyzer 计算团队级公平性报表
type FairnessAnalyzer struct {
	shiftHours func(shiftName string) float64
}

// NewFairnessAnalyzer 创建公平性分析器。shiftHours 将班次名称映射到工时长度，
// 由调用方基于各班次的 "HH:MM-HH:MM" 时间字符串预先算好传入。
func NewFairnessAnalyzer(shiftHours map[string]float64) *FairnessAnalyzer {
	return &FairnessAnalyzer{
		shiftHours: func(name string) float64 { return shiftHours[name] },
	}
}

// Analyze 计算团队级公平性指标
func (f *FairnessAnalyzer) Analyze(assignments []model.Assignment, employees []model.Employee, dayOrdinal func(day string) int) *FairnessMetrics {
	if len(employees) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	nameByInitials := make(map[string]string, len(employees))
	statByInitials := make(map[string]*EmployeeStat, len(employees))
	for _, e := range employees {
		nameByInitials[e.Initials] = e.Name
		statByInitials[e.Initials] = &EmployeeStat{Initials: e.Initials, Name: e.Name}
	}

	for _, a := range assignments {
		stat, ok := statByInitials[a.Employee]
		if !ok {
			continue
		}
		stat.TotalHours += f.shiftHours(a.Shift)
		stat.ShiftCount++
		if isNightShiftName(a.Shift) {
			stat.NightShifts++
		}
		if isWeekendOrdinal(dayOrdinal(a.Day)) {
			stat.WeekendShifts++
		}
	}

	stats := make([]EmployeeStat, 0, len(statByInitials))
	for _, s := range statByInitials {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TotalHours > stats[j].TotalHours })

	hours := make([]float64, len(stats))
	night := make([]float64, len(stats))
	weekend := make([]float64, len(stats))
	for i, s := range stats {
		hours[i] = s.TotalHours
		night[i] = float64(s.NightShifts)
		weekend[i] = float64(s.WeekendShifts)
	}

	avgHours := mean(hours)
	variance := populationVariance(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := rangeOf(hours)

	for i := range stats {
		if avgHours > 0 {
			stats[i].Deviation = (stats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(night)
	weekendGini := gini(weekend)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     variance,
		WorkloadStdDev:       stdDev,
		AvgHoursPerEmployee:  avgHours,
		MaxHours:             maxHours,
		MinHours:             minHours,
		NightShiftGini:       nightGini,
		WeekendShiftGini:     weekendGini,
		EmployeeStats:        stats,
		OverallFairnessScore: overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

func isNightShiftName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "nacht") || strings.Contains(lower, "rufbereitschaft")
}

func isWeekendOrdinal(dayNum int) bool {
	m := dayNum % 7
	return m == 0 || m == 6
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return sum / float64(len(values))
}

func rangeOf(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数，0 表示完全公平，1 表示完全不公平
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

func overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}
