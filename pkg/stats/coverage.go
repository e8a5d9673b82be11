package stats

// DayCoverage 单日覆盖情况
type DayCoverage struct {
	Day          string  `json:"day"`
	TotalSlots   int     `json:"total_slots"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
}

// UnderstaffedSlot 缺编的 (day, shift)
type UnderstaffedSlot struct {
	Day      string `json:"day"`
	Shift    string `json:"shift"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
	Shortage int    `json:"shortage"`
}

// CoverageMetrics 团队级覆盖率报表，建立在求解核心的 (day, shift) 覆盖分析之上
type CoverageMetrics struct {
	TotalSlots        int                  `json:"total_slots"`
	AssignedSlots     int                  `json:"assigned_slots"`
	OverallCoverage   float64              `json:"overall_coverage"`
	ByDay             map[string]DayCoverage `json:"by_day"`
	ShiftTypeCoverage map[string]float64   `json:"shift_type_coverage"`
	Understaffed      []UnderstaffedSlot   `json:"understaffed"`
}

// CoverageCell 单个 (day, shift) 槽位的覆盖情况，与 internal/cpsat 的 CoverageEntry
// 字段语义一致，独立定义以避免团队报表层依赖求解核心内部包。
type CoverageCell struct {
	Assigned int
	Required int
}

// CoverageAnalyzer 汇总按 (day, shift) 分解的覆盖情况为团队级报表
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 将 day -> shift -> cell 的覆盖明细汇总为整体、按天、按班次类型的报表
func (c *CoverageAnalyzer) Analyze(cells map[string]map[string]CoverageCell) *CoverageMetrics {
	metrics := &CoverageMetrics{
		ByDay:             make(map[string]DayCoverage),
		ShiftTypeCoverage: make(map[string]float64),
	}

	shiftTotals := make(map[string]int)
	shiftAssigned := make(map[string]int)

	for day, byShift := range cells {
		dayTotal, dayAssigned := 0, 0
		for shift, cell := range byShift {
			metrics.TotalSlots += cell.Required
			metrics.AssignedSlots += min(cell.Assigned, cell.Required)
			dayTotal += cell.Required
			dayAssigned += min(cell.Assigned, cell.Required)

			shiftTotals[shift] += cell.Required
			shiftAssigned[shift] += min(cell.Assigned, cell.Required)

			if cell.Assigned < cell.Required {
				metrics.Understaffed = append(metrics.Understaffed, UnderstaffedSlot{
					Day:      day,
					Shift:    shift,
					Required: cell.Required,
					Assigned: cell.Assigned,
					Shortage: cell.Required - cell.Assigned,
				})
			}
		}

		rate := 100.0
		if dayTotal > 0 {
			rate = float64(dayAssigned) / float64(dayTotal) * 100
		}
		metrics.ByDay[day] = DayCoverage{
			Day:          day,
			TotalSlots:   dayTotal,
			Assigned:     dayAssigned,
			CoverageRate: rate,
		}
	}

	if metrics.TotalSlots > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedSlots) / float64(metrics.TotalSlots) * 100
	} else {
		metrics.OverallCoverage = 100
	}

	for shift, total := range shiftTotals {
		if total > 0 {
			metrics.ShiftTypeCoverage[shift] = float64(shiftAssigned[shift]) / float64(total) * 100
		}
	}

	return metrics
}
