// Package swap 提供缺口填补的候选人打分，明确不触发 CP-SAT 重新求解
package swap

import (
	"strconv"
	"strings"

	"github.com/paiban/rosterplan/internal/cpsat"
	"github.com/paiban/rosterplan/pkg/model"
)

const (
	weightQualification = 40.0
	weightWorkload      = 8.0
	weightWeekend       = 4.0
)

// qualificationKeywords 是从班次 requirements 中提取资质要求的固定词表，
// 与求解核心的资质词表保持一致（见 internal/cpsat/rulevocab.go）。
var qualificationKeywords = []string{
	"Facharzt",
	"Oberarzt",
	"Chefarzt",
	"Assistenzarzt",
	"ABS-zertifiziert",
	"Notfallzertifizierung",
	"Intensivmedizin",
	"Ultraschall-Zertifikat",
	"Endoskopie",
}

// Gap 一个待填补的缺口
type Gap struct {
	Day   string
	Shift string
}

// Candidate 一个候选人及其打分
type Candidate struct {
	Employee model.Employee `json:"employee"`
	Score    float64        `json:"score"`
	Reasons  []string       `json:"reasons"`
}

// CandidateScorer 基于当前排班表为缺口打分候选人，不调用求解器
type CandidateScorer struct {
	inst  *cpsat.ProblemInstance
	pivot model.SchedulePivot
}

// NewCandidateScorer 创建候选人打分器
func NewCandidateScorer(inst *cpsat.ProblemInstance, pivot model.SchedulePivot) *CandidateScorer {
	return &CandidateScorer{inst: inst, pivot: pivot}
}

// isAssignedOnDay 判断员工在某天是否已有安排
func (s *CandidateScorer) isAssignedOnDay(initials, day string) bool {
	row, ok := s.pivot[initials]
	if !ok {
		return false
	}
	return row[day].Shift != ""
}

// isUnavailableOnDay 判断员工在某天是否被标记为不可用
func (s *CandidateScorer) isUnavailableOnDay(initials, day string) bool {
	byDay, ok := s.inst.Availability[initials]
	if !ok {
		return false
	}
	code, ok := byDay[day]
	return ok && model.IsUnavailable(code)
}

// qualifies 判断员工是否具备某班次所需的全部资质
func (s *CandidateScorer) qualifies(emp model.Employee, shift model.Shift) bool {
	required := extractRequiredQualificationsFromRequirements(shift.Requirements)
	return emp.HasAllQualifications(required)
}

// currentShiftCount 统计员工在当前排班表中的总班次数
func (s *CandidateScorer) currentShiftCount(initials string) int {
	row, ok := s.pivot[initials]
	if !ok {
		return 0
	}
	count := 0
	for _, cell := range row {
		if cell.Shift != "" {
			count++
		}
	}
	return count
}

// currentWeekendCount 统计员工在当前排班表中周末班次数
func (s *CandidateScorer) currentWeekendCount(initials string) int {
	row, ok := s.pivot[initials]
	if !ok {
		return 0
	}
	count := 0
	for day, cell := range row {
		if cell.Shift == "" {
			continue
		}
		if isWeekendDay(dayOrdinal(s.inst, day)) {
			count++
		}
	}
	return count
}

// targetShiftCount 返回团队目标班次数（总格子数 / 员工数）
func (s *CandidateScorer) targetShiftCount() float64 {
	n := len(s.inst.Employees)
	if n == 0 {
		return 0
	}
	total := len(s.inst.Days) * len(s.inst.Shifts)
	return float64(total) / float64(n)
}

// targetWeekendCount 返回团队目标周末班次数
func (s *CandidateScorer) targetWeekendCount() float64 {
	n := len(s.inst.Employees)
	if n == 0 {
		return 0
	}
	weekendDays := 0
	for _, d := range s.inst.Days {
		if isWeekendDay(dayOrdinal(s.inst, d)) {
			weekendDays++
		}
	}
	total := weekendDays * len(s.inst.Shifts)
	return float64(total) / float64(n)
}

// RankCandidates 为一个缺口打分并按得分降序返回候选人
func (s *CandidateScorer) RankCandidates(gap Gap) []Candidate {
	shift, ok := s.inst.ShiftByName[gap.Shift]
	if !ok {
		return nil
	}

	targetShifts := s.targetShiftCount()
	targetWeekend := s.targetWeekendCount()

	var candidates []Candidate
	for _, emp := range s.inst.Employees {
		if s.isAssignedOnDay(emp.Initials, gap.Day) {
			continue
		}
		if s.isUnavailableOnDay(emp.Initials, gap.Day) {
			continue
		}
		if !s.qualifies(emp, *shift) {
			continue
		}

		score := 100.0
		var reasons []string

		if len(shift.Requirements) > 0 {
			reasons = append(reasons, "meets shift qualification requirements")
		}

		workloadDelta := float64(s.currentShiftCount(emp.Initials)) - targetShifts
		score -= weightWorkload * workloadDelta
		if workloadDelta < 0 {
			reasons = append(reasons, "currently below target workload")
		} else if workloadDelta > 0 {
			reasons = append(reasons, "currently above target workload")
		}

		weekendDelta := float64(s.currentWeekendCount(emp.Initials)) - targetWeekend
		score -= weightWeekend * absFloat(weekendDelta)
		if weekendDelta < 0 {
			reasons = append(reasons, "below target weekend count")
		}

		candidates = append(candidates, Candidate{Employee: emp, Score: score, Reasons: reasons})
	}

	sortCandidatesByScoreDesc(candidates)
	return candidates
}

func extractRequiredQualificationsFromRequirements(requirements []string) []string {
	var found []string
	for _, req := range requirements {
		for _, q := range qualificationKeywords {
			if strings.Contains(req, q) {
				found = append(found, q)
			}
		}
	}
	return found
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func isWeekendDay(dayNum int) bool {
	m := dayNum % 7
	return m == 0 || m == 6
}

// dayOrdinal 把日期 token 解析为整数，解析失败时退化为其在序列中的位置。
// 与 internal/cpsat 的同名私有函数保持相同规则，以便周末判定结果一致。
func dayOrdinal(inst *cpsat.ProblemInstance, day string) int {
	if n, err := strconv.Atoi(day); err == nil {
		return n
	}
	if idx, ok := inst.DayIndex[day]; ok {
		return idx
	}
	return 0
}
