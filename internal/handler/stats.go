// Package handler 提供API处理器
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/paiban/rosterplan/internal/cpsat"
	"github.com/paiban/rosterplan/pkg/errors"
	"github.com/paiban/rosterplan/pkg/model"
	"github.com/paiban/rosterplan/pkg/stats"
)

// StatsRequest 团队级报表请求，复用一次求解调用的输入加上其产出的赋值结果
type StatsRequest struct {
	Employees   []model.Employee   `json:"employees"`
	Shifts      []model.Shift      `json:"shifts"`
	Days        []string           `json:"days"`
	Rules       []model.Rule       `json:"rules"`
	Assignments []model.Assignment `json:"assignments"`
}

// FairnessResponse 公平性报表响应
type FairnessResponse struct {
	Data *stats.FairnessMetrics `json:"data"`
}

// CoverageResponse 覆盖率报表响应
type CoverageResponse struct {
	Data *stats.CoverageMetrics `json:"data"`
}

// GetFairnessHandler 处理 POST /api/stats/fairness：计算团队级公平性报表
// （基尼系数等），建立在求解核心的 (employee, day, shift) 赋值结果之上。
func GetFairnessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST 方法"))
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, errors.Wrap(err, errors.CodeInvalidInput, "请求体解析失败"))
		return
	}

	shiftHours := make(map[string]float64, len(req.Shifts))
	for _, s := range req.Shifts {
		shiftHours[s.Name] = shiftDurationHours(s)
	}
	ordinal := dayOrdinalIndex(req.Days)

	analyzer := stats.NewFairnessAnalyzer(shiftHours)
	metrics := analyzer.Analyze(req.Assignments, req.Employees, ordinal)

	respondJSON(w, http.StatusOK, FairnessResponse{Data: metrics})
}

// GetCoverageHandler 处理 POST /api/stats/coverage：计算团队级覆盖率报表。
// 每个 (day, shift) 的 required 数值由求解核心的硬约束编译规则推导，
// 复用 internal/cpsat.AnalyzeCoverage 而不是在本层重复一份推导逻辑。
func GetCoverageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST 方法"))
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, errors.Wrap(err, errors.CodeInvalidInput, "请求体解析失败"))
		return
	}

	inst, validationErrs := cpsat.Normalize(cpsat.SolveRequest{
		Employees: req.Employees,
		Shifts:    req.Shifts,
		Days:      req.Days,
		Rules:     req.Rules,
	})
	if len(validationErrs) > 0 {
		respondAppError(w, errors.New(errors.CodeInvalidInput, strings.Join(validationErrs, "; ")))
		return
	}

	coverage := cpsat.AnalyzeCoverage(inst, req.Assignments)
	cells := make(map[string]map[string]stats.CoverageCell, len(coverage))
	for day, byShift := range coverage {
		row := make(map[string]stats.CoverageCell, len(byShift))
		for shift, entry := range byShift {
			row[shift] = stats.CoverageCell{Assigned: entry.Assigned, Required: entry.Required}
		}
		cells[day] = row
	}

	analyzer := stats.NewCoverageAnalyzer()
	respondJSON(w, http.StatusOK, CoverageResponse{Data: analyzer.Analyze(cells)})
}

// shiftDurationHours 返回一个班次的工时，优先取持久化的 DurationMinutes，
// 否则从 "HH:MM-HH:MM" 时间串解析，跨午夜的班次按 24 小时回绕计算。
func shiftDurationHours(s model.Shift) float64 {
	if s.DurationMinutes > 0 {
		return float64(s.DurationMinutes) / 60.0
	}
	start, ok1 := parseHourMinute(s.TimeStart)
	end, ok2 := parseHourMinute(s.TimeEnd)
	if !ok1 || !ok2 {
		return 0
	}
	if end <= start {
		end += 24 * 60
	}
	return float64(end-start) / 60.0
}

func parseHourMinute(hhmm string) (int, bool) {
	parts := strings.Split(hhmm, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}

// dayOrdinalIndex 构建与求解核心一致的日期序数解析：非数字 token 退化为其在
// 序列中的位置
func dayOrdinalIndex(days []string) func(string) int {
	position := make(map[string]int, len(days))
	for i, d := range days {
		position[d] = i
	}
	return func(day string) int {
		if n, err := strconv.Atoi(day); err == nil {
			return n
		}
		if idx, ok := position[day]; ok {
			return idx
		}
		return 0
	}
}
