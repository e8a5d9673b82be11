// Package model 定义排班核心领域模型
package model

import "fmt"

// Shift 班次定义。Name 是求解核心使用的唯一键；BaseModel.ID 只在持久化层使用。
type Shift struct {
	BaseModel
	Name            string   `json:"name" db:"name"`
	Category        string   `json:"category" db:"category"`
	Station         string   `json:"station" db:"station"`
	TimeStart       string   `json:"time_start" db:"time_start"` // "HH:MM"
	TimeEnd         string   `json:"time_end" db:"time_end"`     // "HH:MM"，可早于 TimeStart 表示跨午夜
	DurationMinutes int      `json:"duration_minutes" db:"duration_minutes"`
	Requirements    []string `json:"requirements" db:"requirements"`
}

// Time 返回求解核心使用的 "HH:MM-HH:MM" 表示
func (s *Shift) Time() string {
	return fmt.Sprintf("%s-%s", s.TimeStart, s.TimeEnd)
}

// Assignment 一次求解产生的单条排班结果
type Assignment struct {
	Employee string `json:"employee"`
	Day      string `json:"day"`
	Shift    string `json:"shift"`
	Station  string `json:"station"`
}

// ScheduleCell 排班透视表中的一格
type ScheduleCell struct {
	Shift     string `json:"shift"`
	Station   string `json:"station"`
	Locked    bool   `json:"locked"`
	Violation bool   `json:"violation"`
}

// SchedulePivot 按 initials -> day 组织的排班透视表
type SchedulePivot map[string]map[string]ScheduleCell

// Solution 一次求解的完整产出
type Solution struct {
	Assignments []Assignment  `json:"assignments"`
	Pivot       SchedulePivot `json:"pivot"`
}
