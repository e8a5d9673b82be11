package cpsat

import "github.com/paiban/rosterplan/pkg/model"

// ExistingCell 既有排班表中的一格：非空 Shift 表示该 (initials, day) 已有安排
type ExistingCell struct {
	Shift  string
	Locked bool
}

// ExistingSchedule 既有排班表，initials -> day -> cell
type ExistingSchedule map[string]map[string]ExistingCell

// ApplyExistingSchedule 将既有排班表折算为固定指派列表：
// locked=true 的格子等价于 fixed_assignments；locked=false 但已有班次的格子同样
// 被钉死为 1（增量重排不应打乱未锁定但已确定的安排），空格子不受影响。
func ApplyExistingSchedule(existing ExistingSchedule) []model.FixedAssignment {
	var fixed []model.FixedAssignment
	for initials, byDay := range existing {
		for day, cell := range byDay {
			if cell.Shift == "" {
				continue
			}
			fixed = append(fixed, model.FixedAssignment{
				EmployeeInitials: initials,
				Day:              day,
				ShiftName:        cell.Shift,
			})
		}
	}
	return fixed
}

// NormalizeIncremental 在普通归一化的基础上合并既有排班表产生的固定指派，
// 随后按与 Normalize 相同的规则构建 ProblemInstance。
func NormalizeIncremental(req SolveRequest, existing ExistingSchedule) (*ProblemInstance, []string) {
	merged := append([]model.FixedAssignment{}, req.FixedAssignments...)
	merged = append(merged, ApplyExistingSchedule(existing)...)
	req.FixedAssignments = merged
	return Normalize(req)
}
