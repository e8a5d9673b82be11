package model

// Rule 一条排班规则，文本自由形式，由求解引擎做启发式匹配
type Rule struct {
	BaseModel
	Type      RuleType `json:"type" db:"rule_type"`
	Text      string   `json:"text" db:"rule_text"`
	AppliesTo string   `json:"applies_to" db:"applies_to"` // "all" 或员工姓名子串
	Category  string   `json:"category" db:"category"`
	Weight    int      `json:"weight" db:"weight"`
	Source    string   `json:"source" db:"source"` // manual / llm_parsed
	Active    bool     `json:"active" db:"is_active"`
}

// FixedAssignment 固定指派，将某个变量钉死为 1
type FixedAssignment struct {
	EmployeeInitials string `json:"employee_initials"`
	Day              string `json:"day"`
	ShiftName        string `json:"shift_name"`
}

// AvailabilityMap 员工在每一天的可用性代码，employee_initials -> day -> code
type AvailabilityMap map[string]map[string]string

// unavailableCodes 是使对应变量被钉死为 0 的可用性代码集合
var unavailableCodes = map[string]bool{
	"uw":    true,
	"EZ":    true,
	"BV":    true,
	"krank": true,
	"U":     true,
	"K":     true,
	"SU":    true,
	"MU":    true,
}

// IsUnavailable 判断给定代码是否属于不可用集合
func IsUnavailable(code string) bool {
	return unavailableCodes[code]
}
