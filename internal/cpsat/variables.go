package cpsat

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
)

// VarKey 唯一标识一个 (员工, 日期, 班次) 三元组对应的决策变量
type VarKey struct {
	Initials string
	Day      string
	Shift    string
}

// VariableSet 是决策变量构建阶段与后续编译阶段之间的唯一共享接口：
// 一个三元组缺失即表示"该变量不被允许"，依赖它的约束应静默跳过。
type VariableSet map[VarKey]cpmodel.BoolVar

// BuildVariables 为输入的笛卡尔积 (employee, day, shift) 中的每一个组合创建
// 一个布尔决策变量。
func BuildVariables(cp *cpmodel.Builder, inst *ProblemInstance) VariableSet {
	vars := make(VariableSet, len(inst.Employees)*len(inst.Days)*len(inst.Shifts))

	for _, emp := range inst.Employees {
		for _, day := range inst.Days {
			for _, shift := range inst.Shifts {
				key := VarKey{Initials: emp.Initials, Day: day, Shift: shift.Name}
				name := fmt.Sprintf("shift_%s_%s_%s", emp.Initials, day, shift.Name)
				vars[key] = cp.NewBoolVar().WithName(name)
			}
		}
	}

	return vars
}

// Get 返回三元组对应的变量；ok=false 表示该变量不存在（不在笛卡尔积内）。
func (vs VariableSet) Get(initials, day, shift string) (cpmodel.BoolVar, bool) {
	v, ok := vs[VarKey{Initials: initials, Day: day, Shift: shift}]
	return v, ok
}
