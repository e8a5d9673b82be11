package cpsat

import (
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"google.golang.org/protobuf/proto"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
)

// SolveStatus 是求解结果状态，对外暴露为稳定的字符串枚举
type SolveStatus string

const (
	StatusOptimal      SolveStatus = "OPTIMAL"
	StatusFeasible     SolveStatus = "FEASIBLE"
	StatusInfeasible   SolveStatus = "INFEASIBLE"
	StatusModelInvalid SolveStatus = "MODEL_INVALID"
	StatusUnknown      SolveStatus = "UNKNOWN"
)

const solverWorkerCount = 4

// SolveStatistics 求解器运行时统计
type SolveStatistics struct {
	NumConflicts    int64   `json:"num_conflicts"`
	NumBranches     int64   `json:"num_branches"`
	WallTimeSeconds float64 `json:"wall_time_seconds"`
	ObjectiveValue  float64 `json:"objective_value"`
}

// SolveOutcome 是 Solve 的完整返回值
type SolveOutcome struct {
	Status     SolveStatus
	Response   *cmpb.CpSolverResponse
	Statistics SolveStatistics
}

// Solve 编译问题实例并调用 CP-SAT 求解器。
func Solve(inst *ProblemInstance) (VariableSet, *SolveOutcome, error) {
	cp := cpmodel.NewCpModelBuilder()

	vars := BuildVariables(cp, inst)
	CompileHardConstraints(cp, inst, vars)
	CompileObjective(cp, inst, vars)

	modelProto, err := cp.Model()
	if err != nil {
		return vars, &SolveOutcome{Status: StatusModelInvalid}, err
	}

	params := &sppb.SatParameters{
		MaxTimeInSeconds:   proto.Float64(inst.TimeLimitSeconds),
		NumWorkers:         proto.Int32(solverWorkerCount),
		LinearizationLevel: proto.Int32(0),
	}

	resp, err := cpmodel.SolveCpModelWithParameters(modelProto, params)
	if err != nil {
		return vars, &SolveOutcome{Status: StatusUnknown}, err
	}

	outcome := &SolveOutcome{
		Status:   mapStatus(resp.GetStatus()),
		Response: resp,
		Statistics: SolveStatistics{
			NumConflicts:    resp.GetNumConflicts(),
			NumBranches:     resp.GetNumBranches(),
			WallTimeSeconds: resp.GetWallTime(),
			ObjectiveValue:  resp.GetObjectiveValue(),
		},
	}
	return vars, outcome, nil
}

func mapStatus(s cmpb.CpSolverStatus) SolveStatus {
	switch s {
	case cmpb.CpSolverStatus_OPTIMAL:
		return StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		return StatusInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return StatusModelInvalid
	default:
		return StatusUnknown
	}
}

// IsSuccessful 判断求解状态是否产出了可用的排班方案
func (s SolveStatus) IsSuccessful() bool {
	return s == StatusOptimal || s == StatusFeasible
}
