package swap

import (
	"testing"

	"github.com/paiban/rosterplan/internal/cpsat"
	"github.com/paiban/rosterplan/pkg/model"
)

func buildTestInstance(t *testing.T) *cpsat.ProblemInstance {
	t.Helper()
	req := cpsat.SolveRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1", Qualifications: []string{"Facharzt"}},
			{Initials: "PS", Name: "员工2"},
			{Initials: "KT", Name: "员工3", Qualifications: []string{"Facharzt"}},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
			{Name: "Nacht", TimeStart: "22:00", TimeEnd: "06:00", Requirements: []string{"Facharzt"}},
		},
		Days:             []string{"1", "2", "3", "4", "5", "6", "7"},
		OptimizationMode: cpsat.ModeQuick,
	}
	inst, errs := cpsat.Normalize(req)
	if len(errs) > 0 {
		t.Fatalf("unexpected normalize errors: %v", errs)
	}
	return inst
}

func TestRankCandidates_FiltersUnqualified(t *testing.T) {
	inst := buildTestInstance(t)
	pivot := model.SchedulePivot{}
	scorer := NewCandidateScorer(inst, pivot)

	candidates := scorer.RankCandidates(Gap{Day: "6", Shift: "Nacht"})

	for _, c := range candidates {
		if c.Employee.Initials == "PS" {
			t.Fatalf("expected unqualified employee PS to be filtered out")
		}
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 qualified candidates, got %d", len(candidates))
	}
}

func TestRankCandidates_SkipsAlreadyAssigned(t *testing.T) {
	inst := buildTestInstance(t)
	pivot := model.SchedulePivot{
		"AM": {"6": {Shift: "Früh"}},
	}
	scorer := NewCandidateScorer(inst, pivot)

	candidates := scorer.RankCandidates(Gap{Day: "6", Shift: "Nacht"})

	for _, c := range candidates {
		if c.Employee.Initials == "AM" {
			t.Fatalf("expected already-assigned employee AM to be excluded")
		}
	}
}

func TestRankCandidates_SkipsUnavailable(t *testing.T) {
	inst := buildTestInstance(t)
	inst.Availability = model.AvailabilityMap{
		"KT": {"6": "U"},
	}
	pivot := model.SchedulePivot{}
	scorer := NewCandidateScorer(inst, pivot)

	candidates := scorer.RankCandidates(Gap{Day: "6", Shift: "Nacht"})

	for _, c := range candidates {
		if c.Employee.Initials == "KT" {
			t.Fatalf("expected unavailable employee KT to be excluded")
		}
	}
}

func TestRankCandidates_PrefersUnderworkedEmployee(t *testing.T) {
	inst := buildTestInstance(t)
	pivot := model.SchedulePivot{
		"KT": {
			"1": {Shift: "Früh"},
			"2": {Shift: "Früh"},
			"3": {Shift: "Früh"},
		},
	}
	scorer := NewCandidateScorer(inst, pivot)

	candidates := scorer.RankCandidates(Gap{Day: "6", Shift: "Nacht"})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Employee.Initials != "AM" {
		t.Errorf("expected AM (less loaded) to rank first, got %s", candidates[0].Employee.Initials)
	}
}

func TestRankCandidates_UnknownShift(t *testing.T) {
	inst := buildTestInstance(t)
	scorer := NewCandidateScorer(inst, model.SchedulePivot{})
	candidates := scorer.RankCandidates(Gap{Day: "1", Shift: "Does-Not-Exist"})
	if candidates != nil {
		t.Errorf("expected nil candidates for unknown shift, got %v", candidates)
	}
}
