package swap

import (
	"testing"

	"github.com/paiban/rosterplan/pkg/model"
)

func TestRecommend_AppliesMaxAndMinScore(t *testing.T) {
	inst := buildTestInstance(t)
	scorer := NewCandidateScorer(inst, model.SchedulePivot{})

	all := scorer.Recommend(Gap{Day: "6", Shift: "Nacht"}, &RecommendOptions{MaxRecommendations: 1, MinScore: 0})
	if len(all) != 1 {
		t.Fatalf("expected 1 recommendation with MaxRecommendations=1, got %d", len(all))
	}

	none := scorer.Recommend(Gap{Day: "6", Shift: "Nacht"}, &RecommendOptions{MaxRecommendations: 5, MinScore: 1000})
	if len(none) != 0 {
		t.Fatalf("expected 0 recommendations with an unreachable MinScore, got %d", len(none))
	}
}

func TestRecommend_DefaultOptions(t *testing.T) {
	inst := buildTestInstance(t)
	scorer := NewCandidateScorer(inst, model.SchedulePivot{})

	recs := scorer.Recommend(Gap{Day: "6", Shift: "Nacht"}, nil)
	if len(recs) == 0 {
		t.Fatal("expected at least one recommendation with default options")
	}
}

func TestSortCandidatesByScoreDesc(t *testing.T) {
	candidates := []Candidate{
		{Employee: model.Employee{Initials: "A"}, Score: 10},
		{Employee: model.Employee{Initials: "B"}, Score: 90},
		{Employee: model.Employee{Initials: "C"}, Score: 50},
	}
	sortCandidatesByScoreDesc(candidates)
	if candidates[0].Employee.Initials != "B" || candidates[1].Employee.Initials != "C" || candidates[2].Employee.Initials != "A" {
		t.Errorf("unexpected order: %+v", candidates)
	}
}
