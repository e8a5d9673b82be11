package stats

import (
	"testing"

	"github.com/paiban/rosterplan/pkg/model"
)

func dayOrdinalFromString(day string) int {
	switch day {
	case "1":
		return 1
	case "2":
		return 2
	case "6":
		return 6
	case "7":
		return 7
	default:
		return 0
	}
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	employees := []model.Employee{
		{Initials: "AM", Name: "员工1"},
		{Initials: "PS", Name: "员工2"},
	}

	assignments := []model.Assignment{
		{Employee: "AM", Day: "1", Shift: "Früh"},
		{Employee: "AM", Day: "2", Shift: "Früh"},
		{Employee: "AM", Day: "6", Shift: "Nacht"},
		{Employee: "PS", Day: "7", Shift: "Spät"},
	}

	shiftHours := map[string]float64{"Früh": 8, "Spät": 8, "Nacht": 10}
	analyzer := NewFairnessAnalyzer(shiftHours)
	metrics := analyzer.Analyze(assignments, employees, dayOrdinalFromString)

	if len(metrics.EmployeeStats) != 2 {
		t.Fatalf("expected 2 employee stats, got %d", len(metrics.EmployeeStats))
	}

	var amStat *EmployeeStat
	for i := range metrics.EmployeeStats {
		if metrics.EmployeeStats[i].Initials == "AM" {
			amStat = &metrics.EmployeeStats[i]
		}
	}
	if amStat == nil {
		t.Fatal("expected stats for AM")
	}
	if amStat.ShiftCount != 3 {
		t.Errorf("expected 3 shifts for AM, got %d", amStat.ShiftCount)
	}
	if amStat.NightShifts != 1 {
		t.Errorf("expected 1 night shift for AM, got %d", amStat.NightShifts)
	}
	if amStat.WeekendShifts != 1 {
		t.Errorf("expected 1 weekend shift for AM (day 6), got %d", amStat.WeekendShifts)
	}

	if metrics.OverallFairnessScore < 0 || metrics.OverallFairnessScore > 100 {
		t.Errorf("expected fairness score in [0,100], got %f", metrics.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_Analyze_NoEmployees(t *testing.T) {
	analyzer := NewFairnessAnalyzer(nil)
	metrics := analyzer.Analyze(nil, nil, dayOrdinalFromString)
	if metrics.OverallFairnessScore != 100 {
		t.Errorf("expected perfect score with no employees, got %f", metrics.OverallFairnessScore)
	}
}

func TestGini_PerfectEquality(t *testing.T) {
	g := gini([]float64{10, 10, 10, 10})
	if g != 0 {
		t.Errorf("expected gini 0 for equal distribution, got %f", g)
	}
}

func TestGini_Inequality(t *testing.T) {
	g := gini([]float64{0, 0, 0, 40})
	if g <= 0 {
		t.Errorf("expected positive gini for unequal distribution, got %f", g)
	}
}
