package stats

import "testing"

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	cells := map[string]map[string]CoverageCell{
		"1": {
			"Früh":  {Assigned: 1, Required: 1},
			"Nacht": {Assigned: 0, Required: 1},
		},
		"2": {
			"Früh": {Assigned: 1, Required: 1},
		},
	}

	analyzer := NewCoverageAnalyzer()
	metrics := analyzer.Analyze(cells)

	if metrics.TotalSlots != 3 {
		t.Errorf("expected 3 total slots, got %d", metrics.TotalSlots)
	}
	if metrics.AssignedSlots != 2 {
		t.Errorf("expected 2 assigned slots, got %d", metrics.AssignedSlots)
	}
	if len(metrics.Understaffed) != 1 {
		t.Fatalf("expected 1 understaffed slot, got %d", len(metrics.Understaffed))
	}
	if metrics.Understaffed[0].Shift != "Nacht" {
		t.Errorf("expected understaffed shift Nacht, got %s", metrics.Understaffed[0].Shift)
	}
}

func TestCoverageAnalyzer_Analyze_Empty(t *testing.T) {
	analyzer := NewCoverageAnalyzer()
	metrics := analyzer.Analyze(map[string]map[string]CoverageCell{})
	if metrics.OverallCoverage != 100 {
		t.Errorf("expected 100%% coverage with no slots, got %f", metrics.OverallCoverage)
	}
}
