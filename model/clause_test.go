package model

import "testing"

func TestParseRisk(t *testing.T) {
	tests := []struct {
		in   string
		want Risk
	}{
		{"green", RiskGreen},
		{"yellow", RiskYellow},
		{"red", RiskRed},
		{"ghost", RiskGhost},
		{"unknown", RiskUnknown},
		{"", RiskUnknown},
		{"severe", RiskUnknown},
		{"RED", RiskUnknown},
	}

	for _, tt := range tests {
		if got := ParseRisk(tt.in); got != tt.want {
			t.Errorf("ParseRisk(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClauseIsGhost(t *testing.T) {
	ghost := Clause{ID: "ghost-abc", Risk: RiskGhost}
	if !ghost.IsGhost() {
		t.Error("Expected ghost clause to report IsGhost")
	}

	real := Clause{ID: "c1", Risk: RiskRed}
	if real.IsGhost() {
		t.Error("Expected real clause to not report IsGhost")
	}
}

func TestVideoJobTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{VideoQueued, false},
		{VideoInProgress, false},
		{VideoCompleted, true},
		{VideoFailed, true},
	}

	for _, tt := range tests {
		j := VideoJob{Status: tt.status}
		if got := j.Terminal(); got != tt.want {
			t.Errorf("Terminal() for %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
