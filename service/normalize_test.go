package service

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/Ta-h-a/Hack2SkillFrontend/model"
)

func TestAnalysisResultUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantStatus  string
		wantClauses int
		wantFailed  bool
	}{
		{
			name:        "bare array",
			payload:     `[{"id":"c1","text":"clause one"},{"id":"c2","text":"clause two"}]`,
			wantStatus:  model.StatusCompleted,
			wantClauses: 2,
		},
		{
			name:        "object with status",
			payload:     `{"status":"processing","clauses":[]}`,
			wantStatus:  "processing",
			wantClauses: 0,
		},
		{
			name:        "object completed",
			payload:     `{"status":"completed","clauses":[{"id":"c1"}]}`,
			wantStatus:  model.StatusCompleted,
			wantClauses: 1,
		},
		{
			name:       "object failed",
			payload:    `{"status":"failed","error":"engine crashed"}`,
			wantStatus: model.StatusFailed,
			wantFailed: true,
		},
		{
			name:       "legacy error status",
			payload:    `{"status":"error","error":"bad document"}`,
			wantStatus: "error",
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result AnalysisResult
			if err := json.Unmarshal([]byte(tt.payload), &result); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Expected status '%s', got '%s'", tt.wantStatus, result.Status)
			}
			if len(result.Clauses) != tt.wantClauses {
				t.Errorf("Expected %d clauses, got %d", tt.wantClauses, len(result.Clauses))
			}
			if result.Failed() != tt.wantFailed {
				t.Errorf("Expected Failed()=%v, got %v", tt.wantFailed, result.Failed())
			}
		})
	}
}

func TestAnalysisResultTerminal(t *testing.T) {
	tests := []struct {
		name   string
		result AnalysisResult
		want   bool
	}{
		{"completed", AnalysisResult{Status: model.StatusCompleted}, true},
		{"failed", AnalysisResult{Status: model.StatusFailed}, true},
		{"error", AnalysisResult{Status: "error"}, true},
		{"processing", AnalysisResult{Status: "processing"}, false},
		{"pending", AnalysisResult{Status: "pending"}, false},
		{"bare clauses no status", AnalysisResult{Clauses: []RawClause{{ID: "c1"}}}, true},
		{"empty", AnalysisResult{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Terminal(); got != tt.want {
				t.Errorf("Expected Terminal()=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestCleanClauseID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.txt", "3"},
		{"3", "3"},
		{"clause-7.txt", "clause-7"},
		{"", ""},
		{"notes.txt.txt", "notes.txt"},
	}

	for _, tt := range tests {
		if got := CleanClauseID(tt.in); got != tt.want {
			t.Errorf("CleanClauseID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeClauseFieldPriority(t *testing.T) {
	tests := []struct {
		name            string
		raw             RawClause
		wantText        string
		wantRisk        model.Risk
		wantExplanation string
	}{
		{
			name:     "original_clause beats text",
			raw:      RawClause{ID: "c1", OriginalClause: "original", Text: "fallback"},
			wantText: "original",
			wantRisk: model.RiskUnknown,
		},
		{
			name:     "text beats clause_name",
			raw:      RawClause{ID: "c1", Text: "the text", ClauseName: "Indemnity"},
			wantText: "the text",
			wantRisk: model.RiskUnknown,
		},
		{
			name:     "clause_name as last resort",
			raw:      RawClause{ID: "c1", ClauseName: "Indemnity"},
			wantText: "Indemnity",
			wantRisk: model.RiskUnknown,
		},
		{
			name:     "rating beats risk",
			raw:      RawClause{ID: "c1", Text: "t", Rating: "red", Risk: "green"},
			wantRisk: model.RiskRed,
			wantText: "t",
		},
		{
			name:     "risk used when rating absent",
			raw:      RawClause{ID: "c1", Text: "t", Risk: "yellow"},
			wantRisk: model.RiskYellow,
			wantText: "t",
		},
		{
			name:     "unknown rating coerced",
			raw:      RawClause{ID: "c1", Text: "t", Rating: "severe"},
			wantRisk: model.RiskUnknown,
			wantText: "t",
		},
		{
			name:            "detailed_rationale beats explanation",
			raw:             RawClause{ID: "c1", Text: "t", Rationale: "long form", Explanation: "short"},
			wantExplanation: "long form",
			wantRisk:        model.RiskUnknown,
			wantText:        "t",
		},
		{
			name:            "description as last resort",
			raw:             RawClause{ID: "c1", Text: "t", Description: "desc"},
			wantExplanation: "desc",
			wantRisk:        model.RiskUnknown,
			wantText:        "t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NormalizeClause("doc-1", 0, tt.raw)
			if c.Text != tt.wantText {
				t.Errorf("Expected text %q, got %q", tt.wantText, c.Text)
			}
			if c.Risk != tt.wantRisk {
				t.Errorf("Expected risk %q, got %q", tt.wantRisk, c.Risk)
			}
			if c.Explanation != tt.wantExplanation {
				t.Errorf("Expected explanation %q, got %q", tt.wantExplanation, c.Explanation)
			}
		})
	}
}

func TestNormalizeClauseIDHandling(t *testing.T) {
	// id beats clause_id, and suffixes are stripped
	c := NormalizeClause("doc-1", 0, RawClause{ID: "7.txt", ClauseID: "other", Text: "t"})
	if c.ID != "7" {
		t.Errorf("Expected id '7', got '%s'", c.ID)
	}

	c = NormalizeClause("doc-1", 0, RawClause{ClauseID: "9.txt", Text: "t"})
	if c.ID != "9" {
		t.Errorf("Expected id '9', got '%s'", c.ID)
	}
}

func TestNormalizeClauseSynthesizedID(t *testing.T) {
	raw := RawClause{Text: "no id here"}

	first := NormalizeClause("doc-1", 3, raw)
	second := NormalizeClause("doc-1", 3, raw)
	if first.ID == "" {
		t.Fatal("Expected a synthesized id")
	}
	if first.ID != second.ID {
		t.Errorf("Synthesized ids differ across calls: %q vs %q", first.ID, second.ID)
	}

	// Different position or document yields a different id
	other := NormalizeClause("doc-1", 4, raw)
	if other.ID == first.ID {
		t.Error("Expected different ids for different positions")
	}
	otherDoc := NormalizeClause("doc-2", 3, raw)
	if otherDoc.ID == first.ID {
		t.Error("Expected different ids for different documents")
	}
}

func TestNormalizeClausesIdempotent(t *testing.T) {
	raws := []RawClause{
		{ID: "c1", OriginalClause: "first", Rating: "red", RewriteOptions: []string{"softer"}},
		{Text: "second", Risk: "green", LegalAidsSnake: []RawLegalAid{{Name: "aid", URL: "http://a"}}},
		{ClauseName: "Termination", LegalAidsCamel: []RawLegalAid{{Name: "camel", URL: "http://b"}}},
	}

	first := NormalizeClauses("doc-1", raws)
	second := NormalizeClauses("doc-1", raws)
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected normalization to be deterministic")
	}

	if first[1].LegalAids[0].Name != "aid" {
		t.Errorf("Expected snake_case legal aids, got %+v", first[1].LegalAids)
	}
	if first[2].LegalAids[0].Name != "camel" {
		t.Errorf("Expected camelCase legal aids fallback, got %+v", first[2].LegalAids)
	}
	// Collections are never nil after normalization
	for i, c := range first {
		if c.Alternatives == nil || c.LegalAids == nil {
			t.Errorf("Clause %d has nil collections: %+v", i, c)
		}
	}
}

func TestGhostClause(t *testing.T) {
	mc := MissingClause{
		ClauseName:  "Indemnification",
		Description: "Protects against third-party claims",
		Reason:      "Standard in this contract type",
	}

	g := GhostClause("doc-1", mc)
	if !strings.HasPrefix(g.ID, "ghost-") {
		t.Errorf("Expected ghost- prefixed id, got '%s'", g.ID)
	}
	if !g.IsGhost() {
		t.Error("Expected IsGhost() to be true")
	}
	if g.Text != "Indemnification: Protects against third-party claims" {
		t.Errorf("Unexpected ghost text: %q", g.Text)
	}
	if g.Explanation != mc.Reason {
		t.Errorf("Expected explanation %q, got %q", mc.Reason, g.Explanation)
	}

	// Same suggestion maps to the same id
	again := GhostClause("doc-1", mc)
	if again.ID != g.ID {
		t.Errorf("Ghost ids differ across calls: %q vs %q", g.ID, again.ID)
	}
	// Different suggestion gets a different id
	other := GhostClause("doc-1", MissingClause{ClauseName: "Severability", Description: "x"})
	if other.ID == g.ID {
		t.Error("Expected different ids for different suggestions")
	}
}

func TestApplyDetail(t *testing.T) {
	base := model.Clause{
		ID:           "c1",
		DocumentID:   "doc-1",
		Text:         "original text",
		Risk:         model.RiskRed,
		Explanation:  "original explanation",
		Alternatives: []string{"alt"},
		LegalAids:    []model.LegalAid{{Name: "old", URL: "http://old"}},
	}

	t.Run("full detail overwrites", func(t *testing.T) {
		c := base
		ApplyDetail(&c, &ClauseDetail{
			OriginalText:   "richer text",
			Risk:           "yellow",
			ELI5:           "plain words",
			RewriteOptions: []string{"a", "b"},
			LegalAids:      []RawLegalAid{{Name: "new", URL: "http://new"}},
		})
		if c.Text != "richer text" || c.Risk != model.RiskYellow || c.Explanation != "plain words" {
			t.Errorf("Detail fields not applied: %+v", c)
		}
		if len(c.Alternatives) != 2 || c.LegalAids[0].Name != "new" {
			t.Errorf("Collections not applied: %+v", c)
		}
	})

	t.Run("empty detail keeps current values", func(t *testing.T) {
		c := base
		ApplyDetail(&c, &ClauseDetail{})
		if !reflect.DeepEqual(c, base) {
			t.Errorf("Empty detail mutated the clause: %+v", c)
		}
	})

	t.Run("unknown risk string coerced", func(t *testing.T) {
		c := base
		ApplyDetail(&c, &ClauseDetail{Risk: "purple"})
		if c.Risk != model.RiskUnknown {
			t.Errorf("Expected unknown risk, got '%s'", c.Risk)
		}
	})
}
