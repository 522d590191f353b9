package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ta-h-a/Hack2SkillFrontend/model"
)

// The engine has shipped several clause payload shapes over time: a bare
// array, an object wrapping a "clauses" array, snake_case and camelCase
// field names, and "rating" vs "risk". All of that drift is absorbed here,
// in one place, with a fixed priority order per field. Everything downstream
// sees only model.Clause.

// RawLegalAid tolerates both name/url casings seen upstream.
type RawLegalAid struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RawClause is one clause record as the engine sends it, all known field
// spellings included.
type RawClause struct {
	ID             string        `json:"id"`
	ClauseID       string        `json:"clause_id"`
	OriginalClause string        `json:"original_clause"`
	Text           string        `json:"text"`
	ClauseName     string        `json:"clause_name"`
	Rating         string        `json:"rating"`
	Risk           string        `json:"risk"`
	Rationale      string        `json:"detailed_rationale"`
	Explanation    string        `json:"explanation"`
	Description    string        `json:"description"`
	RewriteOptions []string      `json:"rewrite_options"`
	Alternatives   []string      `json:"alternatives"`
	LegalAidsSnake []RawLegalAid `json:"legal_aids"`
	LegalAidsCamel []RawLegalAid `json:"legalAids"`
}

// AnalysisResult is the raw payload of GET /result/{uid}. The endpoint has
// returned both a bare clause array and a {status, clauses} object; both
// decode into this struct.
type AnalysisResult struct {
	Status  string
	Error   string
	Clauses []RawClause
}

type analysisResultObject struct {
	Status  string      `json:"status"`
	Error   string      `json:"error"`
	Clauses []RawClause `json:"clauses"`
}

func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var clauses []RawClause
		if err := json.Unmarshal(data, &clauses); err != nil {
			return err
		}
		// A bare array is only ever sent for a finished job
		*r = AnalysisResult{Status: model.StatusCompleted, Clauses: clauses}
		return nil
	}

	var obj analysisResultObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = AnalysisResult{Status: obj.Status, Error: obj.Error, Clauses: obj.Clauses}
	return nil
}

// Terminal reports whether the analysis job has finished, successfully or not.
func (r *AnalysisResult) Terminal() bool {
	switch r.Status {
	case model.StatusCompleted, model.StatusFailed, "error":
		return true
	}
	// Clauses without a status wrapper mean the job already completed
	return r.Status == "" && len(r.Clauses) > 0
}

// Failed reports whether the job ended in an error state.
func (r *AnalysisResult) Failed() bool {
	return r.Status == model.StatusFailed || r.Status == "error"
}

// clauseIDSuffixes are file-extension suffixes the engine leaks into clause
// ids on the list endpoint but rejects on the detail endpoint.
var clauseIDSuffixes = []string{".txt"}

// CleanClauseID strips known file-extension suffixes from a clause id so the
// same id works against every engine endpoint.
func CleanClauseID(id string) string {
	for _, suffix := range clauseIDSuffixes {
		id = strings.TrimSuffix(id, suffix)
	}
	return id
}

// shortHash returns a short stable digest of the given parts, used wherever
// an id has to be synthesized. Deterministic so repeated normalization of
// the same payload yields the same ids.
func shortHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// NormalizeClause maps one raw clause record onto the canonical model. The
// priority order per field is fixed: changing it changes what users see.
// idx is the clause's position in the payload, used only when the engine
// omitted an id.
func NormalizeClause(documentID string, idx int, raw RawClause) model.Clause {
	text := firstNonEmpty(raw.OriginalClause, raw.Text, raw.ClauseName)
	risk := model.ParseRisk(firstNonEmpty(raw.Rating, raw.Risk))
	explanation := firstNonEmpty(raw.Rationale, raw.Explanation, raw.Description)

	alternatives := raw.RewriteOptions
	if alternatives == nil {
		alternatives = raw.Alternatives
	}
	if alternatives == nil {
		alternatives = []string{}
	}

	rawAids := raw.LegalAidsSnake
	if rawAids == nil {
		rawAids = raw.LegalAidsCamel
	}
	aids := make([]model.LegalAid, 0, len(rawAids))
	for _, a := range rawAids {
		aids = append(aids, model.LegalAid{Name: a.Name, URL: a.URL})
	}

	id := firstNonEmpty(raw.ID, raw.ClauseID)
	if id == "" {
		// Synthesized, never random: the same payload must map to the same
		// id on every poll or ghost entries would duplicate across renders.
		id = fmt.Sprintf("c%d-%s", idx, shortHash(documentID, text))
	}
	id = CleanClauseID(id)

	return model.Clause{
		ID:           id,
		DocumentID:   documentID,
		Text:         text,
		Risk:         risk,
		Explanation:  explanation,
		Alternatives: alternatives,
		LegalAids:    aids,
	}
}

// NormalizeClauses maps a full raw payload onto the canonical clause list.
// Idempotent: normalizing the same payload twice yields structurally equal
// results, which makes repeated polls safe to apply wholesale.
func NormalizeClauses(documentID string, raws []RawClause) []model.Clause {
	clauses := make([]model.Clause, 0, len(raws))
	for i, raw := range raws {
		clauses = append(clauses, NormalizeClause(documentID, i, raw))
	}
	return clauses
}

// MissingClause is one engine suggestion for a clause the document lacks.
type MissingClause struct {
	ClauseName  string `json:"clause_name"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// GhostClause converts a missing-clause suggestion into a canonical clause.
// The id is derived from the suggestion's content with a "ghost-" prefix, a
// namespace real clause ids never use, so the two can't collide and the
// same suggestion maps to the same id across calls.
func GhostClause(documentID string, mc MissingClause) model.Clause {
	return model.Clause{
		ID:           "ghost-" + shortHash(documentID, mc.ClauseName, mc.Description),
		DocumentID:   documentID,
		Text:         fmt.Sprintf("%s: %s", mc.ClauseName, mc.Description),
		Risk:         model.RiskGhost,
		Explanation:  mc.Reason,
		Alternatives: []string{},
		LegalAids:    []model.LegalAid{},
	}
}

// GhostClauses converts a batch of suggestions.
func GhostClauses(documentID string, mcs []MissingClause) []model.Clause {
	ghosts := make([]model.Clause, 0, len(mcs))
	for _, mc := range mcs {
		ghosts = append(ghosts, GhostClause(documentID, mc))
	}
	return ghosts
}

// ClauseDetail is the richer per-clause record from GET /clause/{uid}/{id}.
type ClauseDetail struct {
	ClauseID       string        `json:"clause_id"`
	OriginalText   string        `json:"original_text"`
	Risk           string        `json:"risk"`
	ELI5           string        `json:"eli5"`
	RewriteOptions []string      `json:"rewrite_options"`
	LegalAids      []RawLegalAid `json:"legal_aids"`
}

// ApplyDetail merges a detail payload into a clause, field by field. Fields
// the detail endpoint did not populate keep their current values.
func ApplyDetail(c *model.Clause, d *ClauseDetail) {
	if d.OriginalText != "" {
		c.Text = d.OriginalText
	}
	if d.ELI5 != "" {
		c.Explanation = d.ELI5
	}
	if d.Risk != "" {
		c.Risk = model.ParseRisk(d.Risk)
	}
	if d.RewriteOptions != nil {
		c.Alternatives = d.RewriteOptions
	}
	if d.LegalAids != nil {
		aids := make([]model.LegalAid, 0, len(d.LegalAids))
		for _, a := range d.LegalAids {
			aids = append(aids, model.LegalAid{Name: a.Name, URL: a.URL})
		}
		c.LegalAids = aids
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
