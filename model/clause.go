package model

// Risk is the enumerated severity assigned to a clause by the analysis engine.
type Risk string

const (
	RiskGreen   Risk = "green"
	RiskYellow  Risk = "yellow"
	RiskRed     Risk = "red"
	RiskGhost   Risk = "ghost"
	RiskUnknown Risk = "unknown"
)

// ParseRisk coerces an upstream value into the enumeration. Anything outside
// the known set becomes RiskUnknown, never a free-form string.
func ParseRisk(s string) Risk {
	switch Risk(s) {
	case RiskGreen, RiskYellow, RiskRed, RiskGhost:
		return Risk(s)
	default:
		return RiskUnknown
	}
}

// LegalAid is an external resource reference attached to a clause.
type LegalAid struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Clause is the canonical unit of analysis. Ghost clauses carry a "ghost-"
// prefixed ID so the two id namespaces can never collide.
type Clause struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id"`
	Text         string     `json:"text"`
	Risk         Risk       `json:"risk"`
	Explanation  string     `json:"explanation,omitempty"`
	Alternatives []string   `json:"alternatives"`
	LegalAids    []LegalAid `json:"legal_aids"`
}

// IsGhost reports whether the clause was synthesized by the engine rather
// than found in the source document.
func (c *Clause) IsGhost() bool {
	return c.Risk == RiskGhost
}
