package handler

import (
	"context"
	"net/http"

	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

type ClauseHandler struct {
	engine *service.EngineService
	store  *service.DocumentStore

	// ghostFlight collapses concurrent ghost-insert requests per document
	// into a single engine call, so double-clicks can't duplicate ghosts.
	ghostFlight singleflight.Group
}

func NewClauseHandler(engine *service.EngineService, store *service.DocumentStore) *ClauseHandler {
	return &ClauseHandler{
		engine: engine,
		store:  store,
	}
}

// GetDetail fetches the richer per-clause record from the engine and merges
// it into the stored clause. Siblings are untouched; a failed fetch leaves
// previously displayed data intact.
func (h *ClauseHandler) GetDetail(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")
	clauseID := service.CleanClauseID(c.Param("clauseId"))

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	detail, err := h.engine.GetClauseDetail(c.Request.Context(), id, clauseID)
	if err != nil {
		logger.Warn(c.Request.Context(), "clause detail fetch failed", "document_id", id, "clause_id", clauseID, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to fetch clause detail: " + err.Error()})
		return
	}

	h.store.UpdateClause(id, clauseID, func(cl *model.Clause) {
		service.ApplyDetail(cl, detail)
	})

	if merged := h.store.FindClause(id, clauseID); merged != nil {
		c.JSON(http.StatusOK, merged)
		return
	}

	// The clause is not in the list (yet); answer with the detail alone
	raw := service.RawClause{
		ClauseID:       detail.ClauseID,
		OriginalClause: detail.OriginalText,
		Risk:           detail.Risk,
		Explanation:    detail.ELI5,
		RewriteOptions: detail.RewriteOptions,
		LegalAidsSnake: detail.LegalAids,
	}
	c.JSON(http.StatusOK, service.NormalizeClause(id, 0, raw))
}

// InsertGhosts asks the engine which clauses the document is missing and
// appends them as ghost clauses. Additive only: the existing list is never
// modified, and re-running the operation cannot duplicate entries.
func (h *ClauseHandler) InsertGhosts(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	// The engine call is shared by every coalesced caller, so it must not
	// die with whichever request happened to start it. The engine client's
	// own timeout still bounds it.
	ctx := context.WithoutCancel(c.Request.Context())
	v, err, _ := h.ghostFlight.Do(id, func() (any, error) {
		return h.engine.InsertGhost(ctx, id)
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "ghost insertion failed", "document_id", id, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to analyze missing clauses: " + err.Error()})
		return
	}

	resp := v.(*service.MissingClausesResponse)
	ghosts := service.GhostClauses(id, resp.MissingClauses)
	added := h.store.AppendGhosts(id, ghosts)

	c.JSON(http.StatusOK, gin.H{
		"missing_clauses": resp.MissingClauses,
		"ghost_clauses":   ghosts,
		"added":           added,
	})
}

// validTones are the negotiation tones the engine understands.
var validTones = map[string]bool{
	"friendly":   true,
	"firm":       true,
	"aggressive": true,
}

type NegotiateRequest struct {
	Tone string `json:"tone" binding:"required"`
}

// Negotiate requests a rewrite of a clause in the given tone. The result is
// a proposal: the stored clause is not modified unless the client follows
// up with AcceptNegotiation.
func (h *ClauseHandler) Negotiate(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")
	clauseID := service.CleanClauseID(c.Param("clauseId"))

	var req NegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !validTones[req.Tone] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tone. Use friendly, firm, or aggressive."})
		return
	}

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	clause := h.store.FindClause(id, clauseID)
	if clause == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clause not found"})
		return
	}

	// One negotiation per clause at a time; other clauses are unaffected
	unlock := h.store.LockClause(id, clauseID)
	defer unlock()

	result, err := h.engine.Negotiate(c.Request.Context(), id, clauseID, req.Tone, clause.Text, clause.Risk)
	if err != nil {
		logger.Warn(c.Request.Context(), "negotiation failed", "document_id", id, "clause_id", clauseID, "tone", req.Tone, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to generate suggestion: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

type AcceptNegotiationRequest struct {
	RewrittenClause string `json:"rewritten_clause" binding:"required"`
	RiskAfter       string `json:"risk_after"`
}

// AcceptNegotiation applies a previously proposed rewrite to the stored
// clause. This is the only path by which a negotiation result reaches the
// clause list; the default flow never calls it.
func (h *ClauseHandler) AcceptNegotiation(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")
	clauseID := service.CleanClauseID(c.Param("clauseId"))

	var req AcceptNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	unlock := h.store.LockClause(id, clauseID)
	defer unlock()

	found := h.store.UpdateClause(id, clauseID, func(cl *model.Clause) {
		cl.Text = req.RewrittenClause
		if req.RiskAfter != "" {
			cl.Risk = model.ParseRisk(req.RiskAfter)
		}
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Clause not found"})
		return
	}

	c.JSON(http.StatusOK, h.store.FindClause(id, clauseID))
}
