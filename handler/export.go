package handler

import (
	"fmt"
	"net/http"

	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	engine  *service.EngineService
	store   *service.DocumentStore
	archive *service.ArchiveService // nil when no archive configured
}

func NewExportHandler(engine *service.EngineService, store *service.DocumentStore, archive *service.ArchiveService) *ExportHandler {
	return &ExportHandler{
		engine:  engine,
		store:   store,
		archive: archive,
	}
}

type ExportRequest struct {
	IncludeGhosts bool   `json:"includeGhosts"`
	IncludeELI5   bool   `json:"includeEli5"`
	Watermark     string `json:"watermark"`
}

// Redline streams the engine-rendered redline document to the client. When
// an archive is configured the blob is also retained and a presigned
// re-download URL returned in the X-Archive-URL header.
func (h *ExportHandler) Redline(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	blob, contentType, err := h.engine.ExportRedline(c.Request.Context(), id, service.ExportOptions{
		IncludeGhosts: req.IncludeGhosts,
		IncludeELI5:   req.IncludeELI5,
		Watermark:     req.Watermark,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "redline export failed", "document_id", id, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Export failed: " + err.Error()})
		return
	}

	if h.archive != nil {
		url, err := h.archive.PutRedline(c.Request.Context(), tenant, id, blob, contentType)
		if err != nil {
			logger.Warn(c.Request.Context(), "failed to archive redline", "document_id", id, "error", err)
		} else {
			c.Header("X-Archive-URL", url)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename+".redline"))
	c.Data(http.StatusOK, contentType, blob)
}
