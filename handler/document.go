package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-gonic/gin"
)

// imageExtensions are the non-PDF upload types the engine can OCR.
var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

type DocumentHandler struct {
	engine       *service.EngineService
	store        *service.DocumentStore
	synchronizer *service.Synchronizer
	archive      *service.ArchiveService // nil when no archive configured
	maxSizeBytes int64
}

func NewDocumentHandler(engine *service.EngineService, store *service.DocumentStore, sync *service.Synchronizer, archive *service.ArchiveService, maxSizeMB int) *DocumentHandler {
	return &DocumentHandler{
		engine:       engine,
		store:        store,
		synchronizer: sync,
		archive:      archive,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Upload validates and forwards a document to the engine, then starts the
// background result watcher. Size and type are rejected locally before any
// network call is made.
func (h *DocumentHandler) Upload(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > h.maxSizeBytes {
		vErr := &service.ValidationError{Msg: fmt.Sprintf("File is too large. Max %dMB allowed.", h.maxSizeBytes/(1024*1024))}
		c.JSON(service.HTTPStatus(vErr), gin.H{"error": vErr.Error()})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	docType := "pdf"
	contentType := "application/pdf"
	if ext != ".pdf" {
		ct, ok := imageExtensions[ext]
		if !ok {
			vErr := &service.ValidationError{Msg: "Unsupported file type. Only PDF and image files are allowed."}
			c.JSON(service.HTTPStatus(vErr), gin.H{"error": vErr.Error()})
			return
		}
		docType = "image"
		contentType = ct
	}

	docName := c.PostForm("doc_name")
	if docName == "" {
		docName = header.Filename
	}
	if v := c.PostForm("doc_type"); v != "" {
		docType = v
	}

	resp, err := h.engine.UploadDocument(c.Request.Context(), header.Filename, docName, docType, file)
	if err != nil {
		logger.Error(c.Request.Context(), "upload failed", "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to upload document: " + err.Error()})
		return
	}

	doc := &model.Document{
		ID:        resp.UID,
		Filename:  header.Filename,
		DocType:   docType,
		Tenant:    tenant,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	h.store.Save(doc)

	// Archive a copy of the original, best effort
	if h.archive != nil {
		if _, err := file.Seek(0, io.SeekStart); err == nil {
			if err := h.archive.PutOriginal(c.Request.Context(), tenant, doc.ID, header.Filename, file, header.Size, contentType); err != nil {
				logger.Warn(c.Request.Context(), "failed to archive original", "document_id", doc.ID, "error", err)
			}
		}
	}

	h.synchronizer.WatchResult(doc.ID)

	c.JSON(http.StatusOK, gin.H{
		"uid":      doc.ID,
		"filename": doc.Filename,
		"doc_type": doc.DocType,
		"status":   model.StatusPending,
	})
}

// List returns all documents for the current tenant, without clause bodies.
func (h *DocumentHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	docs := h.store.GetByTenant(tenant)

	result := make([]gin.H, len(docs))
	for i, doc := range docs {
		result[i] = gin.H{
			"id":         doc.ID,
			"filename":   doc.Filename,
			"doc_type":   doc.DocType,
			"status":     doc.Status,
			"created_at": doc.CreatedAt.Format(time.RFC3339),
			"updated_at": doc.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"documents": result})
}

// Get returns a document with its normalized clause list.
func (h *DocumentHandler) Get(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetStatus returns the analysis status of a document. Clients poll this
// while the engine works.
func (h *DocumentHandler) GetStatus(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        doc.ID,
		"status":    doc.Status,
		"error_msg": doc.ErrorMsg,
	})
}

// Delete removes a document, stops its watcher, and clears its archive.
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	id := c.Param("id")

	doc := h.store.GetForTenant(id, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	h.synchronizer.CancelWatch(id)
	h.store.Delete(id)

	if h.archive != nil {
		if err := h.archive.DeleteDocument(c.Request.Context(), tenant, id); err != nil {
			logger.Warn(c.Request.Context(), "failed to clear archive", "document_id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
