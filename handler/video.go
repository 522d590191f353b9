package handler

import (
	"net/http"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/middleware"
	"github.com/Ta-h-a/Hack2SkillFrontend/model"
	"github.com/Ta-h-a/Hack2SkillFrontend/pkg/logger"
	"github.com/Ta-h-a/Hack2SkillFrontend/service"
	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	engine       *service.EngineService
	store        *service.DocumentStore
	synchronizer *service.Synchronizer
}

func NewVideoHandler(engine *service.EngineService, store *service.DocumentStore, sync *service.Synchronizer) *VideoHandler {
	return &VideoHandler{
		engine:       engine,
		store:        store,
		synchronizer: sync,
	}
}

type StartVideoRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	UID    string `json:"uid" binding:"required"`
}

// Start begins a video-summary job for a document and registers a watcher
// that tracks it to completion.
func (h *VideoHandler) Start(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	var req StartVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	doc := h.store.GetForTenant(req.UID, tenant)
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	jobID, err := h.engine.StartVideoGen(c.Request.Context(), req.Prompt, req.UID)
	if err != nil {
		logger.Warn(c.Request.Context(), "video generation start failed", "document_id", req.UID, "error", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to start video generation: " + err.Error()})
		return
	}

	h.store.SaveVideoJob(&model.VideoJob{
		JobID:      jobID,
		DocumentID: req.UID,
		Tenant:     tenant,
		Status:     model.VideoQueued,
		CreatedAt:  time.Now(),
	})
	h.synchronizer.WatchVideo(jobID)

	c.JSON(http.StatusOK, gin.H{"job_id": jobID})
}

// GetStatus reports the tracked state of a video job. Jobs started before a
// restart are not in the store; those are answered straight from the engine.
func (h *VideoHandler) GetStatus(c *gin.Context) {
	tenant := middleware.GetTenant(c)
	jobID := c.Param("jobId")

	if job := h.store.GetVideoJob(jobID); job != nil {
		if job.Tenant != tenant {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video job not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"job_id":    job.JobID,
			"status":    job.Status,
			"video_url": job.VideoURL,
			"error":     job.ErrorMsg,
		})
		return
	}

	status, err := h.engine.GetVideoGenStatus(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": "Failed to get video status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":    jobID,
		"status":    status.Status,
		"video_url": status.VideoURL,
		"error":     status.ErrorMsg,
	})
}
