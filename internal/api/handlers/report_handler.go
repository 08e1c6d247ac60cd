package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinovia/intake/internal/services"
	"github.com/clinovia/intake/internal/utils"
)

type ReportHandler struct {
	svc services.ReportService
}

func NewReportHandler(svc services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type UploadReportRequest struct {
	SessionID     string `json:"session_id" binding:"required"`
	Filename      string `json:"filename" binding:"required"`
	ContentBase64 string `json:"content_base64" binding:"required"`
}

type UploadReportResponse struct {
	SessionID   string `json:"session_id"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
}

func (h *ReportHandler) Upload(c *gin.Context) {
	var req UploadReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReportHandler.Upload", "invalid request body", err))
		return
	}

	location, err := h.svc.Upload(c.Request.Context(), req.SessionID, req.Filename, req.ContentBase64)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadReportResponse{
		SessionID:   req.SessionID,
		Filename:    req.Filename,
		StoragePath: location,
	})
}

func (h *ReportHandler) List(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReportHandler.List", "session_id is required", nil))
		return
	}

	list, err := h.svc.List(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"count":      list.Count,
		"files":      list.Files,
	})
}
