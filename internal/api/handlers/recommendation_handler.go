package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinovia/intake/internal/services"
	"github.com/clinovia/intake/internal/utils"
)

type RecommendationHandler struct {
	svc services.RecommendationService
}

func NewRecommendationHandler(svc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

type RecommendRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	PatientNotes string `json:"patient_notes"`
	TopK         int    `json:"top_k"`
}

func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecommendationHandler.Recommend", "invalid request body", err))
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 3
	}

	result, err := h.svc.Recommend(c.Request.Context(), req.SessionID, req.PatientNotes, topK)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type LatestRecommendationResponse struct {
	SessionID string `json:"session_id"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
	Result    any    `json:"result,omitempty"`
}

// Latest returns the most recent recommendation for a session. A session
// with no recommendation is a normal response, not an error.
func (h *RecommendationHandler) Latest(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecommendationHandler.Latest", "session_id is required", nil))
		return
	}

	result, err := h.svc.Latest(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, LatestRecommendationResponse{
			SessionID: sessionID,
			Available: false,
			Detail:    "No recommendation available yet for this session.",
		})
		return
	}
	c.JSON(http.StatusOK, LatestRecommendationResponse{
		SessionID: sessionID,
		Available: true,
		Result:    result,
	})
}
