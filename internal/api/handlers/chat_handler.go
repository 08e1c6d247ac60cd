package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinovia/intake/internal/services"
	"github.com/clinovia/intake/internal/utils"
)

type ChatHandler struct {
	svc services.IntakeService
}

func NewChatHandler(svc services.IntakeService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// Chat runs one intake turn. A missing session_id starts a new session.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "invalid request body", err))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = utils.NewSessionID()
	}

	resp, err := h.svc.HandleMessage(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
