package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/clinovia/intake/internal/services"
	"github.com/clinovia/intake/internal/utils"
)

// WSHandler serves the intake conversation over a WebSocket: every inbound
// message frame produces exactly one chat-response frame.
type WSHandler struct {
	svc      services.IntakeService
	upgrader websocket.Upgrader
}

// NewWSHandler restricts upgrades to the origins listed in
// INTAKE_WS_ALLOWED_ORIGINS (comma separated). With no list configured any
// origin is accepted, matching deployments without a fixed frontend host.
func NewWSHandler(svc services.IntakeService) *WSHandler {
	return &WSHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(os.Getenv("INTAKE_WS_ALLOWED_ORIGINS")),
		},
	}
}

func originChecker(allowed string) func(*http.Request) bool {
	var origins []string
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(origin, o) {
				return true
			}
		}
		return false
	}
}

type wsClientMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

func (w *wsConn) writeError(code utils.Code, msg string) {
	_ = w.writeJSON(gin.H{"type": "error", "code": code, "message": msg})
}

func (h *WSHandler) ChatWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.ChatWS", "missing session_id", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			wc.writeError(utils.CodeInvalidArgument, "invalid json")
			continue
		}

		switch msg.Type {
		case "message":
			if msg.Message == "" {
				wc.writeError(utils.CodeInvalidArgument, "message is required")
				continue
			}
			resp, err := h.svc.HandleMessage(c.Request.Context(), sessionID, msg.Message)
			if err != nil {
				wc.writeError(utils.CodeInternal, "failed to handle message")
				continue
			}
			if err := wc.writeJSON(gin.H{"type": "chat_response", "payload": resp}); err != nil {
				return
			}
		case "ping":
			_ = wc.writeJSON(gin.H{"type": "pong"})
		default:
			wc.writeError(utils.CodeInvalidArgument, "unknown message type")
		}
	}
}
