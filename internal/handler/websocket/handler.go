package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"plantguard/internal/hub"
)

// WebSocketHandler upgrades authenticated requests onto the prediction feed.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler builds the handler. allowedOrigin "" or "*" accepts any origin.
func NewWebSocketHandler(h *hub.Hub, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h}
}

// HandleConnection serves GET /ws/predictions. The auth middleware must run first.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	// 1. Authenticated user, set by the auth middleware
	userID := c.GetString("user_id")
	if userID == "" {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	// 2. Upgrade; on failure Upgrade has already written the HTTP error
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	// 3. Register and start pumps
	client := hub.NewClient(h.hub, conn, userID)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub unavailable, closing connection")
		client.CloseConn()
		return
	}
	client.Run()
	logCtx.Info("WS Handler: Feed client connected")
}
