package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"spacebook/internal/middleware"
	"spacebook/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. checkOrigin decides which
// browser origins may connect.
func NewHandler(hub *Hub, checkOrigin func(origin string) bool) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if checkOrigin == nil {
					return true
				}
				return checkOrigin(r.Header.Get("Origin"))
			},
		},
	}
}

// ServeWS streams toasts of the current user.
//
// Endpoint: GET /ws/notifications?session=SESSION_ID
func (h *Handler) ServeWS(c *gin.Context) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("websocket upgrade failed", zap.Int64("user_id", s.UserID), zap.Error(err))
		return
	}

	cl := h.hub.register(s.UserID, conn)
	h.hub.logger.Debug("notification socket opened", zap.Int64("user_id", s.UserID))

	go h.hub.writePump(cl)
	h.hub.readPump(cl)
}
