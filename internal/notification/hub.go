package notification

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 16
)

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans toasts out to every open connection of a user. A user may have
// several tabs open, so connections are kept per user as a set.
type Hub struct {
	connections map[int64]map[*client]struct{}
	mutex       sync.RWMutex
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[int64]map[*client]struct{}),
		logger:      logger,
	}
}

func (h *Hub) register(userID int64, conn *websocket.Conn) *client {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	set, ok := h.connections[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.connections[userID] = set
	}
	set[c] = struct{}{}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	set, ok := h.connections[c.userID]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.connections, c.userID)
	}
	c.close()
}

// Notify pushes a toast to the user and returns immediately. Connections
// whose buffer is full miss the toast.
func (h *Hub) Notify(userID int64, kind Kind, message, title string) {
	if !h.IsOnline(userID) {
		h.logger.Debug("toast skipped, user offline", zap.Int64("user_id", userID))
		return
	}

	payload, err := json.Marshal(NewToast(kind, message, title))
	if err != nil {
		h.logger.Warn("marshal toast", zap.Error(err))
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for c := range h.connections[userID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Debug("toast dropped for slow client", zap.Int64("user_id", userID))
		}
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections[userID]) > 0
}

func (h *Hub) GetOnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, set := range h.connections {
		for c := range set {
			c.close()
		}
		delete(h.connections, userID)
	}
}

// writePump is the only writer of c.conn.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection until the client goes away. The stream is
// one-way; client frames are ignored.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("notification socket closed", zap.Int64("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}
