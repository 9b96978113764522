package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chorsey/apiserver/types"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message types sent to clients. Task events use their own event type.
const (
	MessageConnected = "connected"
)

// Hub pushes task events to connected websocket clients. Administrators
// receive every event; participants only receive events for tasks assigned
// to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	log      hclog.Logger
}

type client struct {
	conn *websocket.Conn
	user types.User
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub accepting upgrades from the given origins. An empty
// list or "*" accepts any origin.
func NewHub(logger hclog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		log:     logger.Named("live"),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}

// Welcome is the first message sent on a new connection.
type Welcome struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Serve upgrades the request and streams events to user until the
// connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, user types.User) {
	if h.isClosed() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, user: user, send: make(chan []byte, sendBuffer)}
	welcome, _ := json.Marshal(Welcome{Type: MessageConnected, UserID: user.ID})
	c.send <- welcome

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server is shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("client connected", "user_id", user.ID)

	go h.writePump(c)
	h.readPump(c)
}

// NotifyTask delivers the event to every client allowed to see the task.
// Clients that cannot keep up are disconnected.
func (h *Hub) NotifyTask(_ context.Context, event types.TaskEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to encode task event", "task_id", event.Task.ID, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !c.user.IsAdmin() && c.user.ID != event.Task.AssignedTo {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", "user_id", c.user.ID)
		h.remove(c)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Close disconnects every client. Connections attempted afterwards are
// refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readPump discards client messages and keeps the read deadline fresh so
// dead peers are noticed.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		h.log.Debug("client disconnected", "user_id", c.user.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed", "user_id", c.user.ID, "error", err)
			}
			return
		}
	}
}

// writePump is the only writer on the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Warn("websocket write failed", "user_id", c.user.ID, "error", err)
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
