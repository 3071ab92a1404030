package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizzly/internal/logger"
	"quizzly/internal/realtime"
)

type hubConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hubConn) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub accepts client sockets and rebroadcasts each quizSubmitted event to
// every other connected client.
type Hub struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu    sync.RWMutex
	conns map[*hubConn]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:   logger.OrNop(log).With("component", "socket_hub"),
		conns: make(map[*hubConn]struct{}),
	}
}

func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &hubConn{conn: conn}
	h.mu.Lock()
	h.conns[client] = struct{}{}
	h.mu.Unlock()

	go h.read(client)
	return nil
}

func (h *Hub) read(client *hubConn) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("socket read failed", "error", err)
			}
			return
		}

		event, err := realtime.Decode(payload)
		if err != nil {
			h.log.Debug("ignoring socket message", "error", err)
			continue
		}
		h.log.Info("quiz submitted event", "quiz_id", event.QuizID, "subject", event.Subject)
		h.broadcast(payload, client)
	}
}

// connections snapshots the registry so no lock is held while writing.
func (h *Hub) connections() []*hubConn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*hubConn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) broadcast(payload []byte, except *hubConn) {
	for _, c := range h.connections() {
		if c == except {
			continue
		}
		if err := c.write(payload); err != nil {
			h.log.Debug("socket write failed", "error", err)
			h.remove(c)
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) remove(client *hubConn) {
	h.mu.Lock()
	delete(h.conns, client)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
