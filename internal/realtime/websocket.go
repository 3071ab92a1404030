package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quizzly/internal/logger"
)

const wsWriteTimeout = 2 * time.Second

// WSNotifier keeps one websocket connection open for the session. Emit on a
// closed or never-opened connection returns ErrNotConnected without dialing.
type WSNotifier struct {
	url string
	log *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSNotifier(url string, log *logger.Logger) *WSNotifier {
	return &WSNotifier{url: url, log: logger.OrNop(log).With("component", "realtime.ws")}
}

// Connect dials the socket. header may carry the bearer credential.
func (n *WSNotifier) Connect(ctx context.Context, header http.Header) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, n.url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", n.url, err)
	}

	n.mu.Lock()
	if n.conn != nil {
		_ = n.conn.Close()
	}
	n.conn = conn
	n.mu.Unlock()

	go n.drain(conn)
	return nil
}

// drain consumes inbound frames so control messages are processed, and marks
// the notifier disconnected when the peer goes away.
func (n *WSNotifier) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				n.log.Debug("socket closed", "error", err)
			}
			n.mu.Lock()
			if n.conn == conn {
				n.conn = nil
			}
			n.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
}

func (n *WSNotifier) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conn != nil
}

func (n *WSNotifier) Emit(ctx context.Context, event Event) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(wsWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = n.conn.SetWriteDeadline(deadline)
	if err := n.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write %s: %w", EventQuizSubmitted, err)
	}
	return nil
}

func (n *WSNotifier) Close() error {
	n.mu.Lock()
	conn := n.conn
	n.conn = nil
	n.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}
