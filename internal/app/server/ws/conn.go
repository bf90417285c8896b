package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	*websocket.Conn
	ctx       context.Context
	cancel    context.CancelFunc
	readLimit int64
}

func NewWebSocket(parent context.Context, conn *websocket.Conn, readLimit int64) *WebSocket {
	ctx, cancel := context.WithCancel(parent)
	return &WebSocket{Conn: conn, ctx: ctx, cancel: cancel, readLimit: readLimit}
}

func (w *WebSocket) WriteMessage(data []byte) error {
	w.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.Conn.WriteMessage(websocket.TextMessage, data)
}

// ReadLoop blocks delivering inbound frames to onMsg until the connection
// drops. The read limit covers the largest allowed attachment frame; gorilla
// kills the connection when a peer exceeds it.
func (w *WebSocket) ReadLoop(onMsg func([]byte)) {
	defer func() {
		w.Close()
	}()

	w.Conn.SetReadLimit(w.readLimit)

	for {
		_, data, err := w.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("ws - read loop - unexpected close", "err", err)
			}
			break
		}

		if len(data) > 0 {
			onMsg(data)
		}
	}
}

func (w *WebSocket) Close() {
	w.cancel()
	_ = w.Conn.Close()
}
