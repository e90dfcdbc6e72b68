package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxRequestBytes bounds inbound viewer messages.
const maxRequestBytes = 64 << 10

// viewer is one connected WebSocket client. Messages are queued on send
// and written by a dedicated goroutine.
type viewer struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newViewer(id string, conn *websocket.Conn, queue int) *viewer {
	return &viewer{
		id:   id,
		conn: conn,
		send: make(chan []byte, queue),
		done: make(chan struct{}),
	}
}

// enqueue queues data without blocking. It returns false if the viewer
// is closed or its queue is full.
func (v *viewer) enqueue(data []byte) bool {
	select {
	case <-v.done:
		return false
	default:
	}
	select {
	case v.send <- data:
		return true
	default:
		return false
	}
}

func (v *viewer) isClosed() bool {
	select {
	case <-v.done:
		return true
	default:
		return false
	}
}

// close signals the pumps to stop. The write pump closes the connection.
func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.done)
	})
}

// writePump writes queued messages and keepalive pings until the viewer closes.
func (h *Hub) writePump(v *viewer) {
	defer h.wg.Done()
	defer v.conn.Close()

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.done:
			v.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			v.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case data := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug().Err(err).Str("viewer", v.id).Msg("viewer write failed")
				h.remove(v)
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(v)
				return
			}
		}
	}
}

// readPump handles inbound requests until the connection fails.
func (h *Hub) readPump(v *viewer) {
	defer h.wg.Done()
	defer h.remove(v)

	v.conn.SetReadLimit(maxRequestBytes)
	v.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Str("viewer", v.id).Msg("viewer read failed")
			}
			return
		}
		v.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.Warn().Err(err).Str("viewer", v.id).Msg("malformed viewer message")
			continue
		}
		if req.Type == TypeRequestOnChainData {
			h.handleRequest(v, req)
		}
	}
}
