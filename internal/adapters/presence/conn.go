package presence

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/core"
)

// wsFrame pairs a payload with its websocket message type so the presence
// (text) and editing (binary) framings share one write pump.
type wsFrame struct {
	messageType int
	data        []byte
}

// wsConn implements core.PresenceConnection over one gorilla socket.
type wsConn struct {
	conn *websocket.Conn
	send chan wsFrame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn, send: make(chan wsFrame, 32)}
}

func (c *wsConn) TrySend(data []byte) error {
	return c.trySend(wsFrame{messageType: websocket.TextMessage, data: data})
}

func (c *wsConn) TrySendBinary(data []byte) error {
	return c.trySend(wsFrame{messageType: websocket.BinaryMessage, data: data})
}

func (c *wsConn) trySend(f wsFrame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrBackpressure
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *wsConn) closeWithCode(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	c.Close()
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "presence").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(frame.messageType, frame.data); err != nil {
				log.Error().Err(err).Str("module", "presence").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
