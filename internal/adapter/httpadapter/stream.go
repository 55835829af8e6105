package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/geosight-viewer/internal/viewer"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Clients only send pongs and close frames.
	maxMessageSize = 512
)

// handleStream upgrades to a websocket and forwards the session's updates
// until either side goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", sess.ID(), "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	c := &streamClient{conn: conn, logger: s.logger.With("session_id", sess.ID())}
	hello := viewer.Update{Kind: viewer.UpdateMounted, Mode: sess.Mode(), Epoch: sess.Epoch()}
	if err := c.write(hello); err != nil {
		return
	}

	gone := make(chan struct{})
	go c.readPump(gone)
	c.writePump(updates, gone)
}

type streamClient struct {
	conn   *websocket.Conn
	logger *slog.Logger
}

// readPump drains the connection so pongs and close frames are processed.
// It closes gone when the peer disconnects.
func (c *streamClient) readPump(gone chan<- struct{}) {
	defer close(gone)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed", "error", err)
			}
			return
		}
	}
}

// writePump forwards updates and keeps the connection alive with pings.
func (c *streamClient) writePump(updates <-chan viewer.Update, gone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				// The session was closed.
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"))
				return
			}
			if err := c.write(u); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func (c *streamClient) write(u viewer.Update) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(u); err != nil {
		c.logger.Debug("websocket write failed", "error", err)
		return err
	}
	return nil
}
