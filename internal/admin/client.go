package admin

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one connected admin WebSocket session. Reads happen on a
// dedicated goroutine per connection (the "worker thread" of spec.md §5);
// writes are serialized with a mutex since gorilla/websocket connections
// are not safe for concurrent writers, mirroring the teacher's
// mutex-guarded ConnectedClient.sendMessage pattern.
type Client struct {
	id        uint64
	sessionID string
	conn      *websocket.Conn
	server    *Server

	authenticated  bool
	authTimer      *time.Timer
	heartbeatTimer *time.Timer
	lastPong       time.Time

	writeMu sync.Mutex
	closed  bool
}

func (c *Client) readLoop() {
	defer c.conn.Close()
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		frame := string(data)
		c.server.loop.Post(func() { c.server.handleFrame(c, frame) })
	}
	c.server.loop.Post(func() { c.server.removeClient(c.id) })
}

func (c *Client) sendRaw(text string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	_ = c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

// closeWithReason sends a close frame (reason may be empty for the
// heartbeat-miss case, which spec.md §6.3 leaves without a specific
// code) and tears down the connection.
func (c *Client) closeWithReason(reason string) {
	c.writeMu.Lock()
	if !c.closed {
		c.closed = true
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
	}
	c.writeMu.Unlock()
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
	}
	_ = c.conn.Close()
}
