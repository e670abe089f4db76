package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sdoering01/neopult/internal/loop"
	"github.com/sdoering01/neopult/internal/registry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Config holds the server-configured auth and heartbeat timing (spec.md
// §4.6, §6.1).
type Config struct {
	Password          string
	AuthTimeout       time.Duration
	HeartbeatInterval time.Duration
	HeartbeatMiss     time.Duration
}

// Server is the admin WebSocket endpoint for one channel.
type Server struct {
	cfg    Config
	reg    *registry.Registry
	loop   *loop.Loop
	logger *slog.Logger

	nextID  atomic.Uint64
	mu      sync.Mutex
	clients map[uint64]*Client
}

// NewServer builds a Server and registers it as the registry's observer, so
// every module status/message/active-actions mutation is fanned out to
// connected clients (spec.md §4.5, §4.6).
func NewServer(cfg Config, reg *registry.Registry, l *loop.Loop, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		reg:     reg,
		loop:    l,
		logger:  logger,
		clients: map[uint64]*Client{},
	}
	reg.SetObserver(s)
	return s
}

// Handler returns the http.Handler to mount at "/ws".
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("admin websocket upgrade failed", "error", err)
		return
	}

	id := s.nextID.Add(1)
	sessionID := uuid.NewString()
	client := &Client{id: id, sessionID: sessionID, conn: conn, server: s}

	s.mu.Lock()
	s.clients[id] = client
	s.mu.Unlock()

	s.logger.Info("admin client connected", "session_id", sessionID, "remote_addr", r.RemoteAddr)

	client.authTimer = time.AfterFunc(s.cfg.AuthTimeout, func() {
		s.loop.Post(func() { s.expireAuth(client) })
	})

	client.readLoop()
}

func (s *Server) expireAuth(c *Client) {
	if c.authenticated || c.closed {
		return
	}
	s.closeClient(c, "auth_timeout")
}

func (s *Server) removeClient(id uint64) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

func (s *Server) closeClient(c *Client, reason string) {
	s.logger.Info("admin client disconnected", "session_id", c.sessionID, "reason", reason)
	c.closeWithReason(reason)
	s.removeClient(c.id)
}

// handleFrame runs a decoded client frame on the loop thread. This is the
// boundary where the read goroutine's raw bytes become a host-state
// mutation (spec.md §5 "every worker posts decoded events via an MPSC
// channel to the loop").
func (s *Server) handleFrame(c *Client, frame string) {
	if !c.authenticated {
		s.handleAuthFrame(c, frame)
		return
	}
	switch frame {
	case `"pong"`, "pong":
		c.lastPong = time.Now()
		return
	case `"ping"`, "ping":
		c.sendRaw(`"pong"`)
		return
	}

	var env RequestEnvelope
	if err := json.Unmarshal([]byte(frame), &env); err != nil {
		s.logger.Warn("admin client sent malformed frame", "error", err)
		return
	}
	if env.Request == nil || env.Request.Body.CallAction == nil {
		return
	}
	s.dispatchCallAction(env.Request.Body.CallAction)
}

const authPrefix = "Password "

func (s *Server) handleAuthFrame(c *Client, frame string) {
	if s.cfg.Password == "" || len(frame) <= len(authPrefix) || frame[:len(authPrefix)] != authPrefix {
		s.closeClient(c, "auth")
		return
	}
	pw := frame[len(authPrefix):]
	if pw != s.cfg.Password {
		s.closeClient(c, "auth")
		return
	}

	c.authenticated = true
	c.authTimer.Stop()
	s.sendSnapshot(c)
	s.startHeartbeat(c)
}

func (s *Server) dispatchCallAction(call *CallActionBody) {
	p, ok := s.reg.PluginInstance(call.PluginInstance)
	if !ok {
		s.logger.Warn("call_action: unknown plugin instance", "plugin_instance", call.PluginInstance)
		return
	}
	m, ok := p.Module(call.Module)
	if !ok {
		s.logger.Warn("call_action: unknown module", "plugin_instance", call.PluginInstance, "module", call.Module)
		return
	}
	a, ok := m.Action(call.Action)
	if !ok {
		s.logger.Warn("call_action: unknown action", "plugin_instance", call.PluginInstance, "module", call.Module, "action", call.Action)
		return
	}
	a.Callback()
}

func (s *Server) startHeartbeat(c *Client) {
	c.lastPong = time.Now()
	c.heartbeatTimer = time.AfterFunc(s.cfg.HeartbeatInterval, func() {
		s.loop.Post(func() { s.heartbeatTick(c) })
	})
}

func (s *Server) heartbeatTick(c *Client) {
	if c.closed {
		return
	}
	if time.Since(c.lastPong) > s.cfg.HeartbeatMiss {
		s.closeClient(c, "")
		return
	}
	c.sendRaw(`"ping"`)
	c.heartbeatTimer = time.AfterFunc(s.cfg.HeartbeatInterval, func() {
		s.loop.Post(func() { s.heartbeatTick(c) })
	})
}

func (s *Server) sendSnapshot(c *Client) {
	info := SystemInfo{}
	for _, p := range s.reg.PluginInstances() {
		pi := PluginInstanceInfo{Name: p.Name()}
		for _, m := range p.Modules() {
			mi := ModuleInfo{
				Name:          m.Name(),
				Status:        strPtr(m.Status()),
				Message:       strPtr(m.Message()),
				ActiveActions: m.ActiveActions(),
			}
			if dn, ok := m.DisplayName(); ok {
				mi.DisplayName = &dn
			}
			for _, a := range m.Actions() {
				mi.Actions = append(mi.Actions, a.Info())
			}
			if mi.Actions == nil {
				mi.Actions = []registry.ActionInfo{}
			}
			if mi.ActiveActions == nil {
				mi.ActiveActions = []string{}
			}
			pi.Modules = append(pi.Modules, mi)
		}
		info.PluginInstances = append(info.PluginInstances, pi)
	}
	c.sendJSON(SystemInfoMessage{SystemInfo: info})
}

// ---- registry.Observer ----------------------------------------------

func (s *Server) ModuleStatusChanged(pluginInstance, module, status string, statusSet bool) {
	var newStatus *string
	if statusSet {
		newStatus = &status
	}
	s.broadcast(NotificationMessage{Notification: Notification{
		ModuleStatusUpdate: &ModuleStatusUpdate{PluginInstance: pluginInstance, Module: module, NewStatus: newStatus},
	}})
}

func (s *Server) ModuleMessageChanged(pluginInstance, module, message string, messageSet bool) {
	var newMessage *string
	if messageSet {
		newMessage = &message
	}
	s.broadcast(NotificationMessage{Notification: Notification{
		ModuleMessageUpdate: &ModuleMessageUpdate{PluginInstance: pluginInstance, Module: module, NewMessage: newMessage},
	}})
}

func (s *Server) ModuleActiveActionsChanged(pluginInstance, module string, active []string) {
	if active == nil {
		active = []string{}
	}
	s.broadcast(NotificationMessage{Notification: Notification{
		ModuleActiveActionsUpdate: &ModuleActiveActionsUpdate{PluginInstance: pluginInstance, Module: module, NewActiveActions: active},
	}})
}

func (s *Server) broadcast(msg any) {
	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if c.authenticated {
			c.sendJSON(msg)
		}
	}
}
