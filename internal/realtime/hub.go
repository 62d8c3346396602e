package realtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alumnethq/alumnet/internal/models"
	"github.com/alumnethq/alumnet/pkg/logger"
	"github.com/alumnethq/alumnet/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	sendBufferSize = 64
)

// Inbound event names accepted from clients.
const (
	EventHandshake   = "handshake"
	EventJoinGroup   = "join_group"
	EventLeaveGroup  = "leave_group"
	EventSendMessage = "send_message"
)

// Outbound event names pushed to clients.
const (
	EventReceiveMessage  = "receive_message"
	EventNewNotification = "new_notification"
	EventPong            = "pong"
)

// Message is the JSON payload exchanged with chat clients.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server-originated event.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type handshakePayload struct {
	Token string `json:"token"`
}

type groupPayload struct {
	GroupID string `json:"group_id"`
}

type sendMessagePayload struct {
	GroupID string `json:"group_id"`
	Text    string `json:"text"`
}

// Authenticator resolves a handshake token to a full user record.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// MessageHandler receives authenticated chat submissions. Implemented by the
// chat service; injected after construction to break the dependency cycle
// between hub and service.
type MessageHandler interface {
	HandleMessage(ctx context.Context, sender *models.User, groupID, text string) error
}

// Hub owns all live chat connections: it drives the per-connection session
// state machine, tracks group subscriptions for broadcast, and keeps the
// connection registry in sync so the notification dispatcher can push to
// online users.
type Hub struct {
	registry *Registry
	authn    Authenticator

	mu       sync.RWMutex
	sessions map[string]*session              // connection ID → session
	groups   map[string]map[*session]struct{} // group ID → subscribers

	handler  MessageHandler
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a chat hub backed by the supplied registry and authenticator.
func NewHub(registry *Registry, authn Authenticator) *Hub {
	return &Hub{
		registry: registry,
		authn:    authn,
		sessions: make(map[string]*session),
		groups:   make(map[string]map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return hostWithoutPort(origin) == hostWithoutPort(r.Host) || isLoopback(hostWithoutPort(origin))
			},
		},
		log: logger.WithModule("realtime"),
	}
}

// SetMessageHandler wires the chat service in after both sides are constructed.
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.handler = handler
}

// Serve upgrades the HTTP connection to a WebSocket and runs the session until
// disconnect. The connection starts unauthenticated; a handshake event must
// arrive before any other operation is honoured.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		id:     uuid.NewString(),
		hub:    h,
		socket: conn,
		send:   make(chan Outbound, sendBufferSize),
		groups: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	metrics.ChatConnections.Inc()

	go s.writeLoop()
	s.readLoop()
}

// PushToUser delivers an unsolicited event to the user's registered connection,
// if one exists. Delivery is fire-and-forget: a missing or congested
// connection is reported as false, never as an error.
func (h *Hub) PushToUser(userID, event string, payload any) bool {
	connID, ok := h.registry.Lookup(userID)
	if !ok {
		return false
	}

	h.mu.RLock()
	s := h.sessions[connID]
	h.mu.RUnlock()
	if s == nil {
		return false
	}

	return s.enqueue(Outbound{Event: event, Data: payload})
}

// BroadcastToGroup delivers an event to every connection subscribed to the group.
func (h *Hub) BroadcastToGroup(groupID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.groups[groupID] {
		s.enqueue(Outbound{Event: event, Data: payload})
	}
}

func (h *Hub) subscribe(s *session, groupID string) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := s.groups[groupID]; exists {
		return
	}
	if h.groups[groupID] == nil {
		h.groups[groupID] = make(map[*session]struct{})
	}
	h.groups[groupID][s] = struct{}{}
	s.groups[groupID] = struct{}{}
}

func (h *Hub) unsubscribe(s *session, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSubscriptionLocked(s, groupID)
}

func (h *Hub) removeSubscriptionLocked(s *session, groupID string) {
	subscribers := h.groups[groupID]
	if subscribers == nil {
		return
	}
	delete(subscribers, s)
	if len(subscribers) == 0 {
		delete(h.groups, groupID)
	}
	delete(s.groups, groupID)
}

// remove tears down all hub state for a session. Safe to call more than once.
func (h *Hub) remove(s *session) {
	h.mu.Lock()
	for groupID := range s.groups {
		h.removeSubscriptionLocked(s, groupID)
	}
	_, tracked := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()

	h.registry.Unregister(s.id)
	if tracked {
		metrics.ChatConnections.Dec()
	}
}

// handleEvent drives the session state machine for one inbound event.
func (h *Hub) handleEvent(s *session, msg Message) {
	switch msg.Event {
	case EventHandshake:
		h.handleHandshake(s, msg.Data)
	case EventJoinGroup:
		if !s.authenticated() {
			h.log.Info("dropping join_group from unauthenticated connection", zap.String("conn_id", s.id))
			return
		}
		var payload groupPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.log.Info("invalid join_group payload", zap.String("conn_id", s.id), zap.Error(err))
			return
		}
		h.subscribe(s, payload.GroupID)
	case EventLeaveGroup:
		if !s.authenticated() {
			return
		}
		var payload groupPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}
		h.unsubscribe(s, strings.TrimSpace(payload.GroupID))
	case EventSendMessage:
		h.handleSendMessage(s, msg.Data)
	case "ping":
		s.enqueue(Outbound{Event: EventPong})
	default:
		h.log.Info("unsupported event", zap.String("event", msg.Event), zap.String("conn_id", s.id))
	}
}

func (h *Hub) handleHandshake(s *session, data json.RawMessage) {
	var payload handshakePayload
	if err := json.Unmarshal(data, &payload); err != nil || strings.TrimSpace(payload.Token) == "" {
		h.log.Info("invalid handshake payload", zap.String("conn_id", s.id))
		return
	}

	user, err := h.authn.Authenticate(context.Background(), payload.Token)
	if err != nil {
		h.log.Info("handshake rejected", zap.String("conn_id", s.id), zap.Error(err))
		return
	}

	s.setUser(user)
	h.registry.Register(user.ID, s.id)
	h.log.Debug("connection authenticated", zap.String("conn_id", s.id), zap.String("user_id", user.ID))
}

func (h *Hub) handleSendMessage(s *session, data json.RawMessage) {
	sender := s.currentUser()
	if sender == nil {
		// Dropped silently; there is no error-reply channel for
		// unauthenticated connections.
		h.log.Info("dropping send_message from unauthenticated connection", zap.String("conn_id", s.id))
		return
	}

	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.log.Info("invalid send_message payload", zap.String("conn_id", s.id), zap.Error(err))
		return
	}
	if strings.TrimSpace(payload.GroupID) == "" || strings.TrimSpace(payload.Text) == "" {
		h.log.Info("dropping send_message with missing fields", zap.String("conn_id", s.id))
		return
	}
	if h.handler == nil {
		h.log.Warn("no message handler wired; dropping message", zap.String("conn_id", s.id))
		return
	}

	if err := h.handler.HandleMessage(context.Background(), sender, payload.GroupID, payload.Text); err != nil {
		h.log.Error("message handling failed",
			zap.String("conn_id", s.id),
			zap.String("group_id", payload.GroupID),
			zap.Error(err),
		)
	}
}

type session struct {
	id     string
	hub    *Hub
	socket *websocket.Conn
	send   chan Outbound

	mu     sync.Mutex
	user   *models.User
	groups map[string]struct{}
	closed bool

	once sync.Once
}

func (s *session) authenticated() bool {
	return s.currentUser() != nil
}

func (s *session) currentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *session) setUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// enqueue hands a message to the write loop without blocking; a full buffer
// drops the message rather than stalling the caller. The closed check is held
// under s.mu together with the channel send so a concurrent close cannot slip
// between them: a pusher that raced a disconnect gets false, not a panic.
func (s *session) enqueue(out Outbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- out:
		return true
	default:
		return false
	}
}

func (s *session) readLoop() {
	defer s.close()

	s.socket.SetReadLimit(maxMessageSize)
	_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
	s.socket.SetPongHandler(func(string) error {
		_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := s.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.log.Debug("unexpected close", zap.String("conn_id", s.id), zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.hub.log.Info("invalid event payload", zap.String("conn_id", s.id), zap.Error(err))
			continue
		}
		s.hub.handleEvent(s, msg)
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case out, ok := <-s.send:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.socket.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		s.hub.remove(s)

		// Mark closed and close the channel under the same lock enqueue
		// takes, so no sender can be mid-send when the channel closes.
		s.mu.Lock()
		s.closed = true
		close(s.send)
		s.mu.Unlock()

		if s.socket != nil {
			_ = s.socket.Close()
		}
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	if slash := strings.Index(host, "/"); slash != -1 {
		host = host[:slash]
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
