package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/event"
	"github.com/mindconnect/chat-service/internal/realtime"
	"github.com/mindconnect/chat-service/internal/registry"
	"github.com/mindconnect/chat-service/internal/service"
)

// HistorySvc pages a room's persisted messages.
type HistorySvc interface {
	Fetch(ctx context.Context, roomID, cursor string, limit int) ([]domain.Message, string, error)
}

// UserDirectory resolves the pre-validated identity attached to a
// connection. Token validation itself is the gateway's job.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

type Server struct {
	upgrader websocket.Upgrader
	reg      *registry.Registry
	rooms    *realtime.Manager
	pipeline *realtime.Pipeline
	history  HistorySvc
	users    UserDirectory

	pingEvery time.Duration
}

func NewServer(reg *registry.Registry, rooms *realtime.Manager, pipeline *realtime.Pipeline, history HistorySvc, users UserDirectory) *Server {
	return &Server{
		reg:      reg,
		rooms:    rooms,
		pipeline: pipeline,
		history:  history,
		users:    users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?access_token=...&user_id=...
// One socket per client; rooms are joined and left over the socket.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("access_token")) == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusUnauthorized)
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		slog.Error("ws identity lookup failed", "user", userID, "err", err)
		http.Error(w, "identity lookup failed", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	wsc := newWsConn(conn)
	c := s.reg.Admit(uuid.NewString(), *user, wsc)
	slog.Info("ws connected", "conn", c.ID(), "user", user.ID)

	go s.writeLoop(r.Context(), wsc)
	s.readLoop(r.Context(), c, wsc)

	// disconnect cleanup: idempotent, releases every membership and
	// emits the presence-left events
	s.reg.Remove(c.ID())
	if err := wsc.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
	slog.Info("ws disconnected", "conn", c.ID(), "user", user.ID)
}

func (s *Server) readLoop(ctx context.Context, c *registry.Connection, wsc *wsConn) {
	defer func() { _ = wsc.Close() }()

	wsc.conn.SetReadLimit(1 << 20)
	_ = wsc.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	wsc.conn.SetPongHandler(func(string) error {
		return wsc.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := wsc.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		s.dispatch(ctx, c, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, c *registry.Connection, frame Frame) {
	switch frame.Type {
	case TypeJoin:
		var p JoinPayload
		if json.Unmarshal(frame.Payload, &p) != nil || p.RoomID == "" {
			return
		}
		if err := s.rooms.Join(ctx, c, p.RoomID); err != nil {
			s.reject(c, TypeJoin, p.RoomID, err)
			return
		}
		_ = c.Push(event.Event{Type: TypeJoined, Payload: RoomAckPayload{RoomID: p.RoomID}})

	case TypeLeave:
		var p LeavePayload
		if json.Unmarshal(frame.Payload, &p) != nil || p.RoomID == "" {
			return
		}
		s.rooms.Leave(c, p.RoomID)
		_ = c.Push(event.Event{Type: TypeLeft, Payload: RoomAckPayload{RoomID: p.RoomID}})

	case TypeSend:
		var p SendPayload
		if json.Unmarshal(frame.Payload, &p) != nil || p.RoomID == "" {
			return
		}
		msg, err := s.pipeline.Send(ctx, c, p.RoomID, p.Content)
		if err != nil {
			s.reject(c, TypeSend, p.RoomID, err)
			return
		}
		_ = c.Push(event.Event{Type: TypeDelivered, Payload: event.Item(*msg)})

	case TypeHistory:
		var p HistoryPayload
		if json.Unmarshal(frame.Payload, &p) != nil || p.RoomID == "" {
			return
		}
		items, next, err := s.history.Fetch(ctx, p.RoomID, p.Cursor, p.Limit)
		if err != nil {
			s.reject(c, TypeHistory, p.RoomID, err)
			return
		}
		out := make([]event.MessageItem, 0, len(items))
		for _, m := range items {
			out = append(out, event.Item(m))
		}
		_ = c.Push(event.Event{Type: TypeHistory, Payload: HistoryResultPayload{
			RoomID:     p.RoomID,
			Items:      out,
			NextCursor: next,
		}})

	default:
		// unknown frame types are ignored
	}
}

func (s *Server) reject(c *registry.Connection, op, roomID string, err error) {
	_ = c.Push(event.Event{Type: TypeRejected, Payload: RejectedPayload{
		Op:     op,
		RoomID: roomID,
		Reason: reason(err),
	}})
}

// reason maps pipeline and membership errors onto wire-level reject
// codes. Nothing here is fatal to the connection.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotMember):
		return "not_member"
	case errors.Is(err, domain.ErrRoomFull):
		return "room_full"
	case errors.Is(err, domain.ErrRoomInactive):
		return "room_inactive"
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, realtime.ErrEmptyMessage),
		errors.Is(err, realtime.ErrMessageTooLong):
		return "invalid_message"
	case errors.Is(err, service.ErrInvalidCursor):
		return "invalid_cursor"
	default:
		return "internal"
	}
}

func (s *Server) writeLoop(ctx context.Context, wsc *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = wsc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-wsc.closed:
			return
		}
	}
}

// wsConn serializes writes to one websocket; gorilla allows a single
// concurrent writer and pushes arrive from many room actors.
type wsConn struct {
	conn      *websocket.Conn
	sendMu    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Push(ev event.Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}
