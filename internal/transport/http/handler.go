package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindconnect/chat-service/internal/assistant"
	"github.com/mindconnect/chat-service/internal/domain"
	"github.com/mindconnect/chat-service/internal/postgres"
	"github.com/mindconnect/chat-service/internal/service"
	httpmw "github.com/mindconnect/chat-service/internal/transport/http/middleware"
)

// MessageFlagger raises the sticky flagged bit on a persisted message.
type MessageFlagger interface {
	Flag(ctx context.Context, id string) error
}

type Handler struct {
	roomSvc      *service.RoomService
	historySvc   *service.HistoryService
	assistantSvc *assistant.Service
	flagger      MessageFlagger
}

func NewHandler(room *service.RoomService, history *service.HistoryService, asst *assistant.Service, flagger MessageFlagger) *Handler {
	return &Handler{
		roomSvc:      room,
		historySvc:   history,
		assistantSvc: asst,
		flagger:      flagger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func roomItem(r domain.Room) RoomItem {
	return RoomItem{
		ID:              r.ID,
		Name:            r.Name,
		Topic:           r.Topic,
		ModeratorID:     r.ModeratorID,
		MaxParticipants: r.MaxParticipants,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
}

// POST /rooms (therapist only)
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())
	if user.Role != domain.RoleTherapist {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "moderator role required"})
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, req.Topic, user.ID, req.MaxParticipants)
	if err != nil {
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, roomItem(*room))
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	rooms, next, err := h.roomSvc.ListRooms(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListRooms:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms)), NextCursor: next}
	for _, rm := range rooms {
		resp.Items = append(resp.Items, roomItem(rm))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, roomItem(*room))
}

// DELETE /rooms/{id} (therapist only) — deactivates, never erases
func (h *Handler) DeactivateRoom(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())
	if user.Role != domain.RoleTherapist {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "moderator role required"})
		return
	}

	if err := h.roomSvc.DeactivateRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.DeactivateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// GET /rooms/{id}/messages?cursor=&limit=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, next, err := h.historySvc.Fetch(r.Context(), roomID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.GetHistory:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := HistoryResponse{Items: make([]MessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, MessageItem{
			ID:        m.ID,
			RoomID:    m.RoomID,
			SenderID:  m.SenderID,
			Content:   m.Content,
			Sequence:  m.Sequence,
			Kind:      string(m.Kind),
			Flagged:   m.Flagged,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /rooms/{id}/messages/{msgID}/flag (therapist only)
func (h *Handler) FlagMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())
	if user.Role != domain.RoleTherapist {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "moderator role required"})
		return
	}

	if err := h.flagger.Flag(r.Context(), chi.URLParam(r, "msgID")); err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		slog.Error("handler.FlagMessage:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flagged"})
}

// POST /assistant/chat
func (h *Handler) AssistantChat(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())

	var req AssistantChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.assistantSvc.Chat(r.Context(), user, req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "empty message"})
		case errors.Is(err, domain.ErrConversationNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		default:
			slog.Error("handler.AssistantChat:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, AssistantChatResponse{
		ConversationID: res.ConversationID,
		Reply:          res.Reply,
		IsCrisis:       res.IsCrisis,
	})
}

// GET /assistant/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())

	items, err := h.assistantSvc.ListConversations(r.Context(), user.ID)
	if err != nil {
		slog.Error("handler.ListConversations:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conversationsResponse(items))
}

// GET /assistant/crisis (therapist only)
func (h *Handler) CrisisConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := httpmw.UserFromCtx(r.Context())
	if user.Role != domain.RoleTherapist {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "therapist role required"})
		return
	}

	items, err := h.assistantSvc.CrisisConversations(r.Context())
	if err != nil {
		slog.Error("handler.CrisisConversations:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conversationsResponse(items))
}

func conversationsResponse(items []domain.Conversation) ConversationsResponse {
	resp := ConversationsResponse{Items: make([]ConversationItem, 0, len(items))}
	for _, c := range items {
		resp.Items = append(resp.Items, ConversationItem{
			ID:             c.ID,
			UserID:         c.UserID,
			CrisisDetected: c.CrisisDetected,
			CreatedAt:      c.CreatedAt,
			UpdatedAt:      c.UpdatedAt,
		})
	}
	return resp
}
