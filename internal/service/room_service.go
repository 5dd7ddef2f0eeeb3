package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mindconnect/chat-service/internal/domain"
)

// RoomStore is the room half of the durable store collaborator.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	Deactivate(ctx context.Context, id string) error
}

// RoomService covers the moderator-facing room lifecycle. The
// realtime core itself only reads capacity and the activity flag.
type RoomService struct {
	rooms RoomStore
}

func NewRoomService(rooms RoomStore) *RoomService {
	return &RoomService{rooms: rooms}
}

// CreateRoom creates a support room owned by a moderator.
func (s *RoomService) CreateRoom(ctx context.Context, name, topic, moderatorID string, max int64) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("room name is required")
	}
	if max <= 0 || max > 50 {
		max = 50
	}

	room := &domain.Room{
		Name:            name,
		Topic:           strings.TrimSpace(topic),
		MaxParticipants: max,
	}
	if moderatorID != "" {
		room.ModeratorID = &moderatorID
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("roomStore.Create: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

// ListRooms returns active rooms with cursor pagination.
func (s *RoomService) ListRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.rooms.List(ctx, limit, cursor)
}

// DeactivateRoom closes the room to new joins; current members keep
// their membership until they leave or disconnect.
func (s *RoomService) DeactivateRoom(ctx context.Context, id string) error {
	return s.rooms.Deactivate(ctx, id)
}
