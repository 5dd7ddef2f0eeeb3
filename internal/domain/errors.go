package domain

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrRoomInactive         = errors.New("room is inactive")
	ErrAlreadyMember        = errors.New("connection already joined the room")
	ErrNotMember            = errors.New("connection is not a member of the room")
	ErrNotConnected         = errors.New("connection not found")
	ErrStoreUnavailable     = errors.New("message store unavailable")
	ErrUserNotFound         = errors.New("user not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
