package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomType string

const (
	RoomTypeGroup  RoomType = "group"
	RoomTypeDirect RoomType = "direct"
)

// Room is a messaging channel. The type is immutable after creation:
// a direct room has exactly 2 members, a group room at least 1.
type Room struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           RoomType  `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func NewRoom(name string, roomType RoomType) *Room {
	now := time.Now().UTC()
	return &Room{
		ID:             uuid.New(),
		Name:           name,
		Type:           roomType,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// RoomMembership ties a user to a room. LastReadSeq is the sequence number
// of the newest message the member has marked read; unread counts compare
// against it.
type RoomMembership struct {
	RoomID      uuid.UUID `json:"room_id"`
	UserID      uuid.UUID `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
	LastReadSeq int64     `json:"last_read_seq"`
}
