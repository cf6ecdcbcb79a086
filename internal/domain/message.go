package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

// The client-local "sending" status is never persisted; a message enters
// the store as "sent".
const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

// Message is owned by its room and cascade-deleted with it. ReplyTo is a
// weak reference: deleting the target clears it instead of cascading.
// Seq is a room-scoped monotonic sequence assigned by the store on insert.
type Message struct {
	ID        uuid.UUID     `json:"id"`
	RoomID    uuid.UUID     `json:"room_id"`
	AuthorID  uuid.UUID     `json:"author_id"`
	Content   string        `json:"content"`
	Type      MessageType   `json:"type"`
	Status    MessageStatus `json:"status"`
	ReplyTo   *uuid.UUID    `json:"reply_to,omitempty"`
	Seq       int64         `json:"seq"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewMessage(roomID, authorID uuid.UUID, content string, replyTo *uuid.UUID) *Message {
	now := time.Now().UTC()
	return &Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		AuthorID:  authorID,
		Content:   content,
		Type:      MessageTypeText,
		Status:    MessageStatusSent,
		ReplyTo:   replyTo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
