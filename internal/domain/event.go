package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EventType discriminates envelope payloads. Every event carries a fixed
// payload schema; the transport layer validates shape before dispatch.
type EventType string

// Client to server, room channel.
const (
	EventJoinRoom    EventType = "join-room"
	EventLeaveRoom   EventType = "leave-room"
	EventSendMessage EventType = "send-message"
	EventMarkRead    EventType = "mark-read"
	EventTypingStart EventType = "typing-start"
	EventTypingStop  EventType = "typing-stop"
)

// Server to client, room channel.
const (
	EventRoomJoined           EventType = "room-joined"
	EventRoomLeft             EventType = "room-left"
	EventMessageNew           EventType = "message-new"
	EventMessageSent          EventType = "message-sent"
	EventMessageStatusUpdated EventType = "message-status-updated"
	EventPresence             EventType = "presence"
	EventError                EventType = "error"
)

// Document channel. Update, awareness and list share a name in both
// directions.
const (
	EventDocumentJoin               EventType = "document-join"
	EventDocumentLeave              EventType = "document-leave"
	EventDocumentUpdate             EventType = "document-update"
	EventDocumentAwareness          EventType = "document-awareness"
	EventDocumentCreate             EventType = "document-create"
	EventDocumentDelete             EventType = "document-delete"
	EventDocumentList               EventType = "document-list"
	EventDocumentJoined             EventType = "document-joined"
	EventDocumentCollaboratorJoined EventType = "document-collaborator-joined"
	EventDocumentCollaboratorLeft   EventType = "document-collaborator-left"
	EventDocumentCreated            EventType = "document-created"
	EventDocumentDeleted            EventType = "document-deleted"
)

// Envelope is the wire frame multiplexing both channels over one
// connection.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an envelope. Server-side payloads are
// trusted structs; a marshal failure is a programming error surfaced to
// the caller.
func NewEvent(eventType EventType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Data: data}, nil
}

// Client request payloads.

type JoinRoomPayload struct {
	RoomID string `json:"room_id" validate:"required,uuid4"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"room_id" validate:"required,uuid4"`
}

type SendMessagePayload struct {
	RoomID        string `json:"room_id" validate:"required,uuid4"`
	Content       string `json:"content" validate:"required,max=4000"`
	CorrelationID string `json:"correlation_id" validate:"required,max=64"`
	ReplyTo       string `json:"reply_to,omitempty" validate:"omitempty,uuid4"`
}

type MarkReadPayload struct {
	RoomID    string `json:"room_id" validate:"required,uuid4"`
	MessageID string `json:"message_id" validate:"required,uuid4"`
}

type TypingPayload struct {
	RoomID string `json:"room_id" validate:"required,uuid4"`
}

type DocumentJoinPayload struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
}

type DocumentLeavePayload struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
}

type DocumentUpdatePayload struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
	Frame      []byte `json:"frame" validate:"required"`
}

type DocumentAwarenessPayload struct {
	DocumentID string          `json:"document_id" validate:"required,uuid4"`
	State      json.RawMessage `json:"state" validate:"required"`
}

type DocumentCreatePayload struct {
	Title    string `json:"title" validate:"required,max=255"`
	IsPublic bool   `json:"is_public"`
}

type DocumentDeletePayload struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
}

// Server event payloads.

type RoomJoinedPayload struct {
	RoomID uuid.UUID `json:"room_id"`
}

type RoomLeftPayload struct {
	RoomID uuid.UUID `json:"room_id"`
}

type MessageNewPayload struct {
	Message *Message `json:"message"`
}

type MessageSentPayload struct {
	CorrelationID string   `json:"correlation_id"`
	Message       *Message `json:"message"`
}

type MessageStatusUpdatedPayload struct {
	MessageID uuid.UUID     `json:"message_id"`
	RoomID    uuid.UUID     `json:"room_id"`
	Status    MessageStatus `json:"status"`
}

type TypingEventPayload struct {
	RoomID uuid.UUID `json:"room_id"`
	UserID uuid.UUID `json:"user_id"`
}

type PresencePayload struct {
	UserID uuid.UUID  `json:"user_id"`
	Status UserStatus `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type DocumentJoinedPayload struct {
	DocumentID    uuid.UUID              `json:"document_id"`
	Document      *Document              `json:"document"`
	Collaborators []DocumentCollaborator `json:"collaborators"`
}

type DocumentCollaboratorJoinedPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
}

type DocumentCollaboratorLeftPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
}

type DocumentFramePayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	Frame      []byte    `json:"frame"`
}

type DocumentAwarenessEventPayload struct {
	DocumentID uuid.UUID       `json:"document_id"`
	State      json.RawMessage `json:"state"`
}

type DocumentCreatedPayload struct {
	Document *Document `json:"document"`
}

type DocumentDeletedPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

type DocumentListPayload struct {
	Items []*Document `json:"items"`
}
