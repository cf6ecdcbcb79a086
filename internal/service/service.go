package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
)

type UserInteractor interface {
	Register(ctx context.Context, username, email, displayName, password string) (*domain.User, string, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type RoomInteractor interface {
	CreateRoom(ctx context.Context, creator uuid.UUID, name string, roomType domain.RoomType, memberIDs []uuid.UUID) (*domain.Room, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]*RoomSummary, error)
	ListMessages(ctx context.Context, userID, roomID uuid.UUID, beforeSeq int64, limit int) ([]*domain.Message, error)
}

type ChatInteractor interface {
	AttachSession(ctx context.Context, sess *domain.Session) error
	DetachSession(sess *domain.Session)
	JoinRoom(ctx context.Context, sess *domain.Session, roomID uuid.UUID) error
	LeaveRoom(sess *domain.Session, roomID uuid.UUID) error
	SendMessage(ctx context.Context, sess *domain.Session, req SendMessageRequest) error
	MarkRead(ctx context.Context, sess *domain.Session, roomID, messageID uuid.UUID) error
	Typing(sess *domain.Session, roomID uuid.UUID, start bool) error
}

type DocumentInteractor interface {
	AttachSession(sess *domain.Session)
	DetachSession(sess *domain.Session)
	Join(ctx context.Context, sess *domain.Session, documentID uuid.UUID) error
	Leave(sess *domain.Session, documentID uuid.UUID) error
	RelayUpdate(sess *domain.Session, documentID uuid.UUID, frame []byte) error
	RelayAwareness(sess *domain.Session, documentID uuid.UUID, state []byte) error
	Create(ctx context.Context, sess *domain.Session, title string, isPublic bool) error
	Delete(ctx context.Context, sess *domain.Session, documentID uuid.UUID) error
	List(ctx context.Context, sess *domain.Session) error
	SaveContent(ctx context.Context, userID, documentID uuid.UUID, content []byte) error
	AddCollaborator(ctx context.Context, actorID, documentID, userID uuid.UUID, permission domain.DocumentPermission) error
	RemoveCollaborator(ctx context.Context, actorID, documentID, userID uuid.UUID) error
	VisibleDocuments(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)
	CollaboratorList(ctx context.Context, userID, documentID uuid.UUID) ([]domain.DocumentCollaborator, error)
}

// SendMessageRequest is a validated send operation: room, content, the
// client correlation id for optimistic reconciliation and an optional
// reply target.
type SendMessageRequest struct {
	RoomID        uuid.UUID
	Content       string
	CorrelationID string
	ReplyTo       *uuid.UUID
}

// RoomSummary augments a room with the caller's unread count.
type RoomSummary struct {
	Room        *domain.Room `json:"room"`
	UnreadCount int64        `json:"unread_count"`
}
