package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("user with email already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrMemberExists      = errors.New("user is already a room member")
	ErrOwnerIrremovable  = errors.New("document owner cannot be removed")
	ErrMembershipMissing = errors.New("room membership not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus, lastSeen time.Time) error
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room, memberIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error)
	Memberships(ctx context.Context, userID uuid.UUID) ([]*domain.RoomMembership, error)
	IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, roomID, userID uuid.UUID) error
	UpdateLastActivity(ctx context.Context, roomID uuid.UUID, at time.Time) error
	UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, seq int64) error
	UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int64, error)
}

type MessageRepository interface {
	// Insert persists the message and assigns its room-scoped sequence
	// number before returning.
	Insert(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID, beforeSeq int64, limit int) ([]*domain.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MessageStatus) error
}

type DocumentRepository interface {
	// Create persists the document together with the owner's write
	// collaborator row.
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListVisible(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateContent(ctx context.Context, id uuid.UUID, content []byte, editor uuid.UUID) error
	Collaborators(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentCollaborator, error)
	CollaboratorPermission(ctx context.Context, documentID, userID uuid.UUID) (domain.DocumentPermission, bool, error)
	AddCollaborator(ctx context.Context, documentID, userID uuid.UUID, permission domain.DocumentPermission) error
	RemoveCollaborator(ctx context.Context, documentID, userID uuid.UUID) error
}
