package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

var (
	ErrDirectRoomMembers = errors.New("direct room requires exactly one other member")
	ErrRoomTypeInvalid   = errors.New("room type must be group or direct")
)

// RoomService covers the request/response side of rooms: creation,
// listing with unread counts and history fetch. Live delivery belongs to
// ChatService.
type RoomService struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	guard    *auth.Guard
	log      *slog.Logger
}

func NewRoomService(rooms repository.RoomRepository, messages repository.MessageRepository, guard *auth.Guard, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{rooms: rooms, messages: messages, guard: guard, log: log}
}

// CreateRoom validates shape before any store access: a direct room
// carries exactly one peer member (the creator is the implicit second).
func (s *RoomService) CreateRoom(ctx context.Context, creator uuid.UUID, name string, roomType domain.RoomType, memberIDs []uuid.UUID) (*domain.Room, error) {
	const op = "service.room.create"
	log := s.log.With(slog.String("op", op), slog.String("creator", creator.String()))

	switch roomType {
	case domain.RoomTypeGroup:
	case domain.RoomTypeDirect:
		if len(memberIDs) != 1 {
			return nil, ErrDirectRoomMembers
		}
	default:
		return nil, ErrRoomTypeInvalid
	}

	members := append([]uuid.UUID{creator}, memberIDs...)
	room := domain.NewRoom(name, roomType)
	if err := s.rooms.Create(ctx, room, members); err != nil {
		log.Error("failed to create room", sl.Err(err))
		return nil, err
	}

	log.Info("room created", slog.String("room_id", room.ID.String()), slog.Int("members", len(members)))
	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context, userID uuid.UUID) ([]*RoomSummary, error) {
	rooms, err := s.rooms.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		unread, err := s.rooms.UnreadCount(ctx, room.ID, userID)
		if err != nil && !errors.Is(err, repository.ErrMembershipMissing) {
			return nil, err
		}
		result = append(result, &RoomSummary{Room: room, UnreadCount: unread})
	}
	return result, nil
}

func (s *RoomService) ListMessages(ctx context.Context, userID, roomID uuid.UUID, beforeSeq int64, limit int) ([]*domain.Message, error) {
	if err := s.guard.AuthorizeRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.messages.ListByRoom(ctx, roomID, beforeSeq, limit)
}

var _ RoomInteractor = (*RoomService)(nil)
var _ UserInteractor = (*UserService)(nil)
var _ ChatInteractor = (*ChatService)(nil)
var _ DocumentInteractor = (*DocumentService)(nil)
