package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

var (
	ErrNotJoined       = errors.New("session is not joined to the room")
	ErrMessageMismatch = errors.New("message does not belong to the room")
)

// ChatService runs the room message delivery protocol: join/leave,
// send/acknowledge/broadcast, read receipts and typing indicators. It
// owns the per-room broadcast groups.
type ChatService struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	guard    *auth.Guard
	registry *registry.Registry
	log      *slog.Logger

	mu     sync.RWMutex
	groups map[uuid.UUID]map[string]*domain.Session
}

func NewChatService(rooms repository.RoomRepository, messages repository.MessageRepository, guard *auth.Guard, reg *registry.Registry, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		rooms:    rooms,
		messages: messages,
		guard:    guard,
		registry: reg,
		log:      log,
		groups:   make(map[uuid.UUID]map[string]*domain.Session),
	}
}

// AttachSession seeds multi-room delivery on connect: the session is
// silently joined to every room its user is a member of, without
// explicit join requests.
func (s *ChatService) AttachSession(ctx context.Context, sess *domain.Session) error {
	const op = "service.chat.attach"
	log := s.log.With(slog.String("op", op), slog.String("session", sess.ID))

	memberships, err := s.rooms.Memberships(ctx, sess.UserID)
	if err != nil {
		log.Error("failed to load memberships", sl.Err(err))
		return err
	}

	for _, membership := range memberships {
		s.addToGroup(sess, membership.RoomID)
	}
	log.Info("session attached", slog.Int("rooms", len(memberships)))
	return nil
}

// DetachSession removes the session from every room group. Called once
// on disconnect; no events are emitted (presence covers the user edge).
func (s *ChatService) DetachSession(sess *domain.Session) {
	for _, roomID := range sess.Rooms() {
		s.removeFromGroup(sess, roomID)
	}
}

func (s *ChatService) JoinRoom(ctx context.Context, sess *domain.Session, roomID uuid.UUID) error {
	if err := s.guard.AuthorizeRoom(ctx, sess.UserID, roomID); err != nil {
		return err
	}

	s.addToGroup(sess, roomID)
	s.emit(sess, domain.EventRoomJoined, domain.RoomJoinedPayload{RoomID: roomID})
	return nil
}

// LeaveRoom is always permitted and affects only this session.
func (s *ChatService) LeaveRoom(sess *domain.Session, roomID uuid.UUID) error {
	s.removeFromGroup(sess, roomID)
	s.emit(sess, domain.EventRoomLeft, domain.RoomLeftPayload{RoomID: roomID})
	return nil
}

// SendMessage re-checks authorization at send time, persists before any
// fan-out, then broadcasts to every session joined to the room and
// acknowledges the originating session with its correlation id.
func (s *ChatService) SendMessage(ctx context.Context, sess *domain.Session, req SendMessageRequest) error {
	const op = "service.chat.send"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", req.RoomID.String()),
		slog.String("session", sess.ID),
	)

	if err := s.guard.AuthorizeRoom(ctx, sess.UserID, req.RoomID); err != nil {
		return err
	}

	msg := domain.NewMessage(req.RoomID, sess.UserID, req.Content, req.ReplyTo)
	if err := s.messages.Insert(ctx, msg); err != nil {
		log.Error("failed to persist message", sl.Err(err))
		return err
	}

	if err := s.rooms.UpdateLastActivity(ctx, req.RoomID, msg.CreatedAt); err != nil {
		// The message is durable; activity bump failure must not block
		// delivery.
		log.Error("failed to bump room activity", sl.Err(err))
	}

	s.broadcast(req.RoomID, domain.EventMessageNew, domain.MessageNewPayload{Message: msg}, "")
	s.emit(sess, domain.EventMessageSent, domain.MessageSentPayload{
		CorrelationID: req.CorrelationID,
		Message:       msg,
	})

	log.Info("message delivered", slog.String("message_id", msg.ID.String()), slog.Int64("seq", msg.Seq))
	return nil
}

// MarkRead updates the message status and the caller's last-read marker,
// then notifies only the author's sessions of the status change.
func (s *ChatService) MarkRead(ctx context.Context, sess *domain.Session, roomID, messageID uuid.UUID) error {
	const op = "service.chat.markread"
	log := s.log.With(slog.String("op", op), slog.String("message_id", messageID.String()))

	if err := s.guard.AuthorizeRoom(ctx, sess.UserID, roomID); err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return auth.ErrNotFound
		}
		return err
	}
	if msg.RoomID != roomID {
		return ErrMessageMismatch
	}

	if err := s.messages.UpdateStatus(ctx, messageID, domain.MessageStatusRead); err != nil {
		return err
	}
	if err := s.rooms.UpdateLastRead(ctx, roomID, sess.UserID, msg.Seq); err != nil {
		log.Error("failed to advance last-read marker", sl.Err(err))
	}

	event, err := domain.NewEvent(domain.EventMessageStatusUpdated, domain.MessageStatusUpdatedPayload{
		MessageID: messageID,
		RoomID:    roomID,
		Status:    domain.MessageStatusRead,
	})
	if err != nil {
		return err
	}
	for _, authorSess := range s.registry.SessionsOf(msg.AuthorID) {
		if !authorSess.EnqueueEvent(event) {
			log.Debug("dropping receipt event", slog.String("session", authorSess.ID))
		}
	}
	return nil
}

// Typing relays an ephemeral indicator to every other session joined to
// the room. Nothing is persisted and no server-side expiry runs; the
// client auto-expires stale indicators.
func (s *ChatService) Typing(sess *domain.Session, roomID uuid.UUID, start bool) error {
	if !sess.InRoom(roomID) {
		return ErrNotJoined
	}

	eventType := domain.EventTypingStart
	if !start {
		eventType = domain.EventTypingStop
	}
	s.broadcast(roomID, eventType, domain.TypingEventPayload{
		RoomID: roomID,
		UserID: sess.UserID,
	}, sess.ID)
	return nil
}

func (s *ChatService) addToGroup(sess *domain.Session, roomID uuid.UUID) {
	s.mu.Lock()
	group, ok := s.groups[roomID]
	if !ok {
		group = make(map[string]*domain.Session)
		s.groups[roomID] = group
	}
	group[sess.ID] = sess
	s.mu.Unlock()

	sess.JoinRoom(roomID)
}

func (s *ChatService) removeFromGroup(sess *domain.Session, roomID uuid.UUID) {
	s.mu.Lock()
	if group, ok := s.groups[roomID]; ok {
		delete(group, sess.ID)
		if len(group) == 0 {
			delete(s.groups, roomID)
		}
	}
	s.mu.Unlock()

	sess.LeaveRoom(roomID)
}

// broadcast snapshots the group membership at call time and enqueues
// outside the lock: joiners completing later are not retroactively
// included and departed sessions are never delivered to.
func (s *ChatService) broadcast(roomID uuid.UUID, eventType domain.EventType, payload any, exclude string) {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to encode broadcast event", sl.Err(err), slog.String("type", string(eventType)))
		return
	}

	s.mu.RLock()
	group := s.groups[roomID]
	sessions := make([]*domain.Session, 0, len(group))
	for id, sess := range group {
		if id == exclude {
			continue
		}
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		if !sess.EnqueueEvent(event) {
			s.log.Debug("dropping broadcast event",
				slog.String("session", sess.ID),
				slog.String("type", string(eventType)),
			)
		}
	}
}

func (s *ChatService) emit(sess *domain.Session, eventType domain.EventType, payload any) {
	event, err := domain.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to encode event", sl.Err(err), slog.String("type", string(eventType)))
		return
	}
	if !sess.EnqueueEvent(event) {
		s.log.Debug("dropping event", slog.String("session", sess.ID), slog.String("type", string(eventType)))
	}
}
