package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
)

// In-memory implementations back the test suite and local runs without a
// database. They hold copies, never aliases, of the stored entities.

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrUsernameExists
		}
		if existing.Email == user.Email {
			return ErrEmailExists
		}
	}

	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := user
	return &copied, nil
}

func (r *InMemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryUserRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus, lastSeen time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Status = status
	user.LastSeen = lastSeen
	r.users[id] = user
	return nil
}

type InMemoryRoomRepository struct {
	mu       sync.RWMutex
	rooms    map[uuid.UUID]domain.Room
	members  map[uuid.UUID]map[uuid.UUID]domain.RoomMembership
	messages *InMemoryMessageRepository
}

func NewInMemoryRoomRepository() *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms:   make(map[uuid.UUID]domain.Room),
		members: make(map[uuid.UUID]map[uuid.UUID]domain.RoomMembership),
	}
}

// AttachMessages wires the message table used by UnreadCount.
func (r *InMemoryRoomRepository) AttachMessages(messages *InMemoryMessageRepository) {
	r.messages = messages
}

func (r *InMemoryRoomRepository) Create(ctx context.Context, room *domain.Room, memberIDs []uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[room.ID] = *room
	r.members[room.ID] = make(map[uuid.UUID]domain.RoomMembership, len(memberIDs))
	now := time.Now().UTC()
	for _, userID := range memberIDs {
		r.members[room.ID][userID] = domain.RoomMembership{
			RoomID:   room.ID,
			UserID:   userID,
			JoinedAt: now,
		}
	}
	return nil
}

func (r *InMemoryRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := room
	return &copied, nil
}

func (r *InMemoryRoomRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Room
	for roomID, members := range r.members {
		if _, ok := members[userID]; !ok {
			continue
		}
		room := r.rooms[roomID]
		copied := room
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivityAt.After(result[j].LastActivityAt)
	})
	return result, nil
}

func (r *InMemoryRoomRepository) Memberships(ctx context.Context, userID uuid.UUID) ([]*domain.RoomMembership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.RoomMembership
	for _, members := range r.members {
		if m, ok := members[userID]; ok {
			copied := m
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *InMemoryRoomRepository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.members[roomID]
	if !ok {
		return false, nil
	}
	_, ok = members[userID]
	return ok, nil
}

func (r *InMemoryRoomRepository) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.members[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if _, exists := members[userID]; exists {
		return ErrMemberExists
	}
	members[userID] = domain.RoomMembership{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	return nil
}

func (r *InMemoryRoomRepository) UpdateLastActivity(ctx context.Context, roomID uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.LastActivityAt = at
	r.rooms[roomID] = room
	return nil
}

func (r *InMemoryRoomRepository) UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, seq int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.members[roomID]
	if !ok {
		return ErrMembershipMissing
	}
	member, ok := members[userID]
	if !ok {
		return ErrMembershipMissing
	}
	if seq > member.LastReadSeq {
		member.LastReadSeq = seq
		members[userID] = member
	}
	return nil
}

func (r *InMemoryRoomRepository) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	members, ok := r.members[roomID]
	if !ok {
		r.mu.RUnlock()
		return 0, ErrMembershipMissing
	}
	member, ok := members[userID]
	r.mu.RUnlock()
	if !ok {
		return 0, ErrMembershipMissing
	}
	if r.messages == nil {
		return 0, nil
	}
	return r.messages.countAfter(roomID, member.LastReadSeq, userID), nil
}

type InMemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]domain.Message
	seqs     map[uuid.UUID]int64
}

func NewInMemoryMessageRepository() *InMemoryMessageRepository {
	return &InMemoryMessageRepository{
		messages: make(map[uuid.UUID]domain.Message),
		seqs:     make(map[uuid.UUID]int64),
	}
}

func (r *InMemoryMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seqs[msg.RoomID]++
	msg.Seq = r.seqs[msg.RoomID]
	r.messages[msg.ID] = *msg
	return nil
}

func (r *InMemoryMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	copied := msg
	return &copied, nil
}

func (r *InMemoryMessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, beforeSeq int64, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Message
	for _, msg := range r.messages {
		if msg.RoomID != roomID {
			continue
		}
		if beforeSeq > 0 && msg.Seq >= beforeSeq {
			continue
		}
		copied := msg
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (r *InMemoryMessageRepository) countAfter(roomID uuid.UUID, afterSeq int64, excludeAuthor uuid.UUID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, msg := range r.messages {
		if msg.RoomID == roomID && msg.Seq > afterSeq && msg.AuthorID != excludeAuthor {
			count++
		}
	}
	return count
}

func (r *InMemoryMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MessageStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	msg.Status = status
	msg.UpdatedAt = time.Now().UTC()
	r.messages[id] = msg
	return nil
}

type InMemoryDocumentRepository struct {
	mu            sync.RWMutex
	documents     map[uuid.UUID]domain.Document
	collaborators map[uuid.UUID]map[uuid.UUID]domain.DocumentPermission
}

func NewInMemoryDocumentRepository() *InMemoryDocumentRepository {
	return &InMemoryDocumentRepository{
		documents:     make(map[uuid.UUID]domain.Document),
		collaborators: make(map[uuid.UUID]map[uuid.UUID]domain.DocumentPermission),
	}
}

func (r *InMemoryDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents[doc.ID] = *doc
	r.collaborators[doc.ID] = map[uuid.UUID]domain.DocumentPermission{
		doc.OwnerID: domain.DocumentPermissionWrite,
	}
	return nil
}

func (r *InMemoryDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	copied := doc
	return &copied, nil
}

func (r *InMemoryDocumentRepository) ListVisible(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Document
	for id, doc := range r.documents {
		_, collaborator := r.collaborators[id][userID]
		if doc.OwnerID != userID && !doc.IsPublic && !collaborator {
			continue
		}
		copied := doc
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *InMemoryDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.documents, id)
	delete(r.collaborators, id)
	return nil
}

func (r *InMemoryDocumentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content []byte, editor uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[id]
	if !ok {
		return ErrDocumentNotFound
	}
	doc.Content = append([]byte(nil), content...)
	doc.LastEditedBy = editor
	doc.UpdatedAt = time.Now().UTC()
	r.documents[id] = doc
	return nil
}

func (r *InMemoryDocumentRepository) Collaborators(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentCollaborator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.collaborators[documentID]
	result := make([]domain.DocumentCollaborator, 0, len(rows))
	for userID, permission := range rows {
		result = append(result, domain.DocumentCollaborator{
			DocumentID: documentID,
			UserID:     userID,
			Permission: permission,
		})
	}
	return result, nil
}

func (r *InMemoryDocumentRepository) CollaboratorPermission(ctx context.Context, documentID, userID uuid.UUID) (domain.DocumentPermission, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	permission, ok := r.collaborators[documentID][userID]
	return permission, ok, nil
}

func (r *InMemoryDocumentRepository) AddCollaborator(ctx context.Context, documentID, userID uuid.UUID, permission domain.DocumentPermission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[documentID]; !ok {
		return ErrDocumentNotFound
	}
	r.collaborators[documentID][userID] = permission
	return nil
}

func (r *InMemoryDocumentRepository) RemoveCollaborator(ctx context.Context, documentID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[documentID]
	if !ok {
		return ErrDocumentNotFound
	}
	if doc.OwnerID == userID {
		return ErrOwnerIrremovable
	}
	delete(r.collaborators[documentID], userID)
	return nil
}
