package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	if err := r.db.WithContext(ctx).Create(toModelUser(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus, lastSeen time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"status":    string(status),
		"last_seen": lastSeen,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewPostgresRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room, memberIDs []uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	roomModel := toModelRoom(room)
	now := time.Now().UTC()
	for _, userID := range memberIDs {
		roomModel.Members = append(roomModel.Members, model.RoomMember{
			RoomID:   room.ID,
			UserID:   userID,
			JoinedAt: now,
		})
	}

	return r.db.WithContext(ctx).Create(roomModel).Error
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return toDomainRoom(&room), nil
}

func (r *PostgresRoomRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("rooms.last_activity_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Room, 0, len(rooms))
	for i := range rooms {
		result = append(result, toDomainRoom(&rooms[i]))
	}
	return result, nil
}

func (r *PostgresRoomRepository) Memberships(ctx context.Context, userID uuid.UUID) ([]*domain.RoomMembership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var members []model.RoomMember
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&members).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.RoomMembership, 0, len(members))
	for i := range members {
		result = append(result, toDomainMembership(&members[i]))
	}
	return result, nil
}

func (r *PostgresRoomRepository) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRoomRepository) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	member := model.RoomMember{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrMemberExists
		}
		return err
	}
	return nil
}

func (r *PostgresRoomRepository) UpdateLastActivity(ctx context.Context, roomID uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", roomID).
		Update("last_activity_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, seq int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Markers only move forward; a stale receipt never rewinds one.
	res := r.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ? AND last_read_seq < ?", roomID, userID, seq).
		Update("last_read_seq", seq)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.RoomMember{}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrMembershipMissing
		}
	}
	return nil
}

func (r *PostgresRoomRepository) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var member model.RoomMember
	err := r.db.WithContext(ctx).
		First(&member, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMembershipMissing
		}
		return 0, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&model.Message{}).
		Where("room_id = ? AND seq > ? AND author_id <> ?", roomID, member.LastReadSeq, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg == nil {
		return errors.New("message is nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The room row is locked so concurrent sends to the same room
		// serialize on sequence assignment.
		var room model.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&room, "id = ?", msg.RoomID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		var maxSeq int64
		err = tx.Model(&model.Message{}).
			Where("room_id = ?", msg.RoomID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}

		msg.Seq = maxSeq + 1
		return tx.Create(toModelMessage(msg)).Error
	})
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var msg model.Message
	err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	return toDomainMessage(&msg), nil
}

func (r *PostgresMessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, beforeSeq int64, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if beforeSeq > 0 {
		query = query.Where("seq < ?", beforeSeq)
	}

	var messages []model.Message
	if err := query.Order("seq DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Oldest first for display.
	result := make([]*domain.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		result = append(result, toDomainMessage(&messages[i]))
	}
	return result, nil
}

func (r *PostgresMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MessageStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Message{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

type PostgresDocumentRepository struct {
	db *gorm.DB
}

func NewPostgresDocumentRepository(db *gorm.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document is nil")
	}

	docModel := toModelDocument(doc)
	docModel.Collaborators = []model.DocumentCollaborator{{
		DocumentID: doc.ID,
		UserID:     doc.OwnerID,
		Permission: string(domain.DocumentPermissionWrite),
	}}

	return r.db.WithContext(ctx).Create(docModel).Error
}

func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc model.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	return toDomainDocument(&doc), nil
}

func (r *PostgresDocumentRepository) ListVisible(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("owner_id = ? OR is_public = true OR id IN (SELECT document_id FROM document_collaborators WHERE user_id = ?)",
			userID, userID).
		Order("updated_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Document, 0, len(docs))
	for i := range docs {
		result = append(result, toDomainDocument(&docs[i]))
	}
	return result, nil
}

func (r *PostgresDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentCollaborator{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDocumentNotFound
		}
		return nil
	})
}

func (r *PostgresDocumentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content []byte, editor uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"content":        content,
		"last_edited_by": editor,
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *PostgresDocumentRepository) Collaborators(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentCollaborator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.DocumentCollaborator
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]domain.DocumentCollaborator, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.DocumentCollaborator{
			DocumentID: row.DocumentID,
			UserID:     row.UserID,
			Permission: domain.DocumentPermission(row.Permission),
		})
	}
	return result, nil
}

func (r *PostgresDocumentRepository) CollaboratorPermission(ctx context.Context, documentID, userID uuid.UUID) (domain.DocumentPermission, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var row model.DocumentCollaborator
	err := r.db.WithContext(ctx).
		First(&row, "document_id = ? AND user_id = ?", documentID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	return domain.DocumentPermission(row.Permission), true, nil
}

func (r *PostgresDocumentRepository) AddCollaborator(ctx context.Context, documentID, userID uuid.UUID, permission domain.DocumentPermission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := model.DocumentCollaborator{
		DocumentID: documentID,
		UserID:     userID,
		Permission: string(permission),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission"}),
		}).
		Create(&row).Error
}

func (r *PostgresDocumentRepository) RemoveCollaborator(ctx context.Context, documentID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var doc model.Document
	err := r.db.WithContext(ctx).Select("id", "owner_id").First(&doc, "id = ?", documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if doc.OwnerID == userID {
		return ErrOwnerIrremovable
	}

	return r.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentID, userID).
		Delete(&model.DocumentCollaborator{}).Error
}

func toModelUser(u *domain.User) *model.User {
	return &model.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomainUser(u *model.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Status:       domain.UserStatus(u.Status),
		LastSeen:     u.LastSeen,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toModelRoom(r *domain.Room) *model.Room {
	return &model.Room{
		ID:             r.ID,
		Name:           r.Name,
		Type:           string(r.Type),
		LastActivityAt: r.LastActivityAt,
		CreatedAt:      r.CreatedAt,
	}
}

func toDomainRoom(r *model.Room) *domain.Room {
	return &domain.Room{
		ID:             r.ID,
		Name:           r.Name,
		Type:           domain.RoomType(r.Type),
		LastActivityAt: r.LastActivityAt,
		CreatedAt:      r.CreatedAt,
	}
}

func toDomainMembership(m *model.RoomMember) *domain.RoomMembership {
	return &domain.RoomMembership{
		RoomID:      m.RoomID,
		UserID:      m.UserID,
		JoinedAt:    m.JoinedAt,
		LastReadSeq: m.LastReadSeq,
	}
}

func toModelMessage(m *domain.Message) *model.Message {
	return &model.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Type:      string(m.Type),
		Status:    string(m.Status),
		ReplyTo:   m.ReplyTo,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDomainMessage(m *model.Message) *domain.Message {
	return &domain.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Type:      domain.MessageType(m.Type),
		Status:    domain.MessageStatus(m.Status),
		ReplyTo:   m.ReplyTo,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toModelDocument(d *domain.Document) *model.Document {
	return &model.Document{
		ID:           d.ID,
		Title:        d.Title,
		OwnerID:      d.OwnerID,
		IsPublic:     d.IsPublic,
		Content:      d.Content,
		LastEditedBy: d.LastEditedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDomainDocument(d *model.Document) *domain.Document {
	return &domain.Document{
		ID:           d.ID,
		Title:        d.Title,
		OwnerID:      d.OwnerID,
		IsPublic:     d.IsPublic,
		Content:      d.Content,
		LastEditedBy: d.LastEditedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
