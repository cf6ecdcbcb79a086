package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:255;uniqueIndex;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	DisplayName  string    `gorm:"size:255;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Status       string    `gorm:"size:16;not null"`
	LastSeen     time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Room struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Name           string       `gorm:"size:255;not null"`
	Type           string       `gorm:"size:16;not null"`
	LastActivityAt time.Time    `gorm:"not null;index"`
	CreatedAt      time.Time    `gorm:"not null"`
	Members        []RoomMember `gorm:"constraint:OnDelete:CASCADE"`
	Messages       []Message    `gorm:"constraint:OnDelete:CASCADE"`
}

type RoomMember struct {
	RoomID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	JoinedAt    time.Time `gorm:"not null"`
	LastReadSeq int64     `gorm:"not null;default:0"`
}

type Message struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RoomID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_room_seq,priority:1"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Content   string     `gorm:"type:text;not null"`
	Type      string     `gorm:"size:16;not null"`
	Status    string     `gorm:"size:16;not null"`
	ReplyTo   *uuid.UUID `gorm:"type:uuid"`
	Seq       int64      `gorm:"not null;index:idx_messages_room_seq,priority:2"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

type Document struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey"`
	Title         string                 `gorm:"size:255;not null"`
	OwnerID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	IsPublic      bool                   `gorm:"not null"`
	Content       []byte                 `gorm:"type:bytea"`
	LastEditedBy  uuid.UUID              `gorm:"type:uuid"`
	CreatedAt     time.Time              `gorm:"not null"`
	UpdatedAt     time.Time              `gorm:"not null"`
	Collaborators []DocumentCollaborator `gorm:"constraint:OnDelete:CASCADE"`
}

type DocumentCollaborator struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Permission string    `gorm:"size:8;not null"`
}
