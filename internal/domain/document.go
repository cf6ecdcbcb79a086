package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentPermission string

const (
	DocumentPermissionRead  DocumentPermission = "read"
	DocumentPermissionWrite DocumentPermission = "write"
)

// Satisfies reports whether the held permission covers the required one.
// Write covers both levels; read covers only read.
func (p DocumentPermission) Satisfies(required DocumentPermission) bool {
	if p == DocumentPermissionWrite {
		return true
	}
	return p == DocumentPermissionRead && required == DocumentPermissionRead
}

// Document content is an opaque blob owned by the external collaboration
// library; the server stores and relays it without interpretation.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	OwnerID      uuid.UUID `json:"owner_id"`
	IsPublic     bool      `json:"is_public"`
	Content      []byte    `json:"content,omitempty"`
	LastEditedBy uuid.UUID `json:"last_edited_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewDocument(title string, owner uuid.UUID, isPublic bool) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:           uuid.New(),
		Title:        title,
		OwnerID:      owner,
		IsPublic:     isPublic,
		LastEditedBy: owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DocumentCollaborator grants a user access to a document. The owner always
// holds an irremovable write record.
type DocumentCollaborator struct {
	DocumentID uuid.UUID          `json:"document_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Permission DocumentPermission `json:"permission"`
}
