package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/samber/lo"
)

type DocumentResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	OwnerID      uuid.UUID `json:"owner_id"`
	IsPublic     bool      `json:"is_public"`
	LastEditedBy uuid.UUID `json:"last_edited_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CollaboratorResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Permission string    `json:"permission"`
}

func DocumentToApi(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		Title:        d.Title,
		OwnerID:      d.OwnerID,
		IsPublic:     d.IsPublic,
		LastEditedBy: d.LastEditedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func DocumentsToApi(docs []*domain.Document) []DocumentResponse {
	return lo.Map(docs, func(d *domain.Document, _ int) DocumentResponse {
		return DocumentToApi(d)
	})
}

func CollaboratorsToApi(rows []domain.DocumentCollaborator) []CollaboratorResponse {
	return lo.Map(rows, func(c domain.DocumentCollaborator, _ int) CollaboratorResponse {
		return CollaboratorResponse{UserID: c.UserID, Permission: string(c.Permission)}
	})
}
