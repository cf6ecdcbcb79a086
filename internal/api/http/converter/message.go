package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/samber/lo"
)

type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	RoomID    uuid.UUID  `json:"room_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	ReplyTo   *uuid.UUID `json:"reply_to,omitempty"`
	Seq       int64      `json:"seq"`
	CreatedAt time.Time  `json:"created_at"`
}

func MessageToApi(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Type:      string(m.Type),
		Status:    string(m.Status),
		ReplyTo:   m.ReplyTo,
		Seq:       m.Seq,
		CreatedAt: m.CreatedAt,
	}
}

func MessagesToApi(messages []*domain.Message) []MessageResponse {
	return lo.Map(messages, func(m *domain.Message, _ int) MessageResponse {
		return MessageToApi(m)
	})
}
