package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

// PresenceTracker derives online/offline transitions from the connection
// registry's 0/1 session edges. Broadcasts are fire-and-forget: a missed
// one self-heals on the next transition.
type PresenceTracker struct {
	users    repository.UserRepository
	registry *registry.Registry
	log      *slog.Logger
}

func NewPresenceTracker(users repository.UserRepository, reg *registry.Registry, log *slog.Logger) *PresenceTracker {
	if log == nil {
		log = slog.Default()
	}
	return &PresenceTracker{users: users, registry: reg, log: log}
}

// SessionConnected reacts to a registry registration. Only the user's
// first session produces a transition; 1->2 and beyond are silent.
func (t *PresenceTracker) SessionConnected(ctx context.Context, sess *domain.Session, first bool) {
	if !first {
		return
	}
	t.transition(ctx, sess, domain.UserStatusOnline)
}

// SessionDisconnected reacts to a registry removal; only losing the last
// session marks the user offline.
func (t *PresenceTracker) SessionDisconnected(ctx context.Context, sess *domain.Session, last bool) {
	if !last {
		return
	}
	t.transition(ctx, sess, domain.UserStatusOffline)
}

func (t *PresenceTracker) transition(ctx context.Context, sess *domain.Session, status domain.UserStatus) {
	const op = "service.presence.transition"
	log := t.log.With(
		slog.String("op", op),
		slog.String("user_id", sess.UserID.String()),
		slog.String("status", string(status)),
	)

	if err := t.users.SetStatus(ctx, sess.UserID, status, time.Now().UTC()); err != nil {
		log.Error("failed to persist presence", sl.Err(err))
	}

	event, err := domain.NewEvent(domain.EventPresence, domain.PresencePayload{
		UserID: sess.UserID,
		Status: status,
	})
	if err != nil {
		log.Error("failed to encode presence event", sl.Err(err))
		return
	}

	for _, other := range t.registry.All() {
		if other.UserID == sess.UserID {
			continue
		}
		if !other.EnqueueEvent(event) {
			log.Debug("dropping presence event", slog.String("session", other.ID))
		}
	}
}
