package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
)

// Registry is the single authority for "is this user connected". It maps
// each user to the set of live sessions they own; nothing else in the
// server tracks liveness independently. Constructed at server start and
// torn down with it, never a package-level global.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]*domain.Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]map[string]*domain.Session),
	}
}

// Register adds the session to its user's set, idempotently. It reports
// whether this was the user's first live session (the 0->1 presence
// edge).
func (r *Registry) Register(sess *domain.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[sess.UserID]
	if !ok {
		set = make(map[string]*domain.Session)
		r.sessions[sess.UserID] = set
	}
	first := len(set) == 0
	set[sess.ID] = sess
	return first
}

// Unregister removes the session and reports whether the user has no
// sessions left (the 1->0 presence edge). Removing an unknown session is
// a no-op reporting false.
func (r *Registry) Unregister(sess *domain.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[sess.UserID]
	if !ok {
		return false
	}
	if _, ok := set[sess.ID]; !ok {
		return false
	}
	delete(set, sess.ID)
	if len(set) == 0 {
		delete(r.sessions, sess.UserID)
		return true
	}
	return false
}

// SessionsOf returns every live session of one user, for per-device
// fan-out such as read-receipt delivery.
func (r *Registry) SessionsOf(userID uuid.UUID) []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[userID]
	result := make([]*domain.Session, 0, len(set))
	for _, sess := range set {
		result = append(result, sess)
	}
	return result
}

// All snapshots every connected session across all users.
func (r *Registry) All() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Session
	for _, set := range r.sessions {
		for _, sess := range set {
			result = append(result, sess)
		}
	}
	return result
}

// IsOnline reports whether the user owns at least one live session.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}
