package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sessionEventBuffer = 64

// Session is a single live connection. A user may own many concurrent
// sessions (multi-device); each belongs to exactly one user and is
// destroyed on disconnect.
type Session struct {
	ID          string
	UserID      uuid.UUID
	DisplayName string
	ConnectedAt time.Time
	LastSeen    time.Time
	Mutex       sync.RWMutex
	Socket      *websocket.Conn
	Events      chan Envelope

	rooms     map[uuid.UUID]struct{}
	documents map[uuid.UUID]struct{}
	closed    bool
}

func NewSession(userID uuid.UUID, displayName string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		DisplayName: displayName,
		ConnectedAt: now,
		LastSeen:    now,
		Events:      make(chan Envelope, sessionEventBuffer),
		rooms:       make(map[uuid.UUID]struct{}),
		documents:   make(map[uuid.UUID]struct{}),
	}
}

func (s *Session) Touch() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.LastSeen = time.Now().UTC()
}

// EnqueueEvent hands an event to the session writer without blocking the
// caller; a session that cannot keep up drops events (no replay, clients
// re-derive state on reconnect).
func (s *Session) EnqueueEvent(event Envelope) bool {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.Events <- event:
		return true
	default:
		return false
	}
}

// Close stops event delivery and releases the writer goroutine. Safe to
// call more than once; enqueues after Close are dropped, never panic.
func (s *Session) Close() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Events)
}

func (s *Session) JoinRoom(roomID uuid.UUID) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.rooms[roomID] = struct{}{}
}

func (s *Session) LeaveRoom(roomID uuid.UUID) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	delete(s.rooms, roomID)
}

func (s *Session) InRoom(roomID uuid.UUID) bool {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

func (s *Session) Rooms() []uuid.UUID {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) JoinDocument(documentID uuid.UUID) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.documents[documentID] = struct{}{}
}

func (s *Session) LeaveDocument(documentID uuid.UUID) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	delete(s.documents, documentID)
}

func (s *Session) InDocument(documentID uuid.UUID) bool {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	_, ok := s.documents[documentID]
	return ok
}

func (s *Session) Documents() []uuid.UUID {
	s.Mutex.RLock()
	defer s.Mutex.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	return ids
}
