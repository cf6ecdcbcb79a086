package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/registry"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against in-memory repositories, the same way
// main wires them against Postgres.
type testEnv struct {
	users     *repository.InMemoryUserRepository
	rooms     *repository.InMemoryRoomRepository
	messages  *repository.InMemoryMessageRepository
	documents *repository.InMemoryDocumentRepository
	guard     *auth.Guard
	registry  *registry.Registry
	chat      *ChatService
	docs      *DocumentService
	presence  *PresenceTracker
	roomsSvc  *RoomService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewInMemoryUserRepository()
	rooms := repository.NewInMemoryRoomRepository()
	messages := repository.NewInMemoryMessageRepository()
	documents := repository.NewInMemoryDocumentRepository()
	rooms.AttachMessages(messages)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	guard := auth.NewGuard(tokens, users, rooms, documents)
	reg := registry.New()

	return &testEnv{
		users:     users,
		rooms:     rooms,
		messages:  messages,
		documents: documents,
		guard:     guard,
		registry:  reg,
		chat:      NewChatService(rooms, messages, guard, reg, nil),
		docs:      NewDocumentService(documents, guard, reg, nil),
		presence:  NewPresenceTracker(users, reg, nil),
		roomsSvc:  NewRoomService(rooms, messages, guard, nil),
	}
}

func (e *testEnv) newUser(t *testing.T, name string) *domain.User {
	t.Helper()
	user := domain.NewUser(name, name+"@example.com", name, "hash")
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) newRoom(t *testing.T, name string, members ...uuid.UUID) *domain.Room {
	t.Helper()
	room := domain.NewRoom(name, domain.RoomTypeGroup)
	require.NoError(t, e.rooms.Create(context.Background(), room, members))
	return room
}

func (e *testEnv) newDocument(t *testing.T, title string, owner uuid.UUID, isPublic bool) *domain.Document {
	t.Helper()
	doc := domain.NewDocument(title, owner, isPublic)
	require.NoError(t, e.documents.Create(context.Background(), doc))
	return doc
}

// connect registers the session as a live connection, the way the
// websocket transport does on upgrade.
func (e *testEnv) connect(user *domain.User) *domain.Session {
	sess := domain.NewSession(user.ID, user.DisplayName)
	e.registry.Register(sess)
	return sess
}

// drainEvents empties the session's delivery channel without blocking.
func drainEvents(sess *domain.Session) []domain.Envelope {
	var events []domain.Envelope
	for {
		select {
		case event, ok := <-sess.Events:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func eventsOfType(events []domain.Envelope, eventType domain.EventType) []domain.Envelope {
	var result []domain.Envelope
	for _, event := range events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

func requireSingleEvent(t *testing.T, events []domain.Envelope, eventType domain.EventType, payload any) {
	t.Helper()
	matched := eventsOfType(events, eventType)
	require.Len(t, matched, 1, "expected exactly one %s event", eventType)
	require.NoError(t, json.Unmarshal(matched[0].Data, payload))
}

func requireNoEvent(t *testing.T, events []domain.Envelope, eventType domain.EventType) {
	t.Helper()
	require.Empty(t, eventsOfType(events, eventType), "expected no %s event", eventType)
}
