package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAttachSessionAutoJoinsMemberRooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	kitchen := env.newRoom(t, "kitchen", alice.ID, env.newUser(t, "bob").ID)
	garage := env.newRoom(t, "garage", alice.ID)

	sess := env.connect(alice)
	req.NoError(env.chat.AttachSession(ctx, sess))

	req.True(sess.InRoom(kitchen.ID))
	req.True(sess.InRoom(garage.ID))
}

func TestJoinRoomRequiresMembership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	stranger := env.newUser(t, "mallory")
	room := env.newRoom(t, "kitchen", alice.ID)

	sess := env.connect(stranger)
	err := env.chat.JoinRoom(ctx, sess, room.ID)
	req.ErrorIs(err, auth.ErrUnauthorized)
	req.False(sess.InRoom(room.ID))
	req.Empty(drainEvents(sess))
}

func TestJoinRoomAcknowledges(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	room := env.newRoom(t, "kitchen", alice.ID)

	sess := env.connect(alice)
	req.NoError(env.chat.JoinRoom(ctx, sess, room.ID))

	var joined domain.RoomJoinedPayload
	requireSingleEvent(t, drainEvents(sess), domain.EventRoomJoined, &joined)
	req.Equal(room.ID, joined.RoomID)
}

func TestSendMessageBroadcastsAndAcknowledges(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceSess := env.connect(alice)
	bobSess := env.connect(bob)
	req.NoError(env.chat.AttachSession(ctx, aliceSess))
	req.NoError(env.chat.AttachSession(ctx, bobSess))

	req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "dinner at 7",
		CorrelationID: "c-1",
	}))

	var delivered domain.MessageNewPayload
	requireSingleEvent(t, drainEvents(bobSess), domain.EventMessageNew, &delivered)
	req.Equal("dinner at 7", delivered.Message.Content)
	req.Equal(alice.ID, delivered.Message.AuthorID)
	req.EqualValues(1, delivered.Message.Seq)

	aliceEvents := drainEvents(aliceSess)
	var sent domain.MessageSentPayload
	requireSingleEvent(t, aliceEvents, domain.EventMessageSent, &sent)
	req.Equal("c-1", sent.CorrelationID)
	req.Equal(delivered.Message.ID, sent.Message.ID)

	// The sender's session is also a room member and receives the
	// broadcast like everyone else.
	require.Len(t, eventsOfType(aliceEvents, domain.EventMessageNew), 1)
}

func TestSendMessageSequencePerRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	kitchen := env.newRoom(t, "kitchen", alice.ID)
	garage := env.newRoom(t, "garage", alice.ID)

	sess := env.connect(alice)
	req.NoError(env.chat.AttachSession(ctx, sess))

	for i, roomID := range []uuid.UUID{kitchen.ID, kitchen.ID, garage.ID} {
		req.NoError(env.chat.SendMessage(ctx, sess, SendMessageRequest{
			RoomID:        roomID,
			Content:       "msg",
			CorrelationID: string(rune('a' + i)),
		}))
	}

	kitchenMsgs, err := env.messages.ListByRoom(ctx, kitchen.ID, 0, 50)
	req.NoError(err)
	req.Len(kitchenMsgs, 2)
	req.EqualValues(1, kitchenMsgs[0].Seq)
	req.EqualValues(2, kitchenMsgs[1].Seq)

	garageMsgs, err := env.messages.ListByRoom(ctx, garage.ID, 0, 50)
	req.NoError(err)
	req.Len(garageMsgs, 1)
	req.EqualValues(1, garageMsgs[0].Seq)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	mallory := env.newUser(t, "mallory")
	room := env.newRoom(t, "kitchen", alice.ID)

	sess := env.connect(mallory)
	err := env.chat.SendMessage(ctx, sess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "let me in",
		CorrelationID: "c-1",
	})
	req.ErrorIs(err, auth.ErrUnauthorized)

	msgs, listErr := env.messages.ListByRoom(ctx, room.ID, 0, 50)
	req.NoError(listErr)
	req.Empty(msgs)
}

// failingMessageRepo rejects every insert; everything else is unreachable
// in the scenarios that use it.
type failingMessageRepo struct {
	*repository.InMemoryMessageRepository
}

func (r failingMessageRepo) Insert(ctx context.Context, msg *domain.Message) error {
	return errors.New("store unavailable")
}

func TestSendMessageStoreFailureSuppressesBroadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	chat := NewChatService(env.rooms, failingMessageRepo{env.messages}, env.guard, env.registry, nil)

	aliceSess := env.connect(alice)
	bobSess := env.connect(bob)
	req.NoError(chat.AttachSession(ctx, aliceSess))
	req.NoError(chat.AttachSession(ctx, bobSess))

	err := chat.SendMessage(ctx, aliceSess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "lost",
		CorrelationID: "c-1",
	})
	req.Error(err)

	req.Empty(drainEvents(bobSess))
	req.Empty(drainEvents(aliceSess))
}

func TestMarkReadNotifiesOnlyAuthorSessions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID, carol.ID)

	aliceSess := env.connect(alice)
	alicePhone := env.connect(alice)
	bobSess := env.connect(bob)
	carolSess := env.connect(carol)
	for _, sess := range []*domain.Session{aliceSess, alicePhone, bobSess, carolSess} {
		req.NoError(env.chat.AttachSession(ctx, sess))
	}

	req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "anyone home?",
		CorrelationID: "c-1",
	}))

	var delivered domain.MessageNewPayload
	requireSingleEvent(t, drainEvents(bobSess), domain.EventMessageNew, &delivered)
	drainEvents(aliceSess)
	drainEvents(alicePhone)
	drainEvents(carolSess)

	req.NoError(env.chat.MarkRead(ctx, bobSess, room.ID, delivered.Message.ID))

	// Every session of the author is told, across devices.
	var receipt domain.MessageStatusUpdatedPayload
	requireSingleEvent(t, drainEvents(aliceSess), domain.EventMessageStatusUpdated, &receipt)
	req.Equal(delivered.Message.ID, receipt.MessageID)
	req.Equal(domain.MessageStatusRead, receipt.Status)
	requireSingleEvent(t, drainEvents(alicePhone), domain.EventMessageStatusUpdated, &receipt)

	// Other members, including the reader, hear nothing.
	req.Empty(drainEvents(bobSess))
	req.Empty(drainEvents(carolSess))

	msg, err := env.messages.GetByID(ctx, delivered.Message.ID)
	req.NoError(err)
	req.Equal(domain.MessageStatusRead, msg.Status)
}

func TestMarkReadAdvancesUnreadCount(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceSess := env.connect(alice)
	bobSess := env.connect(bob)
	req.NoError(env.chat.AttachSession(ctx, aliceSess))
	req.NoError(env.chat.AttachSession(ctx, bobSess))

	for i := 0; i < 3; i++ {
		req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
			RoomID:        room.ID,
			Content:       "ping",
			CorrelationID: "c",
		}))
	}
	events := eventsOfType(drainEvents(bobSess), domain.EventMessageNew)
	req.Len(events, 3)
	var last domain.MessageNewPayload
	req.NoError(json.Unmarshal(events[2].Data, &last))
	lastID := last.Message.ID

	unread, err := env.rooms.UnreadCount(ctx, room.ID, bob.ID)
	req.NoError(err)
	req.EqualValues(3, unread)

	req.NoError(env.chat.MarkRead(ctx, bobSess, room.ID, lastID))
	unread, err = env.rooms.UnreadCount(ctx, room.ID, bob.ID)
	req.NoError(err)
	req.EqualValues(0, unread)

	// Marking an older message read again never moves the marker back.
	var first domain.MessageNewPayload
	req.NoError(json.Unmarshal(events[0].Data, &first))
	req.NoError(env.chat.MarkRead(ctx, bobSess, room.ID, first.Message.ID))
	unread, err = env.rooms.UnreadCount(ctx, room.ID, bob.ID)
	req.NoError(err)
	req.EqualValues(0, unread)
}

func TestMarkReadRejectsForeignAndMissingMessages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	kitchen := env.newRoom(t, "kitchen", alice.ID)
	garage := env.newRoom(t, "garage", alice.ID)

	sess := env.connect(alice)
	req.NoError(env.chat.AttachSession(ctx, sess))

	req.NoError(env.chat.SendMessage(ctx, sess, SendMessageRequest{
		RoomID:        kitchen.ID,
		Content:       "hi",
		CorrelationID: "c-1",
	}))
	var delivered domain.MessageNewPayload
	requireSingleEvent(t, eventsOfType(drainEvents(sess), domain.EventMessageNew), domain.EventMessageNew, &delivered)

	err := env.chat.MarkRead(ctx, sess, garage.ID, delivered.Message.ID)
	req.ErrorIs(err, ErrMessageMismatch)

	err = env.chat.MarkRead(ctx, sess, kitchen.ID, uuid.New())
	req.ErrorIs(err, auth.ErrNotFound)
}

func TestTypingExcludesSenderSessionOnly(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceLaptop := env.connect(alice)
	alicePhone := env.connect(alice)
	bobSess := env.connect(bob)
	for _, sess := range []*domain.Session{aliceLaptop, alicePhone, bobSess} {
		req.NoError(env.chat.AttachSession(ctx, sess))
	}

	req.NoError(env.chat.Typing(aliceLaptop, room.ID, true))

	var typing domain.TypingEventPayload
	requireSingleEvent(t, drainEvents(bobSess), domain.EventTypingStart, &typing)
	req.Equal(alice.ID, typing.UserID)

	// The same user's other session still hears it; only the emitting
	// session is excluded.
	requireSingleEvent(t, drainEvents(alicePhone), domain.EventTypingStart, &typing)
	req.Empty(drainEvents(aliceLaptop))

	req.NoError(env.chat.Typing(aliceLaptop, room.ID, false))
	requireSingleEvent(t, drainEvents(bobSess), domain.EventTypingStop, &typing)
}

func TestTypingRequiresJoinedSession(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	room := env.newRoom(t, "kitchen", alice.ID)

	sess := env.connect(alice)
	req.ErrorIs(env.chat.Typing(sess, room.ID, true), ErrNotJoined)
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceSess := env.connect(alice)
	bobSess := env.connect(bob)
	req.NoError(env.chat.AttachSession(ctx, aliceSess))
	req.NoError(env.chat.AttachSession(ctx, bobSess))

	req.NoError(env.chat.LeaveRoom(bobSess, room.ID))
	var left domain.RoomLeftPayload
	requireSingleEvent(t, drainEvents(bobSess), domain.EventRoomLeft, &left)
	req.Equal(room.ID, left.RoomID)

	req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "still there?",
		CorrelationID: "c-1",
	}))
	requireNoEvent(t, drainEvents(bobSess), domain.EventMessageNew)

	// Membership survives; the session can rejoin.
	req.NoError(env.chat.JoinRoom(ctx, bobSess, room.ID))
	req.True(bobSess.InRoom(room.ID))
}

func TestDetachSessionRemovesAllGroups(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceSess := env.connect(alice)
	bobSess := env.connect(bob)
	req.NoError(env.chat.AttachSession(ctx, aliceSess))
	req.NoError(env.chat.AttachSession(ctx, bobSess))

	env.chat.DetachSession(bobSess)
	req.Empty(bobSess.Rooms())

	req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
		RoomID:        room.ID,
		Content:       "gone?",
		CorrelationID: "c-1",
	}))
	requireNoEvent(t, drainEvents(bobSess), domain.EventMessageNew)
}
