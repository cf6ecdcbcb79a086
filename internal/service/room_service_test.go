package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")

	room, err := env.roomsSvc.CreateRoom(ctx, alice.ID, "family", domain.RoomTypeGroup, []uuid.UUID{bob.ID, carol.ID})
	req.NoError(err)
	req.Equal(domain.RoomTypeGroup, room.Type)

	for _, userID := range []uuid.UUID{alice.ID, bob.ID, carol.ID} {
		member, err := env.rooms.IsMember(ctx, room.ID, userID)
		req.NoError(err)
		req.True(member)
	}
}

func TestCreateDirectRoomMemberCount(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	carol := env.newUser(t, "carol")

	// The creator is the implicit second member.
	room, err := env.roomsSvc.CreateRoom(ctx, alice.ID, "", domain.RoomTypeDirect, []uuid.UUID{bob.ID})
	req.NoError(err)
	member, err := env.rooms.IsMember(ctx, room.ID, alice.ID)
	req.NoError(err)
	req.True(member)

	_, err = env.roomsSvc.CreateRoom(ctx, alice.ID, "", domain.RoomTypeDirect, nil)
	req.ErrorIs(err, ErrDirectRoomMembers)

	_, err = env.roomsSvc.CreateRoom(ctx, alice.ID, "", domain.RoomTypeDirect, []uuid.UUID{bob.ID, carol.ID})
	req.ErrorIs(err, ErrDirectRoomMembers)

	_, err = env.roomsSvc.CreateRoom(ctx, alice.ID, "x", domain.RoomType("broadcast"), nil)
	req.ErrorIs(err, ErrRoomTypeInvalid)
}

func TestListRoomsIncludesUnread(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	room := env.newRoom(t, "kitchen", alice.ID, bob.ID)

	aliceSess := env.connect(alice)
	req.NoError(env.chat.AttachSession(ctx, aliceSess))
	for i := 0; i < 2; i++ {
		req.NoError(env.chat.SendMessage(ctx, aliceSess, SendMessageRequest{
			RoomID:        room.ID,
			Content:       "hello",
			CorrelationID: "c",
		}))
	}

	summaries, err := env.roomsSvc.ListRooms(ctx, bob.ID)
	req.NoError(err)
	req.Len(summaries, 1)
	req.Equal(room.ID, summaries[0].Room.ID)
	req.EqualValues(2, summaries[0].UnreadCount)

	// The author's own messages never count against them.
	summaries, err = env.roomsSvc.ListRooms(ctx, alice.ID)
	req.NoError(err)
	req.EqualValues(0, summaries[0].UnreadCount)
}

func TestListMessagesPagination(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.newUser(t, "alice")
	mallory := env.newUser(t, "mallory")
	room := env.newRoom(t, "kitchen", alice.ID)

	sess := env.connect(alice)
	req.NoError(env.chat.AttachSession(ctx, sess))
	for i := 0; i < 5; i++ {
		req.NoError(env.chat.SendMessage(ctx, sess, SendMessageRequest{
			RoomID:        room.ID,
			Content:       "m",
			CorrelationID: "c",
		}))
	}

	page, err := env.roomsSvc.ListMessages(ctx, alice.ID, room.ID, 0, 2)
	req.NoError(err)
	req.Len(page, 2)
	req.EqualValues(4, page[0].Seq)
	req.EqualValues(5, page[1].Seq)

	older, err := env.roomsSvc.ListMessages(ctx, alice.ID, room.ID, page[0].Seq, 2)
	req.NoError(err)
	req.Len(older, 2)
	req.EqualValues(2, older[0].Seq)
	req.EqualValues(3, older[1].Seq)

	_, err = env.roomsSvc.ListMessages(ctx, mallory.ID, room.ID, 0, 10)
	req.ErrorIs(err, auth.ErrUnauthorized)
}
