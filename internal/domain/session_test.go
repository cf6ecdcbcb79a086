package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	req := require.New(t)
	sess := NewSession(uuid.New(), "alice")

	event, err := NewEvent(EventPresence, PresencePayload{UserID: sess.UserID, Status: UserStatusOnline})
	req.NoError(err)

	req.True(sess.EnqueueEvent(event))
	sess.Close()
	req.False(sess.EnqueueEvent(event))

	// Close is idempotent.
	sess.Close()
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	req := require.New(t)
	sess := NewSession(uuid.New(), "alice")

	event, err := NewEvent(EventError, ErrorPayload{Message: "x"})
	req.NoError(err)

	for i := 0; i < cap(sess.Events); i++ {
		req.True(sess.EnqueueEvent(event))
	}
	req.False(sess.EnqueueEvent(event))
}

func TestSessionMembershipTracking(t *testing.T) {
	req := require.New(t)
	sess := NewSession(uuid.New(), "alice")
	roomID := uuid.New()
	docID := uuid.New()

	req.False(sess.InRoom(roomID))
	sess.JoinRoom(roomID)
	req.True(sess.InRoom(roomID))
	req.Equal([]uuid.UUID{roomID}, sess.Rooms())
	sess.LeaveRoom(roomID)
	req.False(sess.InRoom(roomID))

	sess.JoinDocument(docID)
	req.True(sess.InDocument(docID))
	sess.LeaveDocument(docID)
	req.False(sess.InDocument(docID))
}

func TestPermissionSatisfies(t *testing.T) {
	req := require.New(t)
	req.True(DocumentPermissionWrite.Satisfies(DocumentPermissionRead))
	req.True(DocumentPermissionWrite.Satisfies(DocumentPermissionWrite))
	req.True(DocumentPermissionRead.Satisfies(DocumentPermissionRead))
	req.False(DocumentPermissionRead.Satisfies(DocumentPermissionWrite))
}
