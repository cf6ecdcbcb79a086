package registry

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRegisterReportsFirstEdge(t *testing.T) {
	req := require.New(t)
	reg := New()
	userID := uuid.New()

	first := domain.NewSession(userID, "alice")
	second := domain.NewSession(userID, "alice")

	req.True(reg.Register(first))
	req.False(reg.Register(second))
	req.True(reg.IsOnline(userID))
	req.Len(reg.SessionsOf(userID), 2)
}

func TestUnregisterReportsLastEdge(t *testing.T) {
	req := require.New(t)
	reg := New()
	userID := uuid.New()

	first := domain.NewSession(userID, "alice")
	second := domain.NewSession(userID, "alice")
	reg.Register(first)
	reg.Register(second)

	req.False(reg.Unregister(first))
	req.True(reg.IsOnline(userID))
	req.True(reg.Unregister(second))
	req.False(reg.IsOnline(userID))
	req.Empty(reg.SessionsOf(userID))
}

func TestUnregisterUnknownSessionIsNoop(t *testing.T) {
	req := require.New(t)
	reg := New()

	sess := domain.NewSession(uuid.New(), "ghost")
	req.False(reg.Unregister(sess))

	// Unregistering twice must not report a second 1->0 edge.
	reg.Register(sess)
	req.True(reg.Unregister(sess))
	req.False(reg.Unregister(sess))
}

func TestAllSnapshotsEverySession(t *testing.T) {
	req := require.New(t)
	reg := New()

	alice := uuid.New()
	bob := uuid.New()
	reg.Register(domain.NewSession(alice, "alice"))
	reg.Register(domain.NewSession(alice, "alice"))
	reg.Register(domain.NewSession(bob, "bob"))

	req.Len(reg.All(), 3)
}

func TestSessionsOfIsolatesUsers(t *testing.T) {
	req := require.New(t)
	reg := New()

	alice := uuid.New()
	bob := uuid.New()
	aliceSess := domain.NewSession(alice, "alice")
	reg.Register(aliceSess)
	reg.Register(domain.NewSession(bob, "bob"))

	sessions := reg.SessionsOf(alice)
	req.Len(sessions, 1)
	req.Equal(aliceSess.ID, sessions[0].ID)
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	reg := New()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := domain.NewSession(userID, "alice")
			reg.Register(sess)
			reg.SessionsOf(userID)
			reg.Unregister(sess)
		}()
	}
	wg.Wait()

	require.False(t, reg.IsOnline(userID))
}
