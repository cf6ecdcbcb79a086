package service

import (
	"context"
	"testing"
	"time"

	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewUserService(repository.NewInMemoryUserRepository(), tokens, nil), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, tokens := newUserService(t)

	user, token, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter22")
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.NotEqual("hunter22", user.PasswordHash, "password must never be stored raw")

	userID, err := tokens.Verify(token)
	req.NoError(err)
	req.Equal(user.ID, userID)

	loggedIn, loginToken, err := svc.Login(ctx, "alice", "hunter22")
	req.NoError(err)
	req.Equal(user.ID, loggedIn.ID)
	req.NotEmpty(loginToken)
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	req := require.New(t)
	svc, _ := newUserService(t)

	user, _, err := svc.Register(context.Background(), "bob", "bob@example.com", "", "hunter22")
	req.NoError(err)
	req.Equal("bob", user.DisplayName)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, _, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter22")
	req.NoError(err)

	_, _, err = svc.Register(ctx, "alice", "other@example.com", "Other", "hunter22")
	req.ErrorIs(err, repository.ErrUsernameExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, _, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter22")
	req.NoError(err)

	// Unknown username and wrong password fail identically.
	_, _, err = svc.Login(ctx, "nobody", "hunter22")
	req.ErrorIs(err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	req.ErrorIs(err, ErrInvalidCredentials)
}
