package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/auth"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/repository"
	"github.com/immxrtalbeast/homechat/lib/logger/sl"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, log: log}
}

func (s *UserService) Register(ctx context.Context, username, email, displayName, password string) (*domain.User, string, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, "", err
	}

	if displayName == "" {
		displayName = username
	}
	user := domain.NewUser(username, email, displayName, hash)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	const op = "service.user.login"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		log.Error("failed to compare password", sl.Err(err))
		return nil, "", err
	}
	if !match {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
