package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/homechat/internal/domain"
	"github.com/immxrtalbeast/homechat/internal/repository"
)

var (
	// ErrUnauthenticated means the credential itself failed: callers map
	// it to a refused connection (401), never to a per-operation error.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means a valid identity lacks access to the target.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is kept distinct internally; transports report it the
	// same way as ErrUnauthorized so resource existence is not leaked.
	ErrNotFound = errors.New("not found")
)

// Guard resolves credentials to identities and answers room/document
// authorization questions. It holds no state of its own: every decision
// is a pure read over the token, the store and the clock.
type Guard struct {
	tokens    *TokenManager
	users     repository.UserRepository
	rooms     repository.RoomRepository
	documents repository.DocumentRepository
}

func NewGuard(tokens *TokenManager, users repository.UserRepository, rooms repository.RoomRepository, documents repository.DocumentRepository) *Guard {
	return &Guard{
		tokens:    tokens,
		users:     users,
		rooms:     rooms,
		documents: documents,
	}
}

// Authenticate verifies the token and resolves the encoded user. A token
// for a user that no longer exists fails the same way as a bad token.
func (g *Guard) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// AuthorizeRoom allows access iff a membership row exists. Room access is
// binary: there is no read/write distinction.
func (g *Guard) AuthorizeRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	member, err := g.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrUnauthorized
	}
	return nil
}

// AuthorizeDocument evaluates, in order: owner (any level), public
// document for read requests, then the collaborator table where write
// satisfies both levels.
func (g *Guard) AuthorizeDocument(ctx context.Context, userID, documentID uuid.UUID, required domain.DocumentPermission) error {
	doc, err := g.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return ErrNotFound
		}
		return err
	}

	if doc.OwnerID == userID {
		return nil
	}

	if required == "" {
		required = domain.DocumentPermissionRead
	}

	if doc.IsPublic && required == domain.DocumentPermissionRead {
		return nil
	}

	permission, ok, err := g.documents.CollaboratorPermission(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if !ok || !permission.Satisfies(required) {
		return ErrUnauthorized
	}
	return nil
}

// IsDocumentOwner backs operations the collaborator table must not grant,
// such as delete.
func (g *Guard) IsDocumentOwner(ctx context.Context, userID, documentID uuid.UUID) (bool, error) {
	doc, err := g.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	return doc.OwnerID == userID, nil
}
