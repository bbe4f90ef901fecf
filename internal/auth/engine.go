package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

// UserLookup resolves token subjects to users. Satisfied by the storage
// layer; tests supply fakes.
type UserLookup interface {
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// ResolveUser verifies the token and resolves its subject through lookup.
// A token that fails verification reports ErrInvalidToken; a token whose
// subject is unknown or inactive reports ErrUnauthorized. The distinction
// matters: a cryptographically valid token for a deactivated user must
// still be rejected, but not as a token defect.
func ResolveUser(ctx context.Context, tokens *TokenManager, tokenString string, lookup UserLookup) (models.User, error) {
	claims, err := tokens.Verify(tokenString)
	if err != nil {
		return models.User{}, err
	}
	user, err := lookup.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

// RequireAdmin passes the user through unchanged iff it is a superuser.
func RequireAdmin(user models.User) (models.User, error) {
	if !user.IsSuperuser {
		return models.User{}, ErrForbidden
	}
	return user, nil
}
