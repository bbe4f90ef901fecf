package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanbot/finanbot/internal/models"
	"github.com/finanbot/finanbot/internal/storage"
)

type fakeLookup struct {
	users map[uuid.UUID]models.User
}

func (f *fakeLookup) UserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func TestResolveUser_ActiveUser(t *testing.T) {
	tm := testTokens(t, time.Now)
	user := models.User{ID: uuid.New(), Email: "ana@example.com", IsActive: true}
	lookup := &fakeLookup{users: map[uuid.UUID]models.User{user.ID: user}}

	token, err := tm.Issue(user.ID, nil, 0)
	require.NoError(t, err)

	resolved, err := ResolveUser(context.Background(), tm, token, lookup)
	require.NoError(t, err)
	assert.Equal(t, user, resolved)
}

func TestResolveUser_UnknownSubjectIsUnauthorized(t *testing.T) {
	tm := testTokens(t, time.Now)
	lookup := &fakeLookup{users: map[uuid.UUID]models.User{}}

	// structurally valid, unexpired token for a subject that does not exist
	token, err := tm.Issue(uuid.New(), nil, 0)
	require.NoError(t, err)

	_, err = ResolveUser(context.Background(), tm, token, lookup)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestResolveUser_InactiveUserIsUnauthorized(t *testing.T) {
	tm := testTokens(t, time.Now)
	user := models.User{ID: uuid.New(), IsActive: false}
	lookup := &fakeLookup{users: map[uuid.UUID]models.User{user.ID: user}}

	token, err := tm.Issue(user.ID, nil, 0)
	require.NoError(t, err)

	_, err = ResolveUser(context.Background(), tm, token, lookup)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveUser_BadTokenIsInvalidToken(t *testing.T) {
	tm := testTokens(t, time.Now)
	lookup := &fakeLookup{users: map[uuid.UUID]models.User{}}

	_, err := ResolveUser(context.Background(), tm, "not.a.token", lookup)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAdmin(t *testing.T) {
	admin := models.User{ID: uuid.New(), IsActive: true, IsSuperuser: true}
	regular := models.User{ID: uuid.New(), IsActive: true}

	got, err := RequireAdmin(admin)
	require.NoError(t, err)
	assert.Equal(t, admin, got, "admin passes through unchanged")

	_, err = RequireAdmin(regular)
	assert.ErrorIs(t, err, ErrForbidden)
}
