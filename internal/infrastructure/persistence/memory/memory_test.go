package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
)

func newAccount(id, email string) *user.Account {
	return &user.Account{
		User: user.User{
			ID:    id,
			Email: email,
			Roles: []user.Role{{Name: "user", Permissions: []user.Permission{{Name: "view"}}}},
		},
		PasswordHash: "hash",
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, newAccount("1", "Rahim@Example.com")))

	got, err := r.GetByEmail(ctx, "rahim@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	err = r.Create(ctx, newAccount("2", "RAHIM@example.com"))
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, newAccount("1", "a@b.com")))

	got, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	got.Roles[0].Permissions[0].Name = "tampered"
	got.FirstName = "tampered"

	again, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "view", again.Roles[0].Permissions[0].Name)
	assert.Empty(t, again.FirstName)
}

func TestUserRepository_UpdateAndTokenLookup(t *testing.T) {
	r := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, r.Create(ctx, newAccount("1", "a@b.com")))
	require.NoError(t, r.Create(ctx, newAccount("2", "c@d.com")))

	a, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	a.VerificationToken = "vt"
	a.ResetToken = "rt"
	require.NoError(t, r.Update(ctx, a))

	got, err := r.GetByVerificationToken(ctx, "vt")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	got, err = r.GetByResetToken(ctx, "rt")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = r.GetByResetToken(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	a.Email = "c@d.com"
	assert.ErrorIs(t, r.Update(ctx, a), apperrors.ErrUserAlreadyExists)

	assert.ErrorIs(t, r.Update(ctx, newAccount("9", "x@y.com")), apperrors.ErrUserNotFound)
}

func TestRevocationList(t *testing.T) {
	l := NewRevocationList()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, l.Revoke(ctx, "b", now.Add(-time.Minute)))

	revoked, _ := l.IsRevoked(ctx, "a")
	assert.True(t, revoked)
	revoked, _ = l.IsRevoked(ctx, "b")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = l.IsRevoked(ctx, "a")
	assert.False(t, revoked)
}
