// Package memory holds process-local repositories for the dev auth API.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// UserRepository keeps accounts in a map keyed by ID. Every read and write
// copies the account so callers never share memory with the repository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*user.Account
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*user.Account),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, a *user.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(a.Email)
	if _, taken := r.byEmail[email]; taken {
		return apperrors.ErrUserAlreadyExists
	}
	if _, taken := r.byID[a.ID]; taken {
		return apperrors.ErrUserAlreadyExists
	}

	r.byID[a.ID] = cloneAccount(a)
	r.byEmail[email] = a.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneAccount(r.byID[id]), nil
}

func (r *UserRepository) GetByVerificationToken(_ context.Context, token string) (*user.Account, error) {
	return r.find(func(a *user.Account) bool {
		return token != "" && a.VerificationToken == token
	})
}

func (r *UserRepository) GetByResetToken(_ context.Context, token string) (*user.Account, error) {
	return r.find(func(a *user.Account) bool {
		return token != "" && a.ResetToken == token
	})
}

func (r *UserRepository) Update(_ context.Context, a *user.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	oldEmail, newEmail := normalizeEmail(existing.Email), normalizeEmail(a.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return apperrors.ErrUserAlreadyExists
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = a.ID
	}

	r.byID[a.ID] = cloneAccount(a)
	return nil
}

func (r *UserRepository) find(match func(*user.Account) bool) (*user.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func cloneAccount(a *user.Account) *user.Account {
	c := *a
	c.User = *a.User.Clone()
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
