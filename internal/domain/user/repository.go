package user

import (
	"context"
	"time"
)

// Account is the server-side record behind a User: the public profile plus
// credentials and one-time tokens. Only the dev auth API handles accounts.
type Account struct {
	User

	PasswordHash string

	// VerificationToken is consumed by /auth/verify-email
	VerificationToken string

	// ResetToken is consumed by /auth/reset-password before ResetExpiresAt
	ResetToken     string
	ResetExpiresAt time.Time

	LastLoginAt *time.Time
	UpdatedAt   time.Time
}

// Repository defines the interface for account persistence operations.
type Repository interface {
	// Create persists a new account. Returns ErrUserAlreadyExists when the
	// email is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by its identifier.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByEmail retrieves an account by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByVerificationToken finds the account awaiting that verification token.
	GetByVerificationToken(ctx context.Context, token string) (*Account, error)

	// GetByResetToken finds the account holding that password reset token.
	GetByResetToken(ctx context.Context, token string) (*Account, error)

	// Update persists changes to an existing account.
	Update(ctx context.Context, account *Account) error
}
