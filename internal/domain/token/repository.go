package token

import (
	"context"
	"time"
)

// Store persists the credential pair across process restarts.
// The session service is the only writer.
type Store interface {
	// Load returns the persisted pair. Missing keys yield empty strings,
	// not an error.
	Load(ctx context.Context) (Pair, error)

	// SaveAccess replaces the access token.
	SaveAccess(ctx context.Context, token string) error

	// SaveRefresh replaces the refresh token.
	SaveRefresh(ctx context.Context, token string) error

	// Clear removes both tokens.
	Clear(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// RevocationList remembers refresh token IDs (jti) that must no longer be
// accepted. Used by the dev auth API on logout and rotation.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
