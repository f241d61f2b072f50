package redis

import (
	"context"
	"time"

	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// TokenStore keeps the credential pair under "<namespace>:authToken" and
// "<namespace>:refreshToken".
type TokenStore struct {
	client    *Client
	namespace string
}

// NewTokenStore creates a Redis-backed token store.
func NewTokenStore(client *Client, namespace string) *TokenStore {
	return &TokenStore{client: client, namespace: namespace}
}

func (s *TokenStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

func (s *TokenStore) Load(ctx context.Context) (token.Pair, error) {
	vals, err := s.client.MGet(ctx, s.key(token.AccessTokenKey), s.key(token.RefreshTokenKey))
	if err != nil {
		return token.Pair{}, apperrors.Wrap(err, "failed to load tokens")
	}
	return token.Pair{AccessToken: vals[0], RefreshToken: vals[1]}, nil
}

func (s *TokenStore) SaveAccess(ctx context.Context, value string) error {
	return s.save(ctx, token.AccessTokenKey, value)
}

func (s *TokenStore) SaveRefresh(ctx context.Context, value string) error {
	return s.save(ctx, token.RefreshTokenKey, value)
}

func (s *TokenStore) save(ctx context.Context, name, value string) error {
	var err error
	if value == "" {
		err = s.client.Delete(ctx, s.key(name))
	} else {
		err = s.client.Set(ctx, s.key(name), value, 0)
	}
	if err != nil {
		return apperrors.Wrap(err, "failed to save "+name)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Delete(ctx, s.key(token.AccessTokenKey), s.key(token.RefreshTokenKey)); err != nil {
		return apperrors.Wrap(err, "failed to clear tokens")
	}
	return nil
}

// Close closes the shared Redis connection.
func (s *TokenStore) Close() error {
	return s.client.Close()
}

const revokedPrefix = "revoked_jti:"

// RevocationList stores revoked token IDs with a TTL matching the token's
// remaining lifetime, so entries expire on their own.
type RevocationList struct {
	client *Client
}

func NewRevocationList(client *Client) *RevocationList {
	return &RevocationList{client: client}
}

func (r *RevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedPrefix+jti, "1", ttl); err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := r.client.Exists(ctx, revokedPrefix+jti)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check revocation")
	}
	return ok, nil
}
