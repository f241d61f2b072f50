package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenGenerator produces the one-time tokens mailed for email verification
// and password reset.
type TokenGenerator struct{}

func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken returns length random bytes as URL-safe base64.
func (g *TokenGenerator) GenerateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerificationToken is a 256-bit email verification token.
func (g *TokenGenerator) VerificationToken() (string, error) {
	return g.GenerateToken(32)
}

// ResetToken is a 256-bit password reset token.
func (g *TokenGenerator) ResetToken() (string, error) {
	return g.GenerateToken(32)
}

// HashToken returns the hex SHA-256 of token. One-time tokens are stored
// hashed so a leaked repository cannot be replayed.
func (g *TokenGenerator) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
