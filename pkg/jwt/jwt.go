package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// Manager handles JWT creation and validation for the dev auth API.
type Manager struct {
	issuer string
	secret []byte
}

// NewManager creates a new JWT manager signing with HS256.
func NewManager(issuer string, secret []byte) *Manager {
	return &Manager{issuer: issuer, secret: secret}
}

// Claims represents the claims in access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Type  string `json:"typ"`
}

// CreateAccessToken creates a signed access token for subject.
func (m *Manager) CreateAccessToken(subject, email string, ttl time.Duration) (string, *Claims, error) {
	return m.create(subject, email, token.TypeAccess, ttl)
}

// CreateRefreshToken creates a signed refresh token for subject.
func (m *Manager) CreateRefreshToken(subject string, ttl time.Duration) (string, *Claims, error) {
	return m.create(subject, "", token.TypeRefresh, ttl)
}

func (m *Manager) create(subject, email, typ string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now().UTC()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email: email,
		Type:  typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, apperrors.Wrap(err, "failed to sign "+typ+" token")
	}
	return signed, claims, nil
}

// ValidateAccessToken validates an access token and returns the claims.
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, token.TypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the claims.
func (m *Manager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, token.TypeRefresh)
}

func (m *Manager) validate(tokenString, typ string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrTokenInvalid
	}

	if claims.Type != typ {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}

// Inspection is what a client can learn from a token without the key.
type Inspection struct {
	Subject   string
	ExpiresAt time.Time
	HasExpiry bool
}

// Inspect reads the claims of a JWT without verifying its signature.
// Clients use it only to schedule refreshes; the server stays the authority.
func Inspect(tokenString string) (*Inspection, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTokenInvalid, err.Error())
	}

	out := &Inspection{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
		out.HasExpiry = true
	}
	return out, nil
}

// ExpiresWithin reports whether the token expires before now+leeway.
// Tokens that are not JWTs or carry no exp claim never report expiry.
func ExpiresWithin(tokenString string, now time.Time, leeway time.Duration) bool {
	info, err := Inspect(tokenString)
	if err != nil || !info.HasExpiry {
		return false
	}
	return !now.Add(leeway).Before(info.ExpiresAt)
}
