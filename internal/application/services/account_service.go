package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/internal/application/validation"
	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/crypto"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/jwt"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// Built-in roles of the dev auth API.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var builtinRoles = map[string][]string{
	RoleAdmin: {"user_management", "edit"},
	RoleUser:  {"view"},
}

const resetTokenTTL = time.Hour

// Mailer delivers one-time tokens to an account's address.
type Mailer interface {
	Send(ctx context.Context, email, purpose, token string) error
}

// LogMailer writes tokens to the log instead of sending mail.
type LogMailer struct {
	Logger logger.Logger
}

func (m LogMailer) Send(_ context.Context, email, purpose, token string) error {
	m.Logger.Info("one-time token issued",
		logger.String("email", email),
		logger.String("purpose", purpose),
		logger.String("token", token),
	)
	return nil
}

// AccountService implements the server side of the /auth endpoints.
type AccountService struct {
	accounts    user.Repository
	revocations token.RevocationList
	hasher      *crypto.Argon2Hasher
	tokenGen    *crypto.TokenGenerator
	jwtManager  *jwt.Manager
	mailer      Mailer
	cfg         *config.Config
	logger      logger.Logger
	now         func() time.Time
}

// NewAccountService creates the dev API account service.
func NewAccountService(
	accounts user.Repository,
	revocations token.RevocationList,
	hasher *crypto.Argon2Hasher,
	tokenGen *crypto.TokenGenerator,
	jwtManager *jwt.Manager,
	mailer Mailer,
	cfg *config.Config,
	log logger.Logger,
) *AccountService {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("accounts"))
	if mailer == nil {
		mailer = LogMailer{Logger: log}
	}
	return &AccountService{
		accounts:    accounts,
		revocations: revocations,
		hasher:      hasher,
		tokenGen:    tokenGen,
		jwtManager:  jwtManager,
		mailer:      mailer,
		cfg:         cfg,
		logger:      log,
		now:         time.Now,
	}
}

// Register creates an account with the user role. The response carries
// tokens when auto-login on register is enabled.
func (s *AccountService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := checkNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	a, err := s.create(ctx, req, RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.issueVerification(ctx, a); err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{
		User:    a.User.Clone(),
		Message: "User registered successfully. Please check your email to verify your account.",
	}
	if s.cfg.Auth.AutoLoginOnRegister {
		if err := s.issueTokens(a, resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Seed creates a verified account with the given roles, for fixtures and
// local development.
func (s *AccountService) Seed(ctx context.Context, req dto.RegisterRequest, roles ...string) (*user.User, error) {
	a, err := s.create(ctx, req, roles...)
	if err != nil {
		return nil, err
	}
	a.IsVerified = true
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "failed to verify seeded account")
	}
	return a.User.Clone(), nil
}

func (s *AccountService) create(ctx context.Context, req dto.RegisterRequest, roles ...string) (*user.Account, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := s.now().UTC()
	a := &user.Account{
		User: user.User{
			ID:        uuid.NewString(),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     strings.TrimSpace(req.Phone),
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			IsActive:  true,
			Roles:     rolesFor(roles),
			CreatedAt: &user.Timestamp{Time: now},
		},
		PasswordHash: hash,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("account created", logger.UserID(a.ID))
	return a, nil
}

// Login checks credentials and issues a token pair.
func (s *AccountService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, a.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify password")
	}
	if !ok {
		return nil, errors.ErrInvalidCredentials
	}
	if !a.IsActive {
		return nil, errors.ErrForbidden
	}

	if stale, err := s.hasher.NeedsRehash(a.PasswordHash); err == nil && stale {
		if hash, err := s.hasher.Hash(req.Password); err == nil {
			a.PasswordHash = hash
		}
	}
	now := s.now().UTC()
	a.LastLoginAt = &now
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "failed to record login")
	}

	resp := &dto.AuthResponse{User: a.User.Clone(), Message: "Login successful"}
	if err := s.issueTokens(a, resp); err != nil {
		return nil, err
	}
	s.logger.Info("login", logger.UserID(a.ID))
	return resp, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	a, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrTokenInvalid
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, errors.ErrForbidden
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{}
	if err := s.issueTokens(a, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Authenticate validates an access token and returns its claims.
func (s *AccountService) Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout revokes the access token behind the request and, when given, the
// refresh token. An unusable refresh token is ignored.
func (s *AccountService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if access != nil {
		if err := s.revoke(ctx, access); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	if access != nil && claims.Subject != access.Subject {
		return nil
	}
	return s.revoke(ctx, claims)
}

// Me returns the user behind userID.
func (s *AccountService) Me(ctx context.Context, userID string) (*user.User, error) {
	a, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.User.Clone(), nil
}

// UpdateProfile changes the non-empty fields of req.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*user.User, error) {
	a, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := &errors.ValidationErrors{}
	if name := strings.TrimSpace(req.FirstName); name != "" {
		if len([]rune(name)) < 2 {
			v.Add("first_name", "First name must be at least 2 characters")
		}
		a.FirstName = name
	}
	if name := strings.TrimSpace(req.LastName); name != "" {
		if len([]rune(name)) < 2 {
			v.Add("last_name", "Last name must be at least 2 characters")
		}
		a.LastName = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		a.Phone = phone
	}
	if v.HasErrors() {
		return nil, v
	}

	a.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}
	return a.User.Clone(), nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	a, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(req.CurrentPassword, a.PasswordHash)
	if err != nil {
		return errors.Wrap(err, "failed to verify password")
	}
	if !ok {
		return errors.Wrap(errors.ErrInvalidCredentials, "current password is incorrect")
	}
	if err := checkNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	return s.setPassword(ctx, a, req.NewPassword)
}

// ForgotPassword mails a reset token when the address is known. The outcome
// is the same either way so addresses cannot be probed.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, errors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := s.tokenGen.ResetToken()
	if err != nil {
		return err
	}
	a.ResetToken = s.tokenGen.HashToken(raw)
	a.ResetExpiresAt = s.now().Add(resetTokenTTL)
	if err := s.accounts.Update(ctx, a); err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}
	return s.mailer.Send(ctx, a.Email, "reset_password", raw)
}

// ResetPassword consumes a reset token.
func (s *AccountService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	a, err := s.accounts.GetByResetToken(ctx, s.tokenGen.HashToken(req.Token))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return errors.ErrTokenInvalid
		}
		return err
	}
	if !s.now().Before(a.ResetExpiresAt) {
		return errors.ErrTokenExpired
	}
	if err := checkNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	a.ResetToken = ""
	a.ResetExpiresAt = time.Time{}
	return s.setPassword(ctx, a, req.Password)
}

// VerifyEmail consumes a verification token and returns the verified user.
func (s *AccountService) VerifyEmail(ctx context.Context, verificationToken string) (*user.User, error) {
	a, err := s.accounts.GetByVerificationToken(ctx, s.tokenGen.HashToken(verificationToken))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrTokenInvalid
		}
		return nil, err
	}

	a.IsVerified = true
	a.VerificationToken = ""
	a.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, errors.Wrap(err, "failed to verify email")
	}
	return a.User.Clone(), nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Unknown and already verified addresses are silently accepted.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, errors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if a.IsVerified {
		return nil
	}
	return s.issueVerification(ctx, a)
}

func (s *AccountService) issueVerification(ctx context.Context, a *user.Account) error {
	raw, err := s.tokenGen.VerificationToken()
	if err != nil {
		return err
	}
	a.VerificationToken = s.tokenGen.HashToken(raw)
	if err := s.accounts.Update(ctx, a); err != nil {
		return errors.Wrap(err, "failed to store verification token")
	}
	return s.mailer.Send(ctx, a.Email, "verify_email", raw)
}

func (s *AccountService) setPassword(ctx context.Context, a *user.Account, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	a.PasswordHash = hash
	a.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, a); err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	s.logger.Info("password changed", logger.UserID(a.ID))
	return nil
}

func (s *AccountService) issueTokens(a *user.Account, resp *dto.AuthResponse) error {
	access, _, err := s.jwtManager.CreateAccessToken(a.ID, a.Email, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return err
	}
	refresh, _, err := s.jwtManager.CreateRefreshToken(a.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return err
	}

	resp.AccessToken = access
	resp.RefreshToken = refresh
	resp.TokenType = "Bearer"
	resp.ExpiresIn = int64(s.cfg.JWT.AccessTokenTTL.Seconds())
	return nil
}

func (s *AccountService) checkRevoked(ctx context.Context, claims *jwt.Claims) error {
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return errors.ErrTokenInvalid
	}
	return nil
}

func (s *AccountService) revoke(ctx context.Context, claims *jwt.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func checkNewPassword(password, confirm string) error {
	if msg := validation.PasswordProblem(password); msg != "" {
		v := &errors.ValidationErrors{}
		v.Add("password", msg)
		return v
	}
	if password != confirm {
		return errors.ErrPasswordMismatch
	}
	return nil
}

func rolesFor(names []string) []user.Role {
	roles := make([]user.Role, 0, len(names))
	for _, name := range names {
		role := user.Role{Name: name}
		for _, p := range builtinRoles[name] {
			role.Permissions = append(role.Permissions, user.Permission{Name: p})
		}
		roles = append(roles, role)
	}
	return roles
}
