package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/jwt"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// AuthAPI is the remote side of the session: the /auth endpoints.
type AuthAPI interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Me(ctx context.Context) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (*dto.MessageResponse, error)
	ForgotPassword(ctx context.Context, email string) (*dto.MessageResponse, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (*dto.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) (*dto.MessageResponse, error)
}

type opKind string

const (
	opRestore            opKind = "restore"
	opLogin              opKind = "login"
	opRegister           opKind = "register"
	opUpdateProfile      opKind = "update_profile"
	opChangePassword     opKind = "change_password"
	opForgotPassword     opKind = "forgot_password"
	opResetPassword      opKind = "reset_password"
	opVerifyEmail        opKind = "verify_email"
	opResendVerification opKind = "resend_verification"
	opRefresh            opKind = "refresh"
)

const logoutTimeout = 10 * time.Second

// bearerOps need a valid access token; a 401 from them means the stored
// token is no longer accepted.
var bearerOps = map[opKind]bool{
	opUpdateProfile:  true,
	opChangePassword: true,
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithRefreshLeeway sets how close to expiry EnsureFreshToken lets the
// access token get before refreshing it.
func WithRefreshLeeway(d time.Duration) SessionOption {
	return func(s *SessionService) { s.leeway = d }
}

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// Snapshot is a consistent view of the session state.
type Snapshot struct {
	User          *user.User
	Authenticated bool
	Loading       bool
	LastError     error
}

// SessionService owns the signed-in identity and the persisted token pair,
// and mediates every authentication call to the API. It is the only writer
// of its token store.
//
// Overlapping calls of the same kind are rejected with ErrOperationInFlight.
// Every operation captures the session generation when it starts; Logout and
// Invalidate advance it, and a response that arrives for an older generation
// is dropped with ErrStaleResponse.
type SessionService struct {
	api    AuthAPI
	store  token.Store
	logger logger.Logger
	leeway time.Duration
	now    func() time.Time

	mu        sync.Mutex
	user      *user.User
	tokens    token.Pair
	lastError error
	inflight  int
	running   map[opKind]bool
	gen       uint64

	refreshGroup singleflight.Group
}

// NewSessionService creates a session manager. Call RestoreSession before
// relying on the persisted tokens.
func NewSessionService(api AuthAPI, store token.Store, log logger.Logger, opts ...SessionOption) *SessionService {
	if log == nil {
		log = logger.Default()
	}
	s := &SessionService{
		api:     api,
		store:   store,
		logger:  log.With(logger.Component("session")),
		leeway:  30 * time.Second,
		now:     time.Now,
		running: make(map[opKind]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type bearerKey struct{}

// AccessToken implements httpclient.TokenSource.
func (s *SessionService) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := ctx.Value(bearerKey{}).(string); ok {
		return tok, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.AccessToken, nil
}

// RestoreSession loads the persisted tokens and, when an access token is
// present, asks the API who it belongs to. Any failure purges both tokens.
func (s *SessionService) RestoreSession(ctx context.Context) {
	pair, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load persisted tokens", logger.Error(err))
		return
	}

	s.mu.Lock()
	s.tokens = pair
	s.mu.Unlock()

	if !pair.HasAccess() {
		return
	}

	gen, err := s.begin(opRestore)
	if err != nil {
		return
	}
	defer s.end(opRestore)

	resp, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if err != nil || resp.User == nil {
		if err == nil {
			err = errors.ErrMalformedResponse
		}
		s.logger.Warn("stored session rejected, clearing tokens", logger.Error(err))
		s.user = nil
		s.purgeLocked(ctx)
		return
	}
	s.user = resp.User.Clone()
	s.logger.Debug("session restored", logger.UserID(s.user.ID))
}

// Login signs in with credentials and persists the returned tokens.
func (s *SessionService) Login(ctx context.Context, req dto.LoginRequest) Result {
	gen, err := s.begin(opLogin)
	if err != nil {
		return failed(err)
	}
	defer s.end(opLogin)

	resp, err := s.api.Login(ctx, req)
	if err == nil {
		err = checkSignIn(resp, "login")
	}
	if err != nil {
		return s.fail(ctx, gen, opLogin, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	if err := s.signInLocked(ctx, resp); err != nil {
		s.lastError = err
		return failed(err)
	}
	s.logger.Info("signed in", logger.UserID(userID(s.user)))
	return succeeded(s.user.Clone(), resp.Message)
}

// Register creates an account. When the API signs the new user in (returns
// an access token) the session switches to it; otherwise the session is left
// alone and the returned user is informational.
func (s *SessionService) Register(ctx context.Context, req dto.RegisterRequest) Result {
	gen, err := s.begin(opRegister)
	if err != nil {
		return failed(err)
	}
	defer s.end(opRegister)

	resp, err := s.api.Register(ctx, req)
	if err == nil && resp.AccessToken != "" {
		err = checkSignIn(resp, "register")
	}
	if err != nil {
		return s.fail(ctx, gen, opRegister, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	if resp.AccessToken == "" {
		return succeeded(resp.User.Clone(), resp.Message)
	}
	if err := s.signInLocked(ctx, resp); err != nil {
		s.lastError = err
		return failed(err)
	}
	return succeeded(s.user.Clone(), resp.Message)
}

// Logout ends the session. Local state is always cleared; the remote call is
// best effort and its failure is only logged.
func (s *SessionService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	pair := s.tokens
	s.user = nil
	s.lastError = nil
	s.purgeLocked(ctx)
	s.mu.Unlock()

	if !pair.HasAccess() && !pair.HasRefresh() {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, bearerKey{}, pair.AccessToken)

	if err := s.api.Logout(ctx, pair.RefreshToken); err != nil {
		s.logger.Warn("remote logout failed", logger.Error(err))
		return
	}
	s.logger.Info("signed out")
}

// UpdateProfile saves profile fields and adopts the returned user.
func (s *SessionService) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) Result {
	gen, err := s.begin(opUpdateProfile)
	if err != nil {
		return failed(err)
	}
	defer s.end(opUpdateProfile)

	resp, err := s.api.UpdateProfile(ctx, req)
	if err == nil && resp.User == nil {
		err = errors.Wrap(errors.ErrMalformedResponse, "profile response carried no user")
	}
	if err != nil {
		return s.fail(ctx, gen, opUpdateProfile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	s.user = resp.User.Clone()
	return succeeded(s.user.Clone(), resp.Message)
}

func (s *SessionService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) Result {
	return s.message(ctx, opChangePassword, func() (*dto.MessageResponse, error) {
		return s.api.ChangePassword(ctx, req)
	})
}

func (s *SessionService) ForgotPassword(ctx context.Context, email string) Result {
	return s.message(ctx, opForgotPassword, func() (*dto.MessageResponse, error) {
		return s.api.ForgotPassword(ctx, email)
	})
}

func (s *SessionService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) Result {
	return s.message(ctx, opResetPassword, func() (*dto.MessageResponse, error) {
		return s.api.ResetPassword(ctx, req)
	})
}

func (s *SessionService) ResendVerification(ctx context.Context, email string) Result {
	return s.message(ctx, opResendVerification, func() (*dto.MessageResponse, error) {
		return s.api.ResendVerification(ctx, email)
	})
}

// VerifyEmail confirms an address; the current user is replaced when the
// API includes one in its response.
func (s *SessionService) VerifyEmail(ctx context.Context, verificationToken string) Result {
	gen, err := s.begin(opVerifyEmail)
	if err != nil {
		return failed(err)
	}
	defer s.end(opVerifyEmail)

	resp, err := s.api.VerifyEmail(ctx, verificationToken)
	if err != nil {
		return s.fail(ctx, gen, opVerifyEmail, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	if resp.User != nil {
		s.user = resp.User.Clone()
	}
	return succeeded(s.user.Clone(), resp.Message)
}

// RefreshAccessToken trades the refresh token for a new access token.
// Concurrent callers share one request. On failure the session is logged
// out and the error returned.
func (s *SessionService) RefreshAccessToken(ctx context.Context) (string, error) {
	ch := s.refreshGroup.DoChan(string(opRefresh), func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *SessionService) refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	gen := s.gen
	refreshToken := s.tokens.RefreshToken
	s.inflight++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	var resp *dto.AuthResponse
	err := errors.ErrNoRefreshToken
	if refreshToken != "" {
		resp, err = s.api.Refresh(ctx, refreshToken)
		if err == nil && resp.AccessToken == "" {
			err = errors.Wrap(errors.ErrMalformedResponse, "refresh response carried no access token")
		}
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return "", errors.ErrStaleResponse
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("token refresh failed, signing out", logger.Error(err))
		s.Logout(ctx)
		return "", err
	}
	defer s.mu.Unlock()

	if err := s.store.SaveAccess(ctx, resp.AccessToken); err != nil {
		return "", err
	}
	s.tokens.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		if err := s.store.SaveRefresh(ctx, resp.RefreshToken); err != nil {
			return "", err
		}
		s.tokens.RefreshToken = resp.RefreshToken
	}
	s.logger.Debug("access token refreshed")
	return resp.AccessToken, nil
}

// EnsureFreshToken returns an access token that is not about to expire,
// refreshing first when the current one expires within the leeway. Tokens
// without a readable exp claim are used as they are.
func (s *SessionService) EnsureFreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	access := s.tokens.AccessToken
	s.mu.Unlock()

	if access == "" {
		return "", errors.ErrNoAccessToken
	}
	if !jwt.ExpiresWithin(access, s.now(), s.leeway) {
		return access, nil
	}
	return s.RefreshAccessToken(ctx)
}

// Invalidate makes every in-flight operation's response stale. Callers use
// it when the consumer that started those operations goes away.
func (s *SessionService) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// ClearError forgets the last failure.
func (s *SessionService) ClearError() {
	s.mu.Lock()
	s.lastError = nil
	s.mu.Unlock()
}

// IsAuthenticated reports whether a user is known and an access token is held.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticatedLocked()
}

func (s *SessionService) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.HasRole(role)
}

func (s *SessionService) HasPermission(permission string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.HasPermission(permission)
}

func (s *SessionService) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.DisplayName()
}

// User returns a copy of the current user, or nil.
func (s *SessionService) User() *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

func (s *SessionService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

func (s *SessionService) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *SessionService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		User:          s.user.Clone(),
		Authenticated: s.authenticatedLocked(),
		Loading:       s.inflight > 0,
		LastError:     s.lastError,
	}
}

func (s *SessionService) authenticatedLocked() bool {
	return s.user != nil && s.tokens.HasAccess()
}

// begin registers an operation of kind and returns the generation it runs in.
func (s *SessionService) begin(kind opKind) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[kind] {
		return 0, errors.ErrOperationInFlight
	}
	s.running[kind] = true
	s.inflight++
	s.lastError = nil
	return s.gen, nil
}

func (s *SessionService) end(kind opKind) {
	s.mu.Lock()
	delete(s.running, kind)
	s.inflight--
	s.mu.Unlock()
}

// fail records err as the last error unless the session moved on meanwhile.
// A rejected bearer token ends the session.
func (s *SessionService) fail(ctx context.Context, gen uint64, kind opKind, err error) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	s.lastError = err
	if bearerOps[kind] && unauthorized(err) {
		s.user = nil
		s.purgeLocked(ctx)
		s.logger.Info("access token rejected, session cleared", logger.Operation(string(kind)))
	}
	s.logger.Debug("session operation failed",
		logger.Operation(string(kind)),
		logger.Error(err),
	)
	return failed(err)
}

func (s *SessionService) message(ctx context.Context, kind opKind, call func() (*dto.MessageResponse, error)) Result {
	gen, err := s.begin(kind)
	if err != nil {
		return failed(err)
	}
	defer s.end(kind)

	resp, err := call()
	if err != nil {
		return s.fail(ctx, gen, kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return failed(errors.ErrStaleResponse)
	}
	return succeeded(nil, resp.Message)
}

// signInLocked persists the tokens of resp and adopts its user. A response
// without a refresh token drops any refresh token left from before. When
// only the access token could be written the store and session are cleared.
func (s *SessionService) signInLocked(ctx context.Context, resp *dto.AuthResponse) error {
	if err := s.store.SaveAccess(ctx, resp.AccessToken); err != nil {
		return err
	}
	if err := s.store.SaveRefresh(ctx, resp.RefreshToken); err != nil {
		s.logger.Error("failed to persist refresh token", logger.Error(err))
		s.user = nil
		s.purgeLocked(ctx)
		return err
	}
	s.tokens = token.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	s.user = resp.User.Clone()
	return nil
}

// checkSignIn rejects a sign-in response that lacks the access token or
// the user it belongs to.
func checkSignIn(resp *dto.AuthResponse, op string) error {
	if resp.AccessToken == "" {
		return errors.Wrap(errors.ErrMalformedResponse, op+" response carried no access token")
	}
	if resp.User == nil {
		return errors.Wrap(errors.ErrMalformedResponse, op+" response carried no user")
	}
	return nil
}

// purgeLocked drops both tokens from memory and the store.
func (s *SessionService) purgeLocked(ctx context.Context) {
	s.tokens = token.Pair{}
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error("failed to clear persisted tokens", logger.Error(err))
	}
}

func unauthorized(err error) bool {
	var apiErr *errors.APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

func userID(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
