package httpclient

import (
	"context"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
)

// AuthAPI is the typed client for the /auth endpoints.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI wraps a REST client.
func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

func (a *AuthAPI) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := a.client.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := a.client.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the server to end the session. refreshToken may be empty.
func (a *AuthAPI) Logout(ctx context.Context, refreshToken string) error {
	return a.client.Post(ctx, "/auth/logout", dto.LogoutRequest{RefreshToken: refreshToken}, nil)
}

func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := a.client.Post(ctx, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the identity behind the current access token.
func (a *AuthAPI) Me(ctx context.Context) (*dto.UserResponse, error) {
	var resp dto.UserResponse
	if err := a.client.Get(ctx, "/auth/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	var resp dto.UserResponse
	if err := a.client.Put(ctx, "/auth/profile", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (*dto.MessageResponse, error) {
	var resp dto.MessageResponse
	if err := a.client.Put(ctx, "/auth/change-password", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*dto.MessageResponse, error) {
	return a.postMessage(ctx, "/auth/forgot-password", dto.EmailRequest{Email: email})
}

func (a *AuthAPI) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	return a.postMessage(ctx, "/auth/reset-password", req)
}

// VerifyEmail confirms an address. The response may carry the updated user.
func (a *AuthAPI) VerifyEmail(ctx context.Context, token string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := a.client.Post(ctx, "/auth/verify-email", dto.VerifyEmailRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) ResendVerification(ctx context.Context, email string) (*dto.MessageResponse, error) {
	return a.postMessage(ctx, "/auth/resend-verification", dto.EmailRequest{Email: email})
}

// Health probes the API root.
func (a *AuthAPI) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var resp dto.HealthResponse
	if err := a.client.Get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) postMessage(ctx context.Context, path string, body any) (*dto.MessageResponse, error) {
	var resp dto.MessageResponse
	if err := a.client.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
