package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	apperrors "github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

func staticToken(tok string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) { return tok, nil })
}

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/", UserAgent: "test-agent"}, tokens, logger.NewNop())
}

func TestDo_SendsJSONAndBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		var body dto.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body.Email)

		_ = json.NewEncoder(w).Encode(dto.AuthResponse{AccessToken: "new"})
	}, staticToken("tok-1"))

	var out dto.AuthResponse
	require.NoError(t, c.Post(context.Background(), "/auth/login", dto.LoginRequest{Email: "a@b.com"}, &out))
	assert.Equal(t, "new", out.AccessToken)
}

func TestDo_OmitsAuthorizationWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}, staticToken(""))

	require.NoError(t, c.Get(context.Background(), "/auth/me", nil))
}

func TestDo_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Invalid email or password"}`, "Invalid email or password"},
		{"error_description field", http.StatusBadRequest, `{"error_description":"bad token"}`, "bad token"},
		{"error field", http.StatusNotFound, `{"error":"User not found"}`, "User not found"},
		{"empty json", http.StatusInternalServerError, `{}`, "HTTP error! status: 500"},
		{"not json", http.StatusBadGateway, `<html>oops</html>`, "HTTP error! status: 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			err := c.Get(context.Background(), "/x", nil)
			var apiErr *apperrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestDo_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}, nil)

	var out dto.UserResponse
	err := c.Get(context.Background(), "/auth/me", &out)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url}, nil, logger.NewNop())
	err := c.Get(context.Background(), "/health", nil)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestDo_TokenSourceError(t *testing.T) {
	boom := apperrors.New("store closed")
	c := New(Config{BaseURL: "http://127.0.0.1:1"}, TokenSourceFunc(func(context.Context) (string, error) {
		return "", boom
	}), logger.NewNop())

	err := c.Get(context.Background(), "/auth/me", nil)
	assert.ErrorIs(t, err, boom)
}

func TestUpload_UsesMultipartContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "avatar", r.FormValue("kind"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))

		_, _ = io.WriteString(w, `{"message":"uploaded"}`)
	}, staticToken("tok"))

	var out dto.MessageResponse
	err := c.Upload(context.Background(), "/uploads", map[string]string{"kind": "avatar"},
		&File{Field: "file", Name: "me.png", Content: strings.NewReader("PNGDATA")}, &out)
	require.NoError(t, err)
	assert.Equal(t, "uploaded", out.Message)
}

func TestAuthAPI_Refresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)

		var body dto.RefreshTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r-1", body.RefreshToken)

		_, _ = io.WriteString(w, `{"access_token":"a-2","refresh_token":"r-2"}`)
	}, nil)

	resp, err := NewAuthAPI(c).Refresh(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "a-2", resp.AccessToken)
	assert.Equal(t, "r-2", resp.RefreshToken)
}

func TestAuthAPI_MeDecodesRoles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		_, _ = io.WriteString(w, `{"user":{"id":"1","email":"a@b.com","roles":["admin"]}}`)
	}, staticToken("t"))

	resp, err := NewAuthAPI(c).Me(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.HasRole("admin"))
}

func TestAuthAPI_MeAcceptsNaiveTimestamps(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":"1","email":"a@b.com","created_at":"2024-05-01T10:20:30.123456","roles":["user"]}}`)
	}, staticToken("t"))

	resp, err := NewAuthAPI(c).Me(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp.User.CreatedAt)
	assert.Equal(t, 2024, resp.User.CreatedAt.Year())
}
