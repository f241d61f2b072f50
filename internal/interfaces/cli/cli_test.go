package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application"
	"github.com/dipanjanswapna/ongonbd/internal/domain/notification"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/persistence"
	apphttp "github.com/dipanjanswapna/ongonbd/internal/interfaces/http"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// newPortal starts a dev API and returns a builder whose apps share one
// SQLite token store, as consecutive CLI invocations would.
func newPortal(t *testing.T) Builder {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.Argon2Memory = 1024
	cfg.Auth.Argon2Iterations = 1
	cfg.Auth.Argon2Parallelism = 1
	cfg.Security.RateLimitEnabled = false

	log := logger.NewNop()
	deps := application.NewDependencies(cfg, log)
	svcs := application.NewServices(persistence.NewRepositories(nil), deps, cfg, log)
	router := apphttp.NewRouter(cfg, &apphttp.RouterDeps{Accounts: svcs.Accounts, Logger: log})
	srv := httptest.NewServer(router.Engine())
	t.Cleanup(func() {
		srv.Close()
		router.Close()
	})

	cfg.API.BaseURL = srv.URL + "/api"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "session.db")

	return func(string) (*App, error) {
		return NewApp(cfg, log)
	}
}

func run(t *testing.T, build Builder, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), build, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

var registerArgs = []string{
	"register",
	"--first-name", "Rahim",
	"--last-name", "Uddin",
	"--email", "rahim@example.com",
	"--phone", "01712345678",
	"--password", "Secret123",
	"--confirm-password", "Secret123",
	"--accept-terms",
}

func TestRun_RegisterPrintsEachInvalidField(t *testing.T) {
	build := newPortal(t)

	code, out, errOut := run(t, build, "register", "--email", "not-an-email", "--password", "short")
	assert.Equal(t, 1, code)
	assert.NotContains(t, out, "First name is required")
	assert.Contains(t, errOut, "First name:")
	assert.Contains(t, errOut, "First name is required")
	assert.Contains(t, errOut, "Last name is required")
	assert.Contains(t, errOut, "Please enter a valid email address")
	assert.Contains(t, errOut, "Password must be at least 8 characters")
	assert.Contains(t, errOut, "You must agree to the Terms")
	assert.NotContains(t, errOut, "Error:")
}

func TestRun_SessionSurvivesBetweenInvocations(t *testing.T) {
	build := newPortal(t)

	code, out, errOut := run(t, build, registerArgs...)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "User registered successfully")

	code, out, _ = run(t, build, "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Rahim Uddin")
	assert.Contains(t, out, "rahim@example.com")
	assert.Contains(t, out, "view")

	code, out, _ = run(t, build, "profile", "update", "--first-name", "Karim")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Profile updated successfully")

	code, out, _ = run(t, build, "refresh")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Access token refreshed")

	code, out, _ = run(t, build, "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Signed out Karim Uddin")

	code, out, _ = run(t, build, "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Not signed in")

	code, out, _ = run(t, build, "login", "--email", "rahim@example.com", "--password", "Wrong1234")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Login failed")
	assert.Contains(t, out, "Invalid email or password")

	code, out, _ = run(t, build, "login", "--email", "rahim@example.com", "--password", "Secret123")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Login successful")
}

func TestRun_PasswordChangeChecksLocally(t *testing.T) {
	build := newPortal(t)
	code, _, _ := run(t, build, registerArgs...)
	require.Equal(t, 0, code)

	code, out, errOut := run(t, build, "password", "change", "--current", "Secret123", "--new", "NewSecret1", "--confirm", "NewSecret2")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Confirm password:")
	assert.Contains(t, errOut, "Passwords do not match")
	assert.NotContains(t, out, "Passwords do not match")

	code, _, errOut = run(t, build, "login", "--email", "nope", "--password", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Email:")

	code, out, _ = run(t, build, "password", "change", "--current", "Secret123", "--new", "NewSecret1", "--confirm", "NewSecret1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Password changed successfully")
}

func TestRun_HealthAndErrors(t *testing.T) {
	build := newPortal(t)

	code, out, _ := run(t, build, "health")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "healthy")

	code, _, errOut := run(t, build, "no-such-command")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command")

	code, _, errOut = run(t, build, "login")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "required flag")

	code, out, _ = run(t, build, "verify-email", "bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Invalid or expired token")
}

func TestRenderer_ShowsTitleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(10)

	require.NoError(t, r.Render(&buf, nil))
	assert.Empty(t, buf.String())

	require.NoError(t, r.Render(&buf, []notification.Notification{
		{Kind: notification.KindError, Title: "Login failed", Message: "Bad password"},
		{Kind: notification.KindSuccess, Message: "Saved"},
	}))
	assert.Contains(t, buf.String(), "Login failed")
	assert.Contains(t, buf.String(), "Bad password")
	assert.Contains(t, buf.String(), "Saved")
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "Confirm password", fieldLabel("confirm_password"))
	assert.Equal(t, "", fieldLabel(""))
}

func TestOpenTokenStore_Drivers(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	for _, driver := range []string{"memory", "sqlite", "redis"} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Driver = driver
			cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "tokens.db")
			cfg.Redis.Host = mr.Host()
			cfg.Redis.Port = port

			store, err := OpenTokenStore(cfg, logger.NewNop())
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.SaveAccess(ctx, "a-"+driver))
			pair, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "a-"+driver, pair.AccessToken)
		})
	}

	cfg := config.Default()
	cfg.Storage.Driver = "floppy"
	_, err = OpenTokenStore(cfg, logger.NewNop())
	assert.Error(t, err)
}
