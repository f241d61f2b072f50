package cli

import (
	"context"
	"io"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// ErrCommandFailed is returned after a failure has already been reported to
// the user.
var ErrCommandFailed = errors.New("command failed")

// HealthProber reports the API health.
type HealthProber interface {
	Health(ctx context.Context) (*dto.HealthResponse, error)
}

// App is everything a command needs. It is built once per invocation after
// flags are parsed.
type App struct {
	Session       *services.SessionService
	Notifications *services.NotificationService
	Health        HealthProber
	Renderer      *Renderer

	// Close releases the token store and other resources.
	Close func() error
}

// Builder constructs the App from the --config flag value.
type Builder func(configPath string) (*App, error)

type runner struct {
	build      Builder
	configPath string
	app        *App
	out        io.Writer
	errOut     io.Writer
}

// report turns a session result into a notification. It returns
// ErrCommandFailed for failed results so the process exits non-zero.
func (r *runner) report(res services.Result, success string, opts ...services.NotificationOption) error {
	if !res.OK {
		r.app.Notifications.Error(res.ErrorMessage(), opts...)
		return ErrCommandFailed
	}
	msg := res.Message
	if msg == "" {
		msg = success
	}
	r.app.Notifications.Success(msg)
	return nil
}

// flush renders the queue and empties it.
func (r *runner) flush() {
	if r.app == nil {
		return
	}
	_ = r.app.Renderer.Render(r.out, r.app.Notifications.List())
	r.app.Notifications.Clear()
}
