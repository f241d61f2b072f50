package services

import (
	"github.com/dipanjanswapna/ongonbd/internal/domain/user"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// Result is the outcome of a session operation. Failures are values: OK is
// false and Err says why. Session operations never return bare errors.
type Result struct {
	OK      bool
	User    *user.User
	Message string
	Err     error
}

// ErrorMessage is the text to show for a failed result.
func (r Result) ErrorMessage() string {
	return errors.Message(r.Err)
}

func succeeded(u *user.User, message string) Result {
	return Result{OK: true, User: u, Message: message}
}

func failed(err error) Result {
	return Result{Err: err}
}
