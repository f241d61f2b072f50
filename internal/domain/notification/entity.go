package notification

import (
	"fmt"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Default display durations. Errors stay up longer so they can be read.
const (
	DefaultDuration = 5 * time.Second
	ErrorDuration   = 7 * time.Second
)

// Persistent as a Duration keeps a notification until it is dismissed. A
// zero Duration means the kind default.
const Persistent time.Duration = -1

// Notification is a transient user-facing message.
type Notification struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"type"`
	Message   string        `json:"message"`
	Title     string        `json:"title,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// ParseKind maps a string to a Kind. Unknown and empty values are info.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSuccess, KindError, KindWarning:
		return Kind(s)
	default:
		return KindInfo
	}
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	}
	return false
}

// ExpiresAt returns when the notification is due for removal, and false for
// persistent notifications.
func (n Notification) ExpiresAt() (time.Time, bool) {
	if n.Duration <= 0 {
		return time.Time{}, false
	}
	return n.CreatedAt.Add(n.Duration), true
}

func (n Notification) String() string {
	if n.Title != "" {
		return fmt.Sprintf("[%s] %s: %s", n.Kind, n.Title, n.Message)
	}
	return fmt.Sprintf("[%s] %s", n.Kind, n.Message)
}
