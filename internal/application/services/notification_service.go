package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dipanjanswapna/ongonbd/internal/domain/notification"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules notification expiry. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// NotificationOption adjusts a notification created by the kind helpers.
type NotificationOption func(*notification.Notification)

// WithTitle sets a heading.
func WithTitle(title string) NotificationOption {
	return func(n *notification.Notification) { n.Title = title }
}

// WithDuration overrides the display duration. Zero keeps the kind default and
// notification.Persistent keeps the notification until it is removed.
func WithDuration(d time.Duration) NotificationOption {
	return func(n *notification.Notification) { n.Duration = d }
}

type entry struct {
	n     notification.Notification
	timer Timer
}

// NotificationService is an ordered queue of transient messages. Entries
// with a positive duration remove themselves when it elapses.
type NotificationService struct {
	clock           Clock
	logger          logger.Logger
	defaultDuration time.Duration
	errorDuration   time.Duration

	mu          sync.Mutex
	entries     []*entry
	subscribers map[chan []notification.Notification]struct{}
	closed      bool
}

// NewNotificationService creates a queue. Zero durations fall back to the
// package defaults.
func NewNotificationService(clock Clock, defaultDuration, errorDuration time.Duration, log logger.Logger) *NotificationService {
	if clock == nil {
		clock = RealClock
	}
	if log == nil {
		log = logger.Default()
	}
	if defaultDuration <= 0 {
		defaultDuration = notification.DefaultDuration
	}
	if errorDuration <= 0 {
		errorDuration = notification.ErrorDuration
	}
	return &NotificationService{
		clock:           clock,
		logger:          log.With(logger.Component("notifications")),
		defaultDuration: defaultDuration,
		errorDuration:   errorDuration,
		subscribers:     make(map[chan []notification.Notification]struct{}),
	}
}

// Add enqueues n and returns its freshly assigned ID. Any ID on n is
// replaced. An unknown kind becomes info, a zero duration becomes the kind
// default and a negative one keeps the notification until removed.
func (s *NotificationService) Add(n notification.Notification) string {
	n.ID = uuid.NewString()
	if !n.Kind.Valid() {
		n.Kind = notification.KindInfo
	}
	switch {
	case n.Duration == 0:
		n.Duration = s.durationFor(n.Kind)
	case n.Duration < 0:
		n.Duration = notification.Persistent
	}
	n.CreatedAt = s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return n.ID
	}

	e := &entry{n: n}
	if _, expires := n.ExpiresAt(); expires {
		e.timer = s.clock.AfterFunc(n.Duration, func() { s.expire(e) })
	}
	s.entries = append(s.entries, e)

	s.logger.Debug("notification added",
		logger.NotificationID(n.ID),
		logger.String("kind", string(n.Kind)),
		logger.Duration("duration", n.Duration),
	)
	s.publishLocked()
	return n.ID
}

func (s *NotificationService) Success(message string, opts ...NotificationOption) string {
	return s.add(notification.KindSuccess, message, opts)
}

func (s *NotificationService) Error(message string, opts ...NotificationOption) string {
	return s.add(notification.KindError, message, opts)
}

func (s *NotificationService) Warning(message string, opts ...NotificationOption) string {
	return s.add(notification.KindWarning, message, opts)
}

func (s *NotificationService) Info(message string, opts ...NotificationOption) string {
	return s.add(notification.KindInfo, message, opts)
}

func (s *NotificationService) add(kind notification.Kind, message string, opts []NotificationOption) string {
	n := notification.Notification{Message: message, Kind: kind}
	for _, opt := range opts {
		opt(&n)
	}
	n.Kind = kind
	return s.Add(n)
}

func (s *NotificationService) durationFor(kind notification.Kind) time.Duration {
	if kind == notification.KindError {
		return s.errorDuration
	}
	return s.defaultDuration
}

// Remove dismisses a notification. Unknown IDs are ignored.
func (s *NotificationService) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.n.ID == id {
			s.removeAtLocked(i)
			s.publishLocked()
			return
		}
	}
}

// Clear dismisses everything.
func (s *NotificationService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return
	}
	for _, e := range s.entries {
		stopTimer(e)
	}
	s.entries = nil
	s.publishLocked()
}

// List returns the queued notifications oldest first.
func (s *NotificationService) List() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *NotificationService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Subscribe returns a channel that receives the queue after every change.
// A slow reader only sees the latest state. cancel unsubscribes and closes
// the channel.
func (s *NotificationService) Subscribe() (updates <-chan []notification.Notification, cancel func()) {
	ch := make(chan []notification.Notification, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Close stops every pending timer and closes all subscriptions. Later
// additions are dropped.
func (s *NotificationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, e := range s.entries {
		stopTimer(e)
	}
	s.entries = nil
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// expire runs on the timer goroutine. The entry may already be gone.
func (s *NotificationService) expire(target *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e == target {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.logger.Debug("notification expired", logger.NotificationID(e.n.ID))
			s.publishLocked()
			return
		}
	}
}

func (s *NotificationService) removeAtLocked(i int) {
	stopTimer(s.entries[i])
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

func (s *NotificationService) snapshotLocked() []notification.Notification {
	out := make([]notification.Notification, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.n
	}
	return out
}

func (s *NotificationService) publishLocked() {
	for ch := range s.subscribers {
		// drop the unread state so the newest one fits
		select {
		case <-ch:
		default:
		}
		ch <- s.snapshotLocked()
	}
}

func stopTimer(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
}
