package services

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dipanjanswapna/ongonbd/internal/domain/notification"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// fireAll runs every timer regardless of state, as a late timer would.
func (c *manualClock) fireAll() {
	c.mu.Lock()
	all := append([]*manualTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range all {
		t.fn()
	}
}

func newQueue(clock Clock) *NotificationService {
	return NewNotificationService(clock, 0, 0, logger.NewNop())
}

func messages(list []notification.Notification) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.Message
	}
	return out
}

func TestNotification_Defaults(t *testing.T) {
	q := newQueue(newManualClock())

	q.Info("info")
	q.Success("ok")
	q.Warning("careful")
	q.Error("failed")
	id := q.Add(notification.Notification{Message: "raw", Kind: "bogus"})

	list := q.List()
	require.Len(t, list, 5)
	assert.Equal(t, notification.KindInfo, list[0].Kind)
	assert.Equal(t, notification.DefaultDuration, list[0].Duration)
	assert.Equal(t, notification.KindSuccess, list[1].Kind)
	assert.Equal(t, notification.KindWarning, list[2].Kind)
	assert.Equal(t, notification.KindError, list[3].Kind)
	assert.Equal(t, notification.ErrorDuration, list[3].Duration)

	assert.Equal(t, id, list[4].ID)
	assert.Equal(t, notification.KindInfo, list[4].Kind)
	assert.Equal(t, notification.DefaultDuration, list[4].Duration)

	seen := map[string]bool{}
	for _, n := range list {
		assert.NotEmpty(t, n.ID)
		assert.False(t, seen[n.ID], "ids are unique")
		seen[n.ID] = true
	}
}

func TestNotification_Options(t *testing.T) {
	q := newQueue(newManualClock())

	q.Error("boom", WithTitle("Login failed"), WithDuration(2*time.Second))
	q.Info("sticky", WithDuration(notification.Persistent))

	list := q.List()
	assert.Equal(t, "Login failed", list[0].Title)
	assert.Equal(t, 2*time.Second, list[0].Duration)
	assert.Equal(t, notification.Persistent, list[1].Duration)
}

func TestNotification_AddUnsetDurationUsesKindDefault(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	q.Add(notification.Notification{Kind: notification.KindError, Message: "boom"})
	q.Add(notification.Notification{Kind: notification.KindSuccess, Message: "done"})
	q.Add(notification.Notification{Message: "kept", Duration: notification.Persistent})

	list := q.List()
	assert.Equal(t, notification.ErrorDuration, list[0].Duration)
	assert.Equal(t, notification.DefaultDuration, list[1].Duration)
	assert.Equal(t, notification.Persistent, list[2].Duration)

	clock.Advance(notification.ErrorDuration)
	assert.Equal(t, []string{"kept"}, messages(q.List()))
}

func TestNotification_AddAssignsFreshIDs(t *testing.T) {
	q := newQueue(newManualClock())

	first := q.Add(notification.Notification{ID: "x", Message: "a"})
	second := q.Add(notification.Notification{ID: "x", Message: "b"})
	assert.NotEqual(t, "x", first)
	assert.NotEqual(t, first, second)

	q.Remove(first)
	q.Remove(second)
	assert.Equal(t, 0, q.Len())
}

func TestNotification_Expiry(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	q.Info("short", WithDuration(time.Second))
	q.Error("error")
	q.Success("default")
	q.Warning("sticky", WithDuration(notification.Persistent))

	clock.Advance(time.Second)
	assert.Equal(t, []string{"error", "default", "sticky"}, messages(q.List()))

	clock.Advance(4 * time.Second)
	assert.Equal(t, []string{"error", "sticky"}, messages(q.List()))

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"sticky"}, messages(q.List()))

	clock.Advance(time.Hour)
	assert.Equal(t, 1, q.Len())
}

func TestNotification_RemoveIsIdempotentAndKeepsOrder(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	q.Info("a")
	b := q.Info("b")
	q.Info("c")

	q.Remove(b)
	q.Remove(b)
	q.Remove("unknown")
	assert.Equal(t, []string{"a", "c"}, messages(q.List()))

	// b's timer firing late must not disturb the others
	clock.fireAll()
	assert.Equal(t, 0, q.Len())
}

func TestNotification_LateTimerAfterRemoveIsNoop(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	id := q.Info("gone")
	q.Remove(id)
	keep := q.Info("keep", WithDuration(notification.Persistent))

	clock.fireAll()
	require.Equal(t, 1, q.Len())
	assert.Equal(t, keep, q.List()[0].ID)
}

func TestNotification_ClearStopsTimers(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	q.Info("a")
	q.Error("b")
	q.Clear()
	assert.Equal(t, 0, q.Len())

	for _, tm := range clock.timers {
		assert.True(t, tm.stopped)
	}
}

func TestNotification_Subscribe(t *testing.T) {
	clock := newManualClock()
	q := newQueue(clock)

	updates, cancel := q.Subscribe()
	assert.Empty(t, <-updates)

	q.Info("first")
	q.Info("second")

	// only the latest state is kept for a slow reader
	latest := <-updates
	assert.Equal(t, []string{"first", "second"}, messages(latest))

	clock.Advance(notification.DefaultDuration)
	assert.Empty(t, <-updates)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)
}

func TestNotification_Close(t *testing.T) {
	q := newQueue(newManualClock())
	updates, _ := q.Subscribe()
	<-updates

	q.Info("a")
	q.Close()
	q.Close()

	assert.Equal(t, 0, q.Len())
	q.Info("after close")
	assert.Equal(t, 0, q.Len())

	for range updates {
	}
}

func TestNotification_RealClockLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewNotificationService(RealClock, 20*time.Millisecond, 0, logger.NewNop())
	q.Info("soon")
	q.Info("never", WithDuration(time.Hour))

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
	q.Close()
}
