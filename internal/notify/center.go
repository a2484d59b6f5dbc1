package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"webmon/internal/clock"
	"webmon/internal/metrics"
)

// Options tunes the Center's display policy.
type Options struct {
	// MaxVisible caps how many notifications are on screen at once. When
	// exceeded the oldest one with a duration is dropped; persistent
	// notifications are never evicted. Zero means no cap.
	MaxVisible int
	// CollapseWindow makes an identical (severity, message) notification
	// replace the earlier one instead of stacking, if the earlier one was
	// posted less than CollapseWindow ago. Zero disables collapsing.
	CollapseWindow time.Duration
}

// DefaultOptions is the policy used by the dashboard: every notification
// stays until its own timer or a dismissal removes it.
func DefaultOptions() Options {
	return Options{}
}

type entry struct {
	n     Notification
	timer clock.Timer
}

// surface is the ordered set of live notifications. It is created on first
// use.
type surface struct {
	entries []*entry
}

func (s *surface) index(id Handle) int {
	for i, e := range s.entries {
		if e.n.ID == id {
			return i
		}
	}
	return -1
}

// Center is the notification queue. It is safe for concurrent use: expiry
// timers fire on their own goroutines.
type Center struct {
	clock   clock.Clock
	opts    Options
	log     *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	surface  *surface
	recent   *cache.Cache
	onChange func([]Notification)
}

// NewCenter builds a Center. clk may be nil for the wall clock.
func NewCenter(clk clock.Clock, opts Options, log *slog.Logger, m *metrics.Metrics) *Center {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Center{clock: clk, opts: opts, log: log, metrics: m}
	if opts.CollapseWindow > 0 {
		// No janitor goroutine; expired keys are ignored on lookup.
		c.recent = cache.New(opts.CollapseWindow, 0)
	}
	return c
}

// OnChange registers fn to be called with a snapshot after every change.
// fn runs without the Center's lock held.
func (c *Center) OnChange(fn func([]Notification)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Notify appends a notification. A positive duration schedules its removal;
// zero keeps it until Dismiss. Unknown severities fall back to info and
// negative durations to DefaultDuration. Notify never panics.
func (c *Center) Notify(message string, severity Severity, duration time.Duration) (h Handle) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("notification dropped", "panic", r, "message", message)
		}
	}()

	if !severity.Valid() {
		severity = SeverityInfo
	}
	if duration < 0 {
		duration = DefaultDuration
	}

	n := Notification{
		ID:        Handle(uuid.NewString()),
		Message:   message,
		Severity:  severity,
		Duration:  duration,
		CreatedAt: c.clock.Now(),
	}

	snapshot, fn := c.post(n)

	c.metrics.NotificationShown(string(severity))
	c.log.Debug("notification posted", "id", n.ID, "severity", severity, "duration", duration)
	c.emit(fn, snapshot)
	return n.ID
}

// post adds n to the surface and returns what the listener should see. The
// lock is released by defer so a panic here cannot leave it held.
func (c *Center) post(n Notification) ([]Notification, func([]Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		c.surface = &surface{}
	}
	e := &entry{n: n}
	if n.Duration > 0 {
		id := n.ID
		e.timer = c.clock.AfterFunc(n.Duration, func() { c.expire(id) })
	}
	c.collapseLocked(n)
	c.surface.entries = append(c.surface.entries, e)
	c.enforceCapLocked()
	return c.snapshotLocked(), c.onChange
}

func collapseKey(n Notification) string {
	return string(n.Severity) + "\x00" + n.Message
}

func (c *Center) collapseLocked(n Notification) {
	if c.recent == nil {
		return
	}
	key := collapseKey(n)
	if prev, ok := c.recent.Get(key); ok {
		if i := c.surface.index(prev.(Handle)); i >= 0 {
			c.removeAtLocked(i)
		}
	}
	c.recent.SetDefault(key, n.ID)
}

func (c *Center) enforceCapLocked() {
	if c.opts.MaxVisible <= 0 {
		return
	}
	for len(c.surface.entries) > c.opts.MaxVisible {
		i := c.oldestExpiringLocked()
		if i < 0 {
			return
		}
		c.removeAtLocked(i)
	}
}

// oldestExpiringLocked returns the index of the oldest notification that has
// a duration, or -1 when all are persistent.
func (c *Center) oldestExpiringLocked() int {
	for i, e := range c.surface.entries {
		if !e.n.Sticky() {
			return i
		}
	}
	return -1
}

func (c *Center) removeAtLocked(i int) {
	e := c.surface.entries[i]
	if e.timer != nil {
		e.timer.Stop()
	}
	c.surface.entries = append(c.surface.entries[:i], c.surface.entries[i+1:]...)
}

// expire is the timer callback. The notification may already be gone.
func (c *Center) expire(id Handle) {
	if !c.remove(id) {
		c.log.Debug("expiry after dismissal ignored", "id", id)
	}
}

// Dismiss removes the notification if it is still displayed.
func (c *Center) Dismiss(id Handle) bool {
	return c.remove(id)
}

func (c *Center) remove(id Handle) bool {
	c.mu.Lock()
	if c.surface == nil {
		c.mu.Unlock()
		return false
	}
	i := c.surface.index(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.removeAtLocked(i)
	snapshot, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.emit(fn, snapshot)
	return true
}

// DismissNewest removes the most recently posted notification.
func (c *Center) DismissNewest() bool {
	c.mu.Lock()
	if c.surface == nil || len(c.surface.entries) == 0 {
		c.mu.Unlock()
		return false
	}
	id := c.surface.entries[len(c.surface.entries)-1].n.ID
	c.mu.Unlock()
	return c.remove(id)
}

// Clear removes every notification.
func (c *Center) Clear() {
	c.mu.Lock()
	if c.surface == nil || len(c.surface.entries) == 0 {
		c.mu.Unlock()
		return
	}
	for len(c.surface.entries) > 0 {
		c.removeAtLocked(0)
	}
	snapshot, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.emit(fn, snapshot)
}

// Snapshot returns the live notifications, oldest first.
func (c *Center) Snapshot() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Has reports whether id is still displayed.
func (c *Center) Has(id Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil && c.surface.index(id) >= 0
}

// SurfaceCreated reports whether anything has ever been posted.
func (c *Center) SurfaceCreated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

func (c *Center) snapshotLocked() []Notification {
	if c.surface == nil {
		return nil
	}
	out := make([]Notification, len(c.surface.entries))
	for i, e := range c.surface.entries {
		out[i] = e.n
	}
	return out
}

func (c *Center) emit(fn func([]Notification), snapshot []Notification) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("notification listener panicked", "panic", r)
		}
	}()
	fn(snapshot)
}
