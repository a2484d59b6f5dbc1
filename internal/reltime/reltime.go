// Package reltime renders "time since" labels and refreshes them when the
// dashboard regains focus.
package reltime

import (
	"sync"
	"time"

	"webmon/internal/locale"
)

// FormatRelativeTime describes how long ago t was, relative to now.
//
// Minutes, hours and days are each floored from the total elapsed time, so
// 26h reads "1 days ago" and 3h59m reads "3 hours ago". Anything 30 days or
// older is shown as a localized date. Timestamps in the future read as "just
// now".
func FormatRelativeTime(loc *locale.Locale, t, now time.Time) string {
	elapsed := now.Sub(t)
	mins := int64(elapsed / time.Minute)
	hours := int64(elapsed / time.Hour)
	days := int64(elapsed / (24 * time.Hour))

	switch {
	case mins < 1:
		return loc.T(locale.JustNow)
	case mins < 60:
		return loc.T(locale.MinutesAgo, mins)
	case hours < 24:
		return loc.T(locale.HoursAgo, hours)
	case days < 30:
		return loc.T(locale.DaysAgo, days)
	default:
		return loc.Date(t.Local())
	}
}

// Label is anything showing a recorded timestamp as relative text.
type Label interface {
	Timestamp() time.Time
	SetText(string)
}

// Refresher recomputes every registered label when the view becomes visible
// again. It does nothing while hidden, and it never runs on a timer.
type Refresher struct {
	loc *locale.Locale
	now func() time.Time

	mu      sync.Mutex
	labels  []Label
	visible bool
}

// NewRefresher returns a Refresher that starts out visible.
func NewRefresher(loc *locale.Locale, now func() time.Time) *Refresher {
	if now == nil {
		now = time.Now
	}
	return &Refresher{loc: loc, now: now, visible: true}
}

// Track replaces the set of labels to refresh and renders them once.
func (r *Refresher) Track(labels ...Label) {
	r.mu.Lock()
	r.labels = append(r.labels[:0], labels...)
	r.mu.Unlock()
	r.Refresh()
}

// Refresh recomputes every tracked label now.
func (r *Refresher) Refresh() {
	r.mu.Lock()
	labels := make([]Label, len(r.labels))
	copy(labels, r.labels)
	r.mu.Unlock()

	now := r.now()
	for _, l := range labels {
		if ts := l.Timestamp(); !ts.IsZero() {
			l.SetText(FormatRelativeTime(r.loc, ts, now))
		}
	}
}

// VisibilityChanged records a visibility transition. Becoming visible after
// being hidden triggers a refresh; it returns whether one happened.
func (r *Refresher) VisibilityChanged(visible bool) bool {
	r.mu.Lock()
	wasHidden := !r.visible
	r.visible = visible
	r.mu.Unlock()

	if visible && wasHidden {
		r.Refresh()
		return true
	}
	return false
}

// Watch consumes visibility events until the channel closes.
func (r *Refresher) Watch(events <-chan bool) {
	for v := range events {
		r.VisibilityChanged(v)
	}
}

// Stamp is a simple Label backed by a string.
type Stamp struct {
	At   time.Time
	Text string
}

func (s *Stamp) Timestamp() time.Time { return s.At }
func (s *Stamp) SetText(text string)  { s.Text = text }
