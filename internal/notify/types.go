// Package notify implements the dashboard's transient notification queue.
//
// Every component reports to the user through a Sink. The Center is the
// production Sink: it keeps notifications in insertion order and removes
// each one when its own timer fires or when the user dismisses it.
package notify

import (
	"strconv"
	"sync"
	"time"
)

// Severity is the visual urgency of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityDanger:
		return true
	}
	return false
}

// DefaultDuration is how long a notification stays up when the caller does
// not choose.
const DefaultDuration = 5 * time.Second

// Persistent keeps a notification until it is dismissed.
const Persistent time.Duration = 0

// Handle identifies one notification for dismissal.
type Handle string

// Notification is one banner on the notification surface.
type Notification struct {
	ID        Handle
	Message   string
	Severity  Severity
	Duration  time.Duration
	CreatedAt time.Time
}

// Sticky reports whether the notification waits for manual dismissal.
func (n Notification) Sticky() bool {
	return n.Duration == Persistent
}

// Sink accepts notifications.
type Sink interface {
	Notify(message string, severity Severity, duration time.Duration) Handle
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(message string, severity Severity, duration time.Duration) Handle

func (f SinkFunc) Notify(message string, severity Severity, duration time.Duration) Handle {
	return f(message, severity, duration)
}

// Info posts an info notification with the default duration.
func Info(s Sink, message string) Handle {
	return s.Notify(message, SeverityInfo, DefaultDuration)
}

// Recorder is a Sink that only remembers what it was given.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Notify(message string, severity Severity, duration time.Duration) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := Handle(strconv.Itoa(len(r.entries) + 1))
	r.entries = append(r.entries, Notification{ID: h, Message: message, Severity: severity, Duration: duration})
	return h
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent entry, or the zero Notification.
func (r *Recorder) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Notification{}
	}
	return r.entries[len(r.entries)-1]
}
