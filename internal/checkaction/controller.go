// Package checkaction runs on-demand website checks triggered from a control
// such as a button or a table row.
//
// Each gesture becomes an Invocation that moves Idle -> InFlight ->
// Succeeded or Failed -> Idle. Begin disables the control synchronously, so
// a second gesture on the same control is rejected until Complete restores
// it.
package checkaction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"webmon/internal/api"
	"webmon/internal/clock"
	"webmon/internal/errors"
	"webmon/internal/locale"
	"webmon/internal/metrics"
	"webmon/internal/notify"
)

// DefaultReloadDelay separates the success notification from the detail
// view reload.
const DefaultReloadDelay = 1500 * time.Millisecond

// ErrInFlight is returned by Begin when the control is disabled because a
// check it started has not completed.
var ErrInFlight = errors.Newf("check already in flight").
	Component("checkaction").
	Category(errors.CategoryState).
	Build()

// State is the lifecycle state of an Invocation.
type State int

const (
	Idle State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Control is the UI element that triggered a check.
type Control interface {
	Label() string
	SetLabel(label string)
	Enabled() bool
	SetEnabled(enabled bool)
}

// Checker performs the check request. *api.Client implements it.
type Checker interface {
	Check(ctx context.Context, websiteID int64) (api.CheckResult, error)
}

// Invocation is one check cycle on one control. It is created by Begin and
// finished by Complete.
type Invocation struct {
	TargetID      int64
	Control       Control
	OriginalLabel string
	State         State
	// Outcome keeps the terminal state after Complete returns the
	// invocation to Idle.
	Outcome State
	Result  api.CheckResult
	Err     error
	// Message is the text of the notification emitted on completion.
	Message string
}

// Config wires a Controller.
type Config struct {
	Checker Checker
	Sink    notify.Sink
	Locale  *locale.Locale
	Clock   clock.Clock
	// OnDetailView reports whether a target-detail view is current.
	OnDetailView func() bool
	// Reload re-fetches the current view.
	Reload func()
	// ReloadDelay defaults to DefaultReloadDelay.
	ReloadDelay time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Controller drives check invocations.
type Controller struct {
	cfg Config
	log *slog.Logger
	mu  sync.Mutex
}

// New validates cfg and returns a Controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Checker == nil || cfg.Sink == nil {
		return nil, errors.Newf("checker and notification sink are required").
			Component("checkaction").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Locale == nil {
		cfg.Locale = locale.MustNew(locale.Default)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = DefaultReloadDelay
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{cfg: cfg, log: log}, nil
}

// Begin captures the control's label, shows the busy label and disables
// the control. It fails with ErrInFlight when the control is disabled.
func (c *Controller) Begin(ctrl Control, targetID int64) (*Invocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !ctrl.Enabled() {
		c.log.Debug("check gesture ignored, control busy", "website_id", targetID)
		return nil, ErrInFlight
	}
	inv := &Invocation{
		TargetID:      targetID,
		Control:       ctrl,
		OriginalLabel: ctrl.Label(),
		State:         InFlight,
	}
	ctrl.SetLabel(c.cfg.Locale.T(locale.Checking))
	ctrl.SetEnabled(false)
	return inv, nil
}

// Execute sends the check request and records the terminal state. It does
// not touch the control and may run on any goroutine.
func (c *Controller) Execute(ctx context.Context, inv *Invocation) {
	res, err := c.cfg.Checker.Check(ctx, inv.TargetID)
	inv.Result, inv.Err = res, err
	if _, ok := res.(api.CheckSucceeded); ok && err == nil {
		inv.State = Succeeded
	} else {
		inv.State = Failed
	}
}

// Complete emits the outcome notification, schedules the detail view
// reload after a success, and restores the control. Restoration happens
// even if notifying panics.
func (c *Controller) Complete(inv *Invocation) {
	defer c.restore(inv)

	c.cfg.Metrics.CheckCompleted(inv.State.String())
	switch inv.State {
	case Succeeded:
		inv.Message = c.cfg.Locale.T(locale.CheckDone)
		c.notify(inv.Message, notify.SeveritySuccess)
		if c.cfg.Reload != nil && c.cfg.OnDetailView != nil && c.cfg.OnDetailView() {
			c.cfg.Clock.AfterFunc(c.cfg.ReloadDelay, c.cfg.Reload)
		}
	default:
		inv.Message = c.failureText(inv)
		c.log.Info("check failed", "website_id", inv.TargetID, "error", inv.Err, "result", inv.Result)
		c.notify(inv.Message, notify.SeverityDanger)
	}
}

// Invoke runs a whole cycle: Begin, Execute, Complete.
func (c *Controller) Invoke(ctx context.Context, ctrl Control, targetID int64) (*Invocation, error) {
	inv, err := c.Begin(ctrl, targetID)
	if err != nil {
		return nil, err
	}
	c.Execute(ctx, inv)
	c.Complete(inv)
	return inv, nil
}

func (c *Controller) failureText(inv *Invocation) string {
	if failed, ok := inv.Result.(api.CheckFailed); ok && failed.Error != "" {
		return c.cfg.Locale.T(locale.CheckFailedAt, failed.Error)
	}
	return c.cfg.Locale.T(locale.CheckFailedAt, c.cfg.Locale.T(locale.CheckFailed))
}

func (c *Controller) notify(message string, severity notify.Severity) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("check notification failed", "panic", r)
		}
	}()
	c.cfg.Sink.Notify(message, severity, notify.DefaultDuration)
}

func (c *Controller) restore(inv *Invocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv.Control.SetLabel(inv.OriginalLabel)
	inv.Control.SetEnabled(true)
	inv.Outcome = inv.State
	inv.State = Idle
}

// Button is a minimal Control for callers without a widget of their own.
type Button struct {
	mu       sync.Mutex
	label    string
	disabled bool
}

// NewButton returns an enabled Button showing label.
func NewButton(label string) *Button {
	return &Button{label: label}
}

func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

func (b *Button) SetLabel(label string) {
	b.mu.Lock()
	b.label = label
	b.mu.Unlock()
}

func (b *Button) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.disabled
}

func (b *Button) SetEnabled(enabled bool) {
	b.mu.Lock()
	b.disabled = !enabled
	b.mu.Unlock()
}
