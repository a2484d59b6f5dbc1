// Package poller refreshes the monitor's status at a fixed cadence.
//
// Polling only runs while the landing view is current. Failed polls are
// logged and never reach the user; the next tick simply tries again.
package poller

import (
	"context"
	"log/slog"
	"time"

	"webmon/internal/api"
	"webmon/internal/errors"
	"webmon/internal/metrics"
)

// DefaultInterval is the status refresh period.
const DefaultInterval = 5 * time.Minute

// StatusSource fetches the status report. *api.Client implements it.
type StatusSource interface {
	Status(ctx context.Context) (*api.StatusReport, error)
}

// Observer receives every successfully fetched report.
type Observer interface {
	StatusObserved(report *api.StatusReport)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(report *api.StatusReport)

func (f ObserverFunc) StatusObserved(report *api.StatusReport) { f(report) }

// LogObserver logs each report at info level.
func LogObserver(log *slog.Logger) Observer {
	return ObserverFunc(func(report *api.StatusReport) {
		total, _ := report.TotalWebsites()
		active, _ := report.ActiveWebsites()
		changes, _ := report.RecentChanges()
		log.Info("status",
			"state", report.State(),
			"total_websites", total,
			"active_websites", active,
			"recent_changes", changes)
	})
}

// Config controls a Poller.
type Config struct {
	// Interval defaults to DefaultInterval.
	Interval time.Duration
	// OnLandingView reports whether the landing view is current. Nil means
	// always.
	OnLandingView func() bool
}

// Result is the outcome of one poll.
type Result struct {
	Report *api.StatusReport
	Err    error
	At     time.Time
}

// Poller issues status requests.
type Poller struct {
	cfg      Config
	src      StatusSource
	observer Observer
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New validates cfg and builds a Poller. observer may be nil.
func New(cfg Config, src StatusSource, observer Observer, log *slog.Logger, m *metrics.Metrics) (*Poller, error) {
	if src == nil {
		return nil, errors.Newf("status source is required").
			Component("poller").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Interval < 0 {
		return nil, errors.Newf("invalid poll interval %s", cfg.Interval).
			Component("poller").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{cfg: cfg, src: src, observer: observer, log: log, metrics: m}, nil
}

// Interval returns the configured period.
func (p *Poller) Interval() time.Duration {
	return p.cfg.Interval
}

// Active reports whether polling applies to the current view.
func (p *Poller) Active() bool {
	return p.cfg.OnLandingView == nil || p.cfg.OnLandingView()
}

// PollOnce performs one status request. Errors are logged and returned in
// the Result; they are never surfaced as notifications.
func (p *Poller) PollOnce(ctx context.Context) Result {
	report, err := p.src.Status(ctx)
	res := Result{Report: report, Err: err, At: time.Now()}
	p.metrics.PollCompleted(err == nil)
	if err != nil {
		p.log.Warn("status poll failed", "error", err, "category", errors.CategoryOf(err))
		return res
	}
	p.observe(report)
	return res
}

func (p *Poller) observe(report *api.StatusReport) {
	if p.observer == nil {
		p.log.Debug("status", "body", report.String())
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("status observer panicked", "panic", r)
		}
	}()
	p.observer.StatusObserved(report)
}

// Run polls on every tick until ctx is cancelled. It returns immediately
// when the landing view is not current. No overlap. No retries beyond the
// next tick.
func (p *Poller) Run(ctx context.Context) {
	if !p.Active() {
		p.log.Debug("not on the landing view, polling disabled")
		return
	}
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}
