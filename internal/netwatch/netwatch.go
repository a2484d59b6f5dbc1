// Package netwatch turns connectivity transitions into notifications.
package netwatch

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"time"

	"webmon/internal/errors"
	"webmon/internal/locale"
	"webmon/internal/metrics"
	"webmon/internal/notify"
)

// Event is a connectivity transition.
type Event int

const (
	Offline Event = iota
	Online
)

func (e Event) String() string {
	if e == Online {
		return "online"
	}
	return "offline"
}

// OnlineDuration is how long the "connection restored" notification stays.
const OnlineDuration = 3000 * time.Millisecond

// Reporter notifies the user about every transition it is given. It does
// not suppress or replace earlier notifications.
type Reporter struct {
	sink    notify.Sink
	loc     *locale.Locale
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewReporter returns a Reporter posting to sink.
func NewReporter(sink notify.Sink, loc *locale.Locale, log *slog.Logger, m *metrics.Metrics) *Reporter {
	if loc == nil {
		loc = locale.MustNew(locale.Default)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{sink: sink, loc: loc, log: log, metrics: m}
}

// Handle reports one transition.
func (r *Reporter) Handle(e Event) notify.Handle {
	r.metrics.ConnectivityChanged(e == Online)
	r.log.Info("connectivity changed", "state", e)
	if e == Online {
		return r.sink.Notify(r.loc.T(locale.NetworkOnline), notify.SeveritySuccess, OnlineDuration)
	}
	return r.sink.Notify(r.loc.T(locale.NetworkOffline), notify.SeverityWarning, notify.Persistent)
}

// Run reports events until the channel closes or ctx is done.
func (r *Reporter) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			r.Handle(e)
		}
	}
}

// DefaultInterval is the probe period.
const DefaultInterval = 10 * time.Second

// ProbeFunc checks reachability once. A nil error means online.
type ProbeFunc func(ctx context.Context) error

// DialProbe returns a ProbeFunc that opens and closes a TCP connection to
// the host of rawURL.
func DialProbe(rawURL string, timeout time.Duration) (ProbeFunc, error) {
	addr, err := hostPort(rawURL)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return errors.NetworkError(err, "netwatch", addr)
		}
		return conn.Close()
	}, nil
}

func hostPort(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", errors.Newf("cannot probe %q: no host", rawURL).
			Component("netwatch").
			Category(errors.CategoryConfiguration).
			Build()
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// Prober is a connectivity event source. It probes on an interval and
// emits an Event only when the result differs from the previous one. The
// initial state is online.
type Prober struct {
	probe    ProbeFunc
	interval time.Duration
	log      *slog.Logger
	online   bool
}

// NewProber builds a Prober. interval defaults to DefaultInterval.
func NewProber(probe ProbeFunc, interval time.Duration, log *slog.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prober{probe: probe, interval: interval, log: log, online: true}
}

// Step probes once and returns the transition, if any.
func (p *Prober) Step(ctx context.Context) (Event, bool) {
	err := p.probe(ctx)
	online := err == nil
	if err != nil {
		p.log.Debug("probe failed", "error", err)
	}
	if online == p.online {
		return 0, false
	}
	p.online = online
	if online {
		return Online, true
	}
	return Offline, true
}

// Run probes until ctx is done, sending transitions on out. It closes out
// on return.
func (p *Prober) Run(ctx context.Context, out chan<- Event) {
	defer close(out)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e, changed := p.Step(ctx)
			if !changed {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}
}
