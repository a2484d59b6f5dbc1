// Command webmon is a terminal dashboard and command-line client for a
// website change monitor.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"webmon/internal/api"
	"webmon/internal/clock"
	"webmon/internal/conf"
	"webmon/internal/locale"
	"webmon/internal/logging"
	"webmon/internal/metrics"
	"webmon/internal/netwatch"
	"webmon/internal/notify"
	"webmon/internal/tui"
)

var version = "dev"

// app carries state shared by the subcommands.
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings *conf.Settings
	loc      *locale.Locale
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: conf.New()}
	root := &cobra.Command{
		Use:               "webmon",
		Short:             "Dashboard for a website change monitor",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runDashboard,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./webmon.yaml)")
	flags.String("server", "", "monitor base URL (default http://localhost:5000)")
	flags.String("locale", "", "message language, zh-CN or en")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-file", "", "log file for the dashboard")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address")
	for key, name := range map[string]string{
		"server.url":     "server",
		"ui.locale":      "locale",
		"log.level":      "log-level",
		"log.file":       "log-file",
		"metrics.listen": "metrics-listen",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(a.watchCmd(), a.checkCmd(), a.exportCmd(), a.configCmd())
	return root
}

// setup loads the settings and the pieces every command needs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	settings, err := conf.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = settings
	if a.loc, err = locale.New(settings.UI.Locale); err != nil {
		return err
	}
	a.registry = prometheus.NewRegistry()
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return err
	}
	return nil
}

// initLogging sends logs to the log file when the terminal belongs to the
// dashboard, and to stderr otherwise.
func (a *app) initLogging(toFile bool) error {
	opts := logging.Options{Level: a.settings.Log.Level, Writer: os.Stderr}
	if toFile {
		opts.File = a.settings.Log.File
	}
	return logging.Init(opts)
}

// initSentry enables crash reporting when a DSN is configured. The returned
// function flushes pending events.
func (a *app) initSentry() (func(), error) {
	if a.settings.Sentry.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              a.settings.Sentry.DSN,
		Release:          "webmon@" + version,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func (a *app) client() (*api.Client, error) {
	return api.New(api.Config{
		BaseURL:   a.settings.Server.URL,
		Timeout:   a.settings.Server.Timeout,
		UserAgent: "webmon/" + version,
		Logger:    logging.ForModule("api"),
	})
}

// serveMetrics exposes the registry until ctx is done.
func (a *app) serveMetrics(ctx context.Context, g *errgroup.Group) {
	addr := a.settings.Metrics.Listen
	if addr == "" {
		return
	}
	log := logging.ForModule("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startNetwatch runs the connectivity prober against the monitor's host.
// It returns nil when connectivity watching is disabled.
func (a *app) startNetwatch(ctx context.Context, g *errgroup.Group) (<-chan netwatch.Event, error) {
	if !a.settings.Netwatch.Enabled {
		return nil, nil
	}
	probe, err := netwatch.DialProbe(a.settings.Server.URL, 3*time.Second)
	if err != nil {
		return nil, err
	}
	events := make(chan netwatch.Event)
	prober := netwatch.NewProber(probe, a.settings.Netwatch.Interval, logging.ForModule("netwatch"))
	g.Go(func() error {
		prober.Run(ctx, events)
		return nil
	})
	return events, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) runDashboard(cmd *cobra.Command, _ []string) error {
	if err := a.initLogging(true); err != nil {
		return err
	}
	defer logging.Close()
	flush, err := a.initSentry()
	if err != nil {
		return err
	}
	defer flush()

	client, err := a.client()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	events, err := a.startNetwatch(gctx, g)
	if err != nil {
		return err
	}
	a.serveMetrics(gctx, g)

	s := a.settings
	opts := tui.Options{
		Backend:      client,
		Locale:       a.loc,
		Clock:        clock.Real{},
		PollInterval: s.Poll.Interval,
		ReloadDelay:  s.Check.ReloadDelay,
		Notify: notify.Options{
			MaxVisible:     s.Notify.MaxVisible,
			CollapseWindow: s.Notify.CollapseWindow,
		},
		NotifyDuration: s.Notify.Duration,
		NarrowWidth:    s.UI.NarrowWidth,
		ExportDir:      s.UI.ExportDir,
		NetEvents:      events,
		Logger:         logging.ForModule("tui"),
		Metrics:        a.metrics,
	}
	if s.Sentry.DSN != "" {
		opts.ReportPanic = func(r any) { sentry.CurrentHub().Recover(r) }
	}

	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, opts)
	})
	return g.Wait()
}
