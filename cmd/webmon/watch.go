package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"webmon/internal/api"
	"webmon/internal/logging"
	"webmon/internal/netwatch"
	"webmon/internal/poller"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the monitor status and report connectivity changes without the dashboard",
		Args:  cobra.NoArgs,
		RunE:  a.runWatch,
	}
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	if err := a.initLogging(false); err != nil {
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
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	observer := poller.ObserverFunc(func(report *api.StatusReport) {
		total, _ := report.TotalWebsites()
		active, _ := report.ActiveWebsites()
		changes, _ := report.RecentChanges()
		fmt.Fprintf(out, "%s websites=%d active=%d changes(24h)=%d\n",
			bold.Sprint(report.State()), total, active, changes)
	})
	p, err := poller.New(poller.Config{Interval: a.settings.Poll.Interval},
		client, observer, logging.ForModule("poller"), a.metrics)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// report the current status straight away rather than after one interval
	if res := p.PollOnce(ctx); res.Err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "status request failed: %v\n", res.Err)
	}
	g.Go(func() error {
		p.Run(ctx)
		return nil
	})

	events, err := a.startNetwatch(ctx, g)
	if err != nil {
		return err
	}
	if events != nil {
		reporter := netwatch.NewReporter(consoleSink(out), a.loc, logging.ForModule("netwatch"), a.metrics)
		g.Go(func() error {
			reporter.Run(ctx, events)
			return nil
		})
	}
	a.serveMetrics(ctx, g)

	return g.Wait()
}
