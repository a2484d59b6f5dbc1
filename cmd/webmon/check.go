package main

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"webmon/internal/checkaction"
	"webmon/internal/clock"
	"webmon/internal/locale"
	"webmon/internal/logging"
)

func (a *app) checkCmd() *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "check ID...",
		Short: "Ask the monitor to check websites now",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid website id %q", arg)
				}
				ids = append(ids, id)
			}
			return a.runCheck(cmd, ids, parallel)
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "checks to run at once")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, ids []int64, parallel int) error {
	if err := a.initLogging(false); err != nil {
		return err
	}
	defer logging.Close()

	client, err := a.client()
	if err != nil {
		return err
	}
	controller, err := checkaction.New(checkaction.Config{
		Checker:     client,
		Sink:        consoleSink(cmd.OutOrStdout()),
		Locale:      a.loc,
		Clock:       clock.Real{},
		ReloadDelay: a.settings.Check.ReloadDelay,
		Logger:      logging.ForModule("checkaction"),
		Metrics:     a.metrics,
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for _, id := range ids {
		g.Go(func() error {
			button := checkaction.NewButton(a.loc.T(locale.CheckNow))
			inv, err := controller.Invoke(ctx, button, id)
			if err != nil {
				return err
			}
			if inv.Outcome != checkaction.Succeeded {
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d checks failed", n, len(ids))
	}
	return nil
}
