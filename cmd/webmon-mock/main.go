// Command webmon-mock serves an in-memory monitor API for trying the
// dashboard without a real monitor.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"webmon/internal/api"
	"webmon/internal/logging"
	"webmon/internal/mockserver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		listen    string
		seed      bool
		failEvery int
		logLevel  string
	)
	cmd := &cobra.Command{
		Use:          "webmon-mock",
		Short:        "Serve an in-memory website monitor API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logging.Init(logging.Options{Level: logLevel, Writer: os.Stderr}); err != nil {
				return err
			}
			defer logging.Close()
			gin.SetMode(gin.ReleaseMode)

			s := mockserver.New(mockserver.Options{Logger: logging.ForModule("mockserver")})
			if seed {
				s.Seed()
			}
			if failEvery > 0 {
				var n atomic.Int64
				s.SetCheck(func(api.Website) (bool, error) {
					if n.Add(1)%int64(failEvery) == 0 {
						return false, errors.New("simulated timeout")
					}
					return true, nil
				})
			}
			return serve(cmd.Context(), listen, s.Handler())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "127.0.0.1:5000", "address to listen on")
	cmd.Flags().BoolVar(&seed, "seed", true, "start with sample websites and changes")
	cmd.Flags().IntVar(&failEvery, "fail-every", 0, "make every Nth check fail (0 never)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func serve(parent context.Context, addr string, h http.Handler) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.ForModule("mockserver")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mock server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}
