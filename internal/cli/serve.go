package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/httpapi"
	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

var (
	serveAddr    string
	serveNoCron  bool
	serveReplace bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the weekly cron trigger",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoCron, "no-cron", false, "disable the scheduled weekly run")
	serveCmd.Flags().BoolVar(&serveReplace, "replace", false, "scheduled runs replace an existing week")
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !serveNoCron {
		sched, err := scheduler.New(orch, scheduler.Options{
			Spec:     a.cfg.Schedule.Cron,
			Timezone: a.cfg.Schedule.Timezone,
			Request:  orchestrator.Request{ReplaceExisting: serveReplace},
			Log:      a.log.WithField("component", "scheduler"),
		})
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		a.log.WithField("next", sched.Next().Format(time.RFC3339)).Info("weekly trigger scheduled")
	}

	api, err := httpapi.New(httpapi.Options{
		Runner:     orch,
		Weights:    a.engine,
		Health:     a.store,
		Gatherer:   a.registry,
		WindowDays: a.cfg.Scoring.WindowDays,
		Log:        a.log.WithField("component", "http"),
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
