package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the notification dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.ReconcileOnStart {
		report := a.alarms.RescheduleAll(ctx)
		a.logger.InfoContext(ctx, "startup reconciliation finished",
			"permission_granted", report.PermissionGranted,
			"notifications", report.Notifications,
			"failures", len(report.Failures))
	}

	jobs, err := a.startCron(ctx)
	if err != nil {
		return err
	}
	if jobs != nil {
		defer func() { <-jobs.Stop().Done() }()
	}

	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- a.scheduler.Run(ctx, a.cfg.DispatchInterval)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// SendTestNotification blocks until the notification is listed.
		WriteTimeout: 30*time.Second + a.cfg.TestNotificationTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "alarm API listening", "addr", server.Addr, "store", a.cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	cancel()
	if err := <-dispatchErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startCron schedules periodic reconciliation when a cron spec is configured.
func (a *app) startCron(ctx context.Context) (*cron.Cron, error) {
	if a.cfg.ReconcileCron == "" {
		return nil, nil
	}
	loc := a.cfg.Location
	if loc == nil {
		loc = time.Local
	}
	jobs := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := jobs.AddFunc(a.cfg.ReconcileCron, func() {
		report := a.alarms.RescheduleAll(ctx)
		a.logger.InfoContext(ctx, "scheduled reconciliation finished",
			slog.Bool("permission_granted", report.PermissionGranted),
			slog.Int("notifications", report.Notifications),
			slog.Int("failures", len(report.Failures)))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid ALARMS_RECONCILE_CRON %q: %w", a.cfg.ReconcileCron, err)
	}
	jobs.Start()
	a.logger.InfoContext(ctx, "periodic reconciliation enabled", "spec", a.cfg.ReconcileCron)
	return jobs, nil
}
