// Command alarmd runs the medication, visit and vaccine alarm service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/care-alarms/internal/config"
	"github.com/example/care-alarms/internal/debuglog"
	"github.com/example/care-alarms/internal/logging"
	"github.com/example/care-alarms/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "alarmd",
		Short:        "Medication, visit and vaccine alarm service",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configFile != "" {
				return os.Setenv("ALARMS_CONFIG_FILE", configFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (overrides ALARMS_CONFIG_FILE)")

	root.AddCommand(serveCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(testNotificationCmd())
	root.AddCommand(logsCmd())
	root.AddCommand(migrateCmd())
	return root
}

// setup loads configuration, installs the default logger and wires the app.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return newApp(cmd.Context(), cfg, logger)
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Cancel and rebuild every alarm from stored data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.alarms.RescheduleAll(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.PermissionGranted {
				return fmt.Errorf("notification permission not granted")
			}
			return nil
		},
	}
}

func testNotificationCmd() *cobra.Command {
	var seconds int64

	cmd := &cobra.Command{
		Use:   "test-notification",
		Short: "Schedule a test notification and wait until it is listed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.alarms.SendTestNotification(cmd.Context(), seconds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Int64Var(&seconds, "seconds", 5, "delay before the notification fires")
	return cmd
}

func logsCmd() *cobra.Command {
	var (
		severity string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print or clear the alarm debug log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if clearAll {
				return a.debugLog.Clear(cmd.Context())
			}
			entries := a.debugLog.ReadAll(cmd.Context())
			if severity != "" {
				filter := debuglog.Severity(severity)
				if !filter.Valid() {
					return fmt.Errorf("unknown log type %q", severity)
				}
				entries = a.debugLog.ReadByType(cmd.Context(), filter)
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				if _, err := fmt.Fprintf(out, "%s [%s] %s\n", entry.Timestamp, entry.Type, entry.Message); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&severity, "type", "", "only show info, success, warning or error entries")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every entry")
	return cmd
}

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect SQLite schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverSQLite {
				return fmt.Errorf("migrations only apply to the sqlite store, driver is %q", cfg.StoreDriver)
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

			storage, err := sqlite.OpenDSN(cfg.SQLiteDSN, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			if !statusOnly {
				applied, err := storage.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", applied)
			}
			status, err := storage.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d, %d pending\n", status.CurrentVersion, len(status.Pending))
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only report the schema version")
	return cmd
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
