package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/cobra"

	"github.com/stacklok/lynx-sync-agent/internal/exporter"
	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
)

const (
	flagRetries = "retries"

	defaultExportRetries = 5
	maxExportElapsed     = 2 * time.Minute
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch the start lists once and export them",
		Long: `Fetch the start lists of the configured competition and write them to the
FinishLynx input directory, together with the schedule and lynx.cfg.

Connectivity and server failures are retried with exponential backoff.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().Uint(flagRetries, defaultExportRetries, "Maximum number of fetch attempts")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	retries, err := cmd.Flags().GetUint(flagRetries)
	if err != nil {
		return fmt.Errorf("failed to get retries flag: %w", err)
	}
	if retries == 0 {
		retries = 1
	}

	manager := pkgsync.NewDefaultSyncManager(pkgsync.WithLogger(slog.Default()))

	operation := func() (*exporter.ExportResult, error) {
		result, syncErr := manager.SyncStartLists(cmd.Context(), cfg)
		if syncErr == nil {
			return result, nil
		}
		switch syncErr.Kind {
		case pkgsync.KindConnectivity, pkgsync.KindServer:
			return nil, syncErr
		default:
			return nil, backoff.Permanent(syncErr)
		}
	}

	result, err := backoff.Retry(cmd.Context(), operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(retries),
		backoff.WithMaxElapsedTime(maxExportElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Start list fetch failed, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("start list export failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, f := range result.Files {
		_, _ = fmt.Fprintln(out, f)
	}
	_, _ = fmt.Fprintf(out, "Exported %d files to %s, removed %d stale start lists\n",
		len(result.Files), cfg.InputDir, result.Removed)

	return result.Err()
}
