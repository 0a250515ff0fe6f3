package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	pkgsync "github.com/stacklok/lynx-sync-agent/internal/sync"
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the competition server is reachable",
		Args:  cobra.NoArgs,
		RunE:  runProbe,
	}
	addConfigFlags(cmd.Flags())
	return cmd
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ServerURL == "" {
		return fmt.Errorf("serverUrl is not configured")
	}

	manager := pkgsync.NewDefaultSyncManager(pkgsync.WithLogger(slog.Default()))
	if probeErr := manager.Probe(cmd.Context(), cfg); probeErr != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connection failed: %s\n", probeErr.Message)
		return probeErr
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s\n", cfg.ServerURL)
	return err
}
