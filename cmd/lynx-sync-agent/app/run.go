package app

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	agentapp "github.com/stacklok/lynx-sync-agent/internal/app"
)

const (
	flagAddress = "address"

	defaultGracefulTimeout = 30 * time.Second
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync agent",
		Long: `Run the sync agent until interrupted.

When autoSync is set in the configuration a sync session starts immediately;
otherwise the session is started through the status API (POST /session/start).
The status API listens when --address is given or statusServer.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: runAgent,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().String(flagAddress, "", "Status API address, e.g. 127.0.0.1:8787")
	cmd.Flags().Bool("auto-sync", false, "Start a sync session immediately")

	return cmd
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []agentapp.AgentAppOptions{
		agentapp.WithConfig(cfg),
		agentapp.WithLogger(slog.Default()),
	}
	address, err := cmd.Flags().GetString(flagAddress)
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}
	if address != "" {
		opts = append(opts, agentapp.WithAddress(address))
	}

	agent, err := agentapp.NewAgentApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build sync agent: %w", err)
	}

	slog.Info("Starting sync agent",
		"competition", cfg.CompetitionID,
		"result_dir", cfg.OutputDir,
		"start_list_dir", cfg.InputDir,
		"auto_sync", cfg.AutoSync)

	errCh := make(chan error, 1)
	go func() {
		errCh <- agent.Start()
	}()

	select {
	case err := <-errCh:
		// The agent stopped on its own; release what it holds
		_ = agent.Stop(defaultGracefulTimeout)
		return err
	case <-ctx.Done():
	}

	if err := agent.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errCh
}
