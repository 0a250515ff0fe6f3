// Package app provides the entry point for the Lynx sync agent application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/versions"
)

const (
	flagConfig = "config"
	flagFormat = "format"

	formatJSON  = "json"
	formatTable = "table"
)

// NewRootCmd creates a new root command for the sync agent.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "lynx-sync-agent",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Sync FinishLynx results with the competition platform",
		Long: `lynx-sync-agent watches the FinishLynx result directory, uploads every changed
result file to the competition platform and exports the platform's start lists
in the formats FinishLynx reads.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString(flagFormat)
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == formatJSON {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "lynx-sync-agent %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String(flagFormat, "", "Output format (json)")
	return cmd
}

// addConfigFlags registers --config and the per-field overrides shared by
// the commands that talk to the server
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "Path to the configuration file (.json, .yaml, .toml or .roster)")
	flags.String(config.KeyServerURL, "", "Override the competition server URL")
	flags.String(config.KeyAPIKey, "", "Override the API key")
	flags.String(config.KeyCompetitionID, "", "Override the competition ID")
	flags.String(config.KeyInputDir, "", "Override the FinishLynx input directory (start lists)")
	flags.String(config.KeyOutputDir, "", "Override the FinishLynx result directory")
}

// loadConfig reads the configuration named by --config and applies the
// LYNX_SYNC_* environment variables and override flags on top of it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.NewViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	path := v.GetString(flagConfig)
	if path == "" {
		return nil, fmt.Errorf("a configuration file is required (--config or %s_CONFIG)", config.EnvPrefix)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ApplyOverrides(v)

	slog.Debug("Loaded configuration", "path", path, "competition", cfg.CompetitionID)
	return cfg, nil
}
