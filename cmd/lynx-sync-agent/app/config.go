package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/lynx-sync-agent/internal/config"
)

const (
	flagIn  = "in"
	flagOut = "out"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with configuration files",
	}
	cmd.AddCommand(newConfigConvertCmd())
	return cmd
}

func newConfigConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a configuration file to another format",
		Long: `Convert between configuration formats. The formats are chosen by extension:
.roster, .yaml/.yml, .toml, and JSON for anything else.

  lynx-sync-agent config convert --in meet.roster --out agent.json`,
		Args: cobra.NoArgs,
		RunE: runConfigConvert,
	}

	cmd.Flags().String(flagIn, "", "Source configuration file (required)")
	cmd.Flags().String(flagOut, "", "Destination configuration file (required)")
	_ = cmd.MarkFlagRequired(flagIn)
	_ = cmd.MarkFlagRequired(flagOut)

	return cmd
}

func runConfigConvert(cmd *cobra.Command, _ []string) error {
	in, err := cmd.Flags().GetString(flagIn)
	if err != nil {
		return fmt.Errorf("failed to get in flag: %w", err)
	}
	out, err := cmd.Flags().GetString(flagOut)
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(in))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.SaveConfig(cfg, out); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return err
}
