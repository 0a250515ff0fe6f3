package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/lynx-sync-agent/internal/lif"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.lif>",
		Short: "Decode a FinishLynx result file and print its records",
		Long: `Decode a FinishLynx result file exactly as the agent does before uploading
it, and print the records. Rows without a license number are not records.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}
	cmd.Flags().String(flagFormat, formatTable, "Output format (table or json)")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString(flagFormat)
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unsupported format %q (use %s or %s)", format, formatTable, formatJSON)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open result file: %w", err)
	}
	defer f.Close()

	records, err := lif.ParseResults(f)
	if err != nil {
		return err
	}

	if format == formatJSON {
		return printRecordsJSON(cmd.OutOrStdout(), records)
	}
	return printRecordsTable(cmd.OutOrStdout(), records)
}

func printRecordsJSON(w io.Writer, records []lif.ResultRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

func printRecordsTable(w io.Writer, records []lif.ResultRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results found")
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		var event, round, heat string
		if r.EventInfo != nil {
			event, round, heat = r.EventInfo.EventNumber, r.EventInfo.Round, r.EventInfo.Heat
		}
		rows = append(rows, []string{
			event, round, heat,
			optionalInt(r.Position),
			r.StartNumber,
			r.LicenseNumber,
			r.Result,
			string(r.Status),
			optionalFloat(r.ReactionTime),
			optionalFloat(r.Wind),
			r.Club,
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Event", "Round", "Heat", "Pos", "Bib", "License", "Result", "Status", "Reaction", "Wind", "Club")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
