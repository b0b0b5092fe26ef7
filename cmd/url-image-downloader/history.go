package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/saitejamalyala/url-image-downloader/internal/database"
	"github.com/saitejamalyala/url-image-downloader/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded with --history",
		Long: `History lists the runs that were recorded with --history, newest first.

Examples:
  # List all recorded runs
  url-image-downloader history

  # List the last 5 runs of one page
  url-image-downloader history --url https://example.com/gallery -n 5

  # Show the full report of a run
  url-image-downloader history show 3f1c2a9e-...

  # Remove a run
  url-image-downloader history delete 3f1c2a9e-...`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}

	cmd.Flags().String("url", "", "Only list runs of this page URL")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false, "Output the list as JSON")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

// openHistory opens the existing history database without creating one.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	return database.Open(getDBDirFlag(cmd), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
}

// runHistoryListCmd executes the history command.
func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	webURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), webURL, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}
	return writeRunTable(out, runs)
}

// writeRunTable prints runs as an aligned table.
func writeRunTable(out io.Writer, runs []database.RunMetadata) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tFOUND\tSAVED\tFAILED\tSTATUS\tURL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Summary.Found,
			r.Summary.Succeeded,
			r.Summary.Failed,
			runStatus(r),
			r.WebURL,
		)
	}
	return tw.Flush()
}

// runStatus summarizes how a recorded run ended.
func runStatus(r database.RunMetadata) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Error != "":
		return "error"
	default:
		return "ok"
	}
}

// runHistoryShowCmd executes the history show command.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return fmt.Errorf("--json and --markdown cannot be used together")
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runReport, err := db.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format := report.FormatText
	switch {
	case jsonOutput:
		format = report.FormatJSON
	case markdownOutput:
		format = report.FormatMarkdown
	}
	_, err = report.New(cmd.OutOrStdout(), format, getVersion()).Write(runReport)
	return err
}
