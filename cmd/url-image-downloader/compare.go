package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/saitejamalyala/url-image-downloader/internal/database"
	"github.com/saitejamalyala/url-image-downloader/internal/links"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"github.com/spf13/cobra"
)

// Constants for change direction.
const (
	directionImproved  = "improved"
	directionWorsened  = "worsened"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares two recorded runs of the same page.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <web-url>",
		Short: "Compare the latest run of a page with an earlier one",
		Long: `Compare displays differences between two runs of the same page that were
recorded with --history.

The comparison shows:
- Images that appeared or disappeared from the page
- Images whose content changed (different SHA-256 digest)
- Images that failed this time but were saved before, and the reverse

By default the latest two runs are compared.

Examples:
  # Compare the latest two runs of a page
  url-image-downloader compare https://example.com/gallery

  # Compare the latest run with a specific earlier run
  url-image-downloader compare --with-run-id 3f1c2a9e-... https://example.com/gallery

  # Compare with the first run since a date
  url-image-downloader compare --since 2026-01-01 https://example.com/gallery

  # Output comparison in JSON format
  url-image-downloader compare --json https://example.com/gallery`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare with a specific run by ID (use 'history --url' to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	webURL := args[0]
	if _, err := links.OriginOf(webURL); err != nil {
		return errInvalidURL
	}

	withRunID, err := cmd.Flags().GetString("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}

	// Validate arguments before opening the database so that a bad flag
	// never leaves a lock behind.
	var since time.Time
	if sinceDate != "" {
		since, err = time.Parse(time.DateOnly, sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	previous, current, err := selectRuns(cmd.Context(), db, webURL, withRunID, since)
	if err != nil {
		return err
	}

	comparison := compareRuns(previous, current)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// selectRuns loads the latest run of webURL and the run to compare it with.
func selectRuns(ctx context.Context, db *database.HistoryDB, webURL, withRunID string, since time.Time) (previous, current *model.RunReport, err error) {
	runs, err := db.ListRuns(ctx, webURL, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run history: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil, fmt.Errorf("no run history found for %s", webURL)
	}
	if len(runs) < 2 && withRunID == "" {
		return nil, nil, fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	current, err = db.GetRun(ctx, runs[0].ID)
	if err != nil {
		return nil, nil, err
	}

	var previousID string
	switch {
	case withRunID != "":
		previousID = withRunID
	case !since.IsZero():
		// Runs are newest first; the oldest run at or after since is wanted.
		for i := len(runs) - 1; i >= 0; i-- {
			if !runs[i].StartedAt.Before(since) {
				previousID = runs[i].ID
				break
			}
		}
		if previousID == "" {
			return nil, nil, fmt.Errorf("no runs found since %s", since.Format(time.DateOnly))
		}
		if previousID == current.ID {
			return nil, nil, fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison",
				since.Format(time.DateOnly))
		}
	default:
		previousID = runs[1].ID
	}

	previous, err = db.GetRun(ctx, previousID)
	if err != nil {
		return nil, nil, err
	}
	if previous.WebURL != webURL {
		return nil, nil, fmt.Errorf("run %s belongs to %s, not %s", previousID, previous.WebURL, webURL)
	}
	return previous, current, nil
}

// ComparisonResult holds the result of comparing two runs of a page.
type ComparisonResult struct {
	// WebURL is the page both runs downloaded from.
	WebURL string `json:"web_url"`

	// PreviousRun describes the earlier run.
	PreviousRun RunSnapshot `json:"previous_run"`

	// CurrentRun describes the later run.
	CurrentRun RunSnapshot `json:"current_run"`

	// Added lists links present only in the current run.
	Added []string `json:"added,omitempty"`

	// Removed lists links present only in the previous run.
	Removed []string `json:"removed,omitempty"`

	// Changed lists links saved by both runs with different content.
	Changed []string `json:"changed,omitempty"`

	// NewlyFailing lists links saved before that failed this time.
	NewlyFailing []string `json:"newly_failing,omitempty"`

	// Recovered lists links that failed before and were saved this time.
	Recovered []string `json:"recovered,omitempty"`

	// UnchangedCount is the number of links saved by both runs with equal content.
	UnchangedCount int `json:"unchanged_count"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// RunSnapshot contains the parts of a run shown in a comparison.
type RunSnapshot struct {
	ID        string           `json:"id"`
	StartedAt time.Time        `json:"started_at"`
	Summary   model.RunSummary `json:"summary"`
}

// compareRuns compares two runs by the links they retrieved.
func compareRuns(previous, current *model.RunReport) *ComparisonResult {
	result := &ComparisonResult{
		WebURL:      current.WebURL,
		PreviousRun: snapshot(previous),
		CurrentRun:  snapshot(current),
	}

	previousOutcomes := outcomesByURL(previous)
	currentOutcomes := outcomesByURL(current)

	for url, cur := range currentOutcomes {
		prev, exists := previousOutcomes[url]
		switch {
		case !exists:
			result.Added = append(result.Added, url)
		case prev.OK() && !cur.OK():
			result.NewlyFailing = append(result.NewlyFailing, url)
		case !prev.OK() && cur.OK():
			result.Recovered = append(result.Recovered, url)
		case prev.OK() && cur.OK() && prev.Digest != cur.Digest:
			result.Changed = append(result.Changed, url)
		case prev.OK() && cur.OK():
			result.UnchangedCount++
		}
	}
	for url := range previousOutcomes {
		if _, exists := currentOutcomes[url]; !exists {
			result.Removed = append(result.Removed, url)
		}
	}

	for _, list := range [][]string{result.Added, result.Removed, result.Changed, result.NewlyFailing, result.Recovered} {
		sort.Strings(list)
	}

	result.Direction = changeDirection(result.PreviousRun.Summary, result.CurrentRun.Summary)
	return result
}

func snapshot(r *model.RunReport) RunSnapshot {
	return RunSnapshot{ID: r.ID, StartedAt: r.StartedAt, Summary: r.Summary}
}

// outcomesByURL indexes the outcomes of a run by link.
func outcomesByURL(r *model.RunReport) map[string]model.Outcome {
	m := make(map[string]model.Outcome, len(r.Outcomes))
	for _, o := range r.Outcomes {
		m[o.URL] = o
	}
	return m
}

// changeDirection compares failure rates; fewer failures per attempt is an
// improvement.
func changeDirection(previous, current model.RunSummary) string {
	// Cross-multiplied to compare failed/attempted without division.
	prevScore := previous.Failed * max(current.Attempted, 1)
	curScore := current.Failed * max(previous.Attempted, 1)

	switch {
	case curScore < prevScore:
		return directionImproved
	case curScore > prevScore:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	prev, cur := result.PreviousRun, result.CurrentRun

	fmt.Fprintf(w, "# Run Comparison: %s\n\n", result.WebURL)
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "\n**Status:** %s\n\n", formatDirection(result.Direction))

	fmt.Fprintln(w, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(w, "|--------|----------|---------|--------|")
	fmt.Fprintf(w, "| Date | %s | %s | - |\n",
		prev.StartedAt.Local().Format("2006-01-02 15:04"),
		cur.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "| Found | %d | %d | %s |\n",
		prev.Summary.Found, cur.Summary.Found, formatDelta(cur.Summary.Found-prev.Summary.Found))
	fmt.Fprintf(w, "| Saved | %d | %d | %s |\n",
		prev.Summary.Succeeded, cur.Summary.Succeeded, formatDelta(cur.Summary.Succeeded-prev.Summary.Succeeded))
	fmt.Fprintf(w, "| Failed | %d | %d | %s |\n",
		prev.Summary.Failed, cur.Summary.Failed, formatDelta(cur.Summary.Failed-prev.Summary.Failed))

	sections := []struct {
		title string
		items []string
	}{
		{"Added", result.Added},
		{"Removed", result.Removed},
		{"Changed", result.Changed},
		{"Newly Failing", result.NewlyFailing},
		{"Recovered", result.Recovered},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n## %s (%d)\n\n", s.title, len(s.items))
		for _, url := range s.items {
			fmt.Fprintf(w, "- `%s`\n", url)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\n---\n\n*%d images unchanged*\n", result.UnchangedCount)
	}
	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	prev, cur := result.PreviousRun, result.CurrentRun

	fmt.Fprintf(w, "Run Comparison: %s\n", result.WebURL)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "\nStatus: %s\n", formatDirection(result.Direction))

	fmt.Fprintf(w, "\nPrevious run: %s (%s)\n", prev.StartedAt.Local().Format(time.DateTime), prev.ID)
	fmt.Fprintf(w, "Current run:  %s (%s)\n", cur.StartedAt.Local().Format(time.DateTime), cur.ID)

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Found",
		prev.Summary.Found, cur.Summary.Found, formatDelta(cur.Summary.Found-prev.Summary.Found))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Saved",
		prev.Summary.Succeeded, cur.Summary.Succeeded, formatDelta(cur.Summary.Succeeded-prev.Summary.Succeeded))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		prev.Summary.Failed, cur.Summary.Failed, formatDelta(cur.Summary.Failed-prev.Summary.Failed))

	printList := func(title, marker string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
		for _, url := range items {
			fmt.Fprintf(w, "  [%s] %s\n", marker, url)
		}
	}
	printList("Added", "+", result.Added)
	printList("Removed", "-", result.Removed)
	printList("Changed", "~", result.Changed)
	printList("Newly Failing", "!", result.NewlyFailing)
	printList("Recovered", "*", result.Recovered)

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d images\n", result.UnchangedCount)
	}
	return nil
}

// formatDirection formats the change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (fewer failures)"
	case directionWorsened:
		return "WORSENED (more failures)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
