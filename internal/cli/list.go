package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored activities",
	Long: `List stored activities, newest first, with optional filters.

Examples:
  mailsplit list                     # List recent activities
  mailsplit list --source=eml        # Only imported .eml files
  mailsplit list --query="lease"     # Match subject, sender or body
  mailsplit list --since=7d          # Received in the last 7 days
  mailsplit list -o json             # Output as JSON`,
	RunE: runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored activities",
	Long: `Search stored activities by subject, sender or body text.

Examples:
  mailsplit search "120 Main St"
  mailsplit search lease renewal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	listSource string
	listQuery  string
	listSince  string
	listLimit  int
	listOffset int
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)

	listCmd.Flags().StringVar(&listSource, "source", "", "Filter by source (gmail, eml, manual)")
	listCmd.Flags().StringVar(&listQuery, "query", "", "Filter by text in subject, sender or body")
	listCmd.Flags().StringVar(&listSince, "since", "", "Filter by time (e.g., 7d, 2w, 1m)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of results")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Skip this many results")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := loadEnv()
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// Build query options
	opts := database.ListOptions{
		Query:  listQuery,
		Limit:  listLimit,
		Offset: listOffset,
	}
	if listSource != "" {
		src, err := parseSource(listSource)
		if err != nil {
			return err
		}
		opts.Source = &src
	}
	if listSince != "" {
		d, err := parseDuration(listSince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		since := time.Now().Add(-d)
		opts.Since = &since
	}

	activities, err := db.ListActivities(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}
	if activities == nil {
		activities = []database.Activity{}
	}

	return output.OutputTo(cmd.OutOrStdout(), outputFmt, activities)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	e, err := loadEnv()
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.ListActivities(ctx, database.ListOptions{Query: query, Limit: 100})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []database.Activity{}
	}

	if outputFmt != "json" {
		if len(results) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No activities found matching: %s\n", query)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d activities matching: %s\n\n", len(results), query)
	}

	return output.OutputTo(cmd.OutOrStdout(), outputFmt, results)
}

// parseSource validates a source name
func parseSource(s string) (database.Source, error) {
	switch src := database.Source(strings.ToLower(s)); src {
	case database.SourceGmail, database.SourceEML, database.SourceManual:
		return src, nil
	default:
		return "", fmt.Errorf("unknown source: %s (use gmail, eml or manual)", s)
	}
}

// parseDuration parses durations like "7d", "2w", "1m"
func parseDuration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration format")
	}

	unit := s[len(s)-1]
	valueStr := s[:len(s)-1]

	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid duration value")
	}
	if value < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}

	switch unit {
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(value) * 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %c (use d, w, or m)", unit)
	}
}
