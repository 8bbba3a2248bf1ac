package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show activity store statistics",
	Long: `Display how many activities each source has stored and when it
last synced.

Examples:
  mailsplit stats             # All activities
  mailsplit stats --since=7d  # Activities received in the last 7 days`,
	RunE: runStats,
}

var statsSince string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsSince, "since", "", "Time period (e.g., 7d, 2w, 1m)")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	// Parse time filter
	var since *time.Time
	if statsSince != "" {
		duration, err := parseDuration(statsSince)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		sinceTime := time.Now().Add(-duration)
		since = &sinceTime
	}

	stats, err := db.GetStats(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	return output.OutputTo(cmd.OutOrStdout(), outputFmt, stats)
}
