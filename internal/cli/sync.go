package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/email"
	"github.com/vijay-prabhu/mailsplit/internal/email/gmail"
	"github.com/vijay-prabhu/mailsplit/internal/filter"
	"github.com/vijay-prabhu/mailsplit/internal/ingest"
	"github.com/vijay-prabhu/mailsplit/internal/logging"
	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var (
	syncDays int
	syncFull bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch recent emails from Gmail into the activity store",
	Long: `Sync fetches recent messages from your Gmail account and stores
their raw text as activities, skipping messages already stored.

On first run, it will open a browser for Google authentication.

Examples:
  mailsplit sync              # Incremental sync (since last sync, or 30 days)
  mailsplit sync --days=60    # Fetch last 60 days
  mailsplit sync --full       # Full sync (ignore last sync time)`,
	RunE: runSync,
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import .eml files into the activity store",
	Long: `Import reads every .eml file under a directory, recursively, and
stores its text as an activity. Files already imported are skipped.

Examples:
  mailsplit import ~/Mail/export
  mailsplit import ./fixtures -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(importCmd)
	syncCmd.Flags().IntVar(&syncDays, "days", 0, "Number of days to fetch (default: 30, or since last sync)")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Ignore last sync time and fetch from scratch")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Sync needs a config file for the Gmail credentials
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := connectGmail(cmd, e)
	if err != nil {
		return err
	}

	switch {
	case syncDays > 0:
		cmd.PrintErrf("Syncing emails (last %d days)...\n", syncDays)
	case syncFull:
		cmd.PrintErrln("Syncing emails (full sync)...")
	default:
		cmd.PrintErrln("Syncing emails...")
	}

	terminal := NewTerminal()
	in := ingest.New(db, e.logger).WithFilter(filter.New(e.cfg.Filters))
	result, err := in.SyncProvider(ctx, provider, ingest.SyncOptions{
		Days:       syncDays,
		Full:       syncFull,
		MaxResults: e.cfg.Gmail.MaxResults,
		Query:      e.cfg.Gmail.Query,
	}, terminal.Progress)
	terminal.Done()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	return printIngestResult(cmd.OutOrStdout(), terminal, result)
}

// connectGmail authenticates against Gmail. The browser consent flow only
// runs when stderr is a terminal.
func connectGmail(cmd *cobra.Command, e *env) (*gmail.Provider, error) {
	interactive := NewTerminal().IsTerminal

	opts := []gmail.Option{gmail.WithLogger(logging.Component(e.logger, "gmail"))}
	if interactive {
		opts = append(opts, gmail.WithPrompt(cmd.ErrOrStderr()))
	}
	provider := gmail.New(e.cfg.Gmail.CredentialsPath, e.cfg.Gmail.TokenPath, opts...)

	if err := requireToken(provider, interactive); err != nil {
		return nil, err
	}

	cmd.PrintErrln("Authenticating with Gmail...")
	if err := provider.Authenticate(cmd.Context()); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if userEmail, err := provider.GetUserEmail(cmd.Context()); err == nil {
		cmd.PrintErrf("Authenticated as: %s\n", userEmail)
	}
	return provider, nil
}

// requireToken fails fast when no consent flow can run and no token is saved
func requireToken(p email.Provider, interactive bool) error {
	if interactive || p.IsAuthenticated() {
		return nil
	}
	return errors.New("no Gmail token found, run 'mailsplit sync' from a terminal first")
}

func runImport(cmd *cobra.Command, args []string) error {
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

	terminal := NewTerminal()
	in := ingest.New(db, e.logger).WithFilter(filter.New(e.cfg.Filters))
	result, err := in.ImportDir(ctx, args[0], terminal.Progress)
	terminal.Done()
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	return printIngestResult(cmd.OutOrStdout(), terminal, result)
}

func printIngestResult(w io.Writer, terminal *Terminal, result *ingest.Result) error {
	if outputFmt == "json" {
		return output.JSONTo(w, result)
	}

	if err := output.TableTo(w, result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, terminal.Color(ColorYellow, fmt.Sprintf("Warnings: %d", len(result.Errors))))
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  - %v\n", err)
		}
	}
	return nil
}
