package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/email"
	"github.com/vijay-prabhu/mailsplit/internal/ingest"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show <activity-id>",
	Short: "Parse and show a stored activity",
	Long: `Show a stored activity parsed with the fast extractor, or with
--rich as a reconstructed thread. With --gmail the argument is a Gmail
message ID, fetched live and parsed without being stored.

Examples:
  mailsplit show 6f1c2d4e-8a9b-4c3d-9e0f-1a2b3c4d5e6f
  mailsplit show 6f1c2d4e-8a9b-4c3d-9e0f-1a2b3c4d5e6f --rich
  mailsplit show 6f1c2d4e-8a9b-4c3d-9e0f-1a2b3c4d5e6f -o json
  mailsplit show 18c2f0a9b7d3e41f --gmail --rich`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	showRich  bool
	showGmail bool
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showRich, "rich", false, "Show the reconstructed thread")
	showCmd.Flags().BoolVar(&showGmail, "gmail", false, "Fetch the message from Gmail by message ID")
}

func runShow(cmd *cobra.Command, args []string) error {
	var (
		e   *env
		a   *database.Activity
		err error
	)
	if showGmail {
		e, a, err = gmailActivity(cmd, args[0])
	} else {
		e, a, err = storedActivity(cmd, args[0])
	}
	if err != nil {
		return err
	}
	return renderActivity(cmd.OutOrStdout(), e, a)
}

func storedActivity(cmd *cobra.Command, id string) (*env, *database.Activity, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}

	db, err := e.openDB()
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	a, err := db.GetActivity(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, fmt.Errorf("activity not found: %s", id)
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	return e, a, nil
}

func gmailActivity(cmd *cobra.Command, id string) (*env, *database.Activity, error) {
	// Gmail needs a config file for the credentials
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	e, err := newEnv(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider, err := connectGmail(cmd, e)
	if err != nil {
		return nil, nil, err
	}
	a, err := fetchActivity(cmd.Context(), provider, id)
	if err != nil {
		return nil, nil, err
	}
	return e, a, nil
}

// fetchActivity reads one message from p as an unsaved activity
func fetchActivity(ctx context.Context, p email.Provider, id string) (*database.Activity, error) {
	m, err := p.GetEmail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	return ingest.ActivityFromEmail(database.Source(p.Name()), m), nil
}

func renderActivity(w io.Writer, e *env, a *database.Activity) error {
	if outputFmt == "json" {
		data := struct {
			Activity *database.Activity     `json:"activity"`
			Parsed   *mailparse.Analysis     `json:"parsed,omitempty"`
			Thread   *mailparse.ThreadResult `json:"thread,omitempty"`
		}{Activity: a}
		if showRich {
			tr := e.parser.ParseThreadResult(a.RawBody, a.SubjectOrEmpty())
			data.Thread = &tr
		} else {
			an := e.parser.Analyze(a.RawBody, true, true)
			data.Parsed = &an
		}
		return output.JSONTo(w, data)
	}

	if err := output.TableTo(w, a); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if showRich {
		m := e.parser.ParseThread(a.RawBody, a.SubjectOrEmpty())
		if m == nil {
			fmt.Fprintln(w, "Empty message.")
			return nil
		}
		return output.TableTo(w, m)
	}
	return output.TableTo(w, e.parser.Analyze(a.RawBody, true, true))
}

var deleteCmd = &cobra.Command{
	Use:   "delete <activity-id>",
	Short: "Delete a stored activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteActivity(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("activity not found: %s", args[0])
		}
		return fmt.Errorf("database error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %s\n", args[0])
	return nil
}
