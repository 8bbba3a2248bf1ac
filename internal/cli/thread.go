package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var threadCmd = &cobra.Command{
	Use:   "thread [file|-]",
	Short: "Reconstruct the message thread of an email",
	Long: `Parse raw email text with the fragment-based parser. It separates
the newest message from its quoted history and rebuilds the quoted
messages as a thread, newest first.

Reads from stdin when no file is given.

Examples:
  mailsplit thread exported.txt
  mailsplit thread exported.txt --subject "Re: 120 Main St"
  mailsplit thread exported.txt -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThread,
}

var threadSubject string

func init() {
	rootCmd.AddCommand(threadCmd)
	threadCmd.Flags().StringVar(&threadSubject, "subject", "", "Subject to use when the text has no Subject: line")
}

func runThread(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	res := e.parser.ParseThreadResult(text, threadSubject)
	if outputFmt == "json" {
		return output.JSONTo(cmd.OutOrStdout(), res)
	}

	if res.Message == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Empty message.")
		return nil
	}
	return output.OutputTo(cmd.OutOrStdout(), outputFmt, res.Message)
}
