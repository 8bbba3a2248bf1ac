package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Extract headers, body and signature from an email",
	Long: `Parse raw email text with the fast extractor. It reports the
headers, forward status, visible body, signature and forwarded original.

Reads from stdin when no file is given.

Examples:
  mailsplit parse message.txt
  pbpaste | mailsplit parse --paragraphs
  mailsplit parse message.txt --signature-blocks -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var (
	parseParagraphs      bool
	parseSignatureBlocks bool
)

var paragraphsCmd = &cobra.Command{
	Use:   "paragraphs [file|-]",
	Short: "Split email body text into display paragraphs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParagraphs,
}

var signatureCmd = &cobra.Command{
	Use:   "signature [file|-]",
	Short: "Group a raw signature into display blocks",
	Long: `Group the lines of a raw email signature into display blocks:
closing, name and title, contact lines, address and legal text.

Examples:
  mailsplit signature sig.txt
  echo "Best,\nJane Doe\nBroker\nM: 555-123-4567" | mailsplit signature`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSignature,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(paragraphsCmd)
	rootCmd.AddCommand(signatureCmd)

	parseCmd.Flags().BoolVar(&parseParagraphs, "paragraphs", false, "Also split the body into display paragraphs")
	parseCmd.Flags().BoolVar(&parseSignatureBlocks, "signature-blocks", false, "Also group the signature into display blocks")
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	analysis := e.parser.Analyze(text, parseParagraphs, parseSignatureBlocks)
	return output.OutputTo(cmd.OutOrStdout(), outputFmt, analysis)
}

func runParagraphs(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	paras := output.Paragraphs(slices.Collect(e.parser.Paragraphs(text)))
	if paras == nil {
		paras = output.Paragraphs{}
	}
	return output.OutputTo(cmd.OutOrStdout(), outputFmt, paras)
}

func runSignature(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	blocks := mailparse.FormatSignature(text)
	return output.OutputTo(cmd.OutOrStdout(), outputFmt, output.SignatureBlocks(blocks))
}
