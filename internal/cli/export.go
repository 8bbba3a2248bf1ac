package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export parsed activities to CSV or JSON",
	Long: `Parse stored activities and export the results.

Supported formats:
  - csv: Comma-separated values (spreadsheet-compatible)
  - json: JSON array of parsed activity objects

Examples:
  mailsplit export --format=csv > activities.csv
  mailsplit export --format=json --source=eml > eml.json`,
	RunE: runExport,
}

var (
	exportFormat string
	exportSource string
	exportLimit  int
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format (csv, json)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "Only export this source (gmail, eml, manual)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Maximum number of activities (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format: %s (use csv or json)", exportFormat)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	opts := database.ListOptions{Limit: exportLimit}
	if exportSource != "" {
		src, err := parseSource(exportSource)
		if err != nil {
			return err
		}
		opts.Source = &src
	}

	activities, err := db.ListActivities(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	rows := make([]ExportRow, len(activities))
	for i := range activities {
		rows[i] = toExportRow(&activities[i], e.parser.ParseResult(activities[i].RawBody))
	}

	if exportFormat == "json" {
		return exportJSON(cmd.OutOrStdout(), rows)
	}
	return exportCSV(cmd.OutOrStdout(), rows)
}

// ExportRow is one stored activity with its parse result flattened
type ExportRow struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	ExternalID    string `json:"external_id"`
	ReceivedAt    string `json:"received_at"`
	Outcome       string `json:"outcome"`
	Subject       string `json:"subject"`
	From          string `json:"from"`
	To            string `json:"to"`
	Cc            string `json:"cc"`
	Date          string `json:"date"`
	IsForwarded   bool   `json:"is_forwarded"`
	ForwardedFrom string `json:"forwarded_from"`
	Body          string `json:"body"`
	Signature     string `json:"signature"`
}

func toExportRow(a *database.Activity, res mailparse.Result) ExportRow {
	row := ExportRow{
		ID:         a.ID,
		Source:     string(a.Source),
		ExternalID: a.ExternalID,
		ReceivedAt: a.ReceivedAt.Format(time.RFC3339),
		Outcome:    res.Outcome.String(),
		Subject:    a.SubjectOrEmpty(),
		From:       a.SenderOrEmpty(),
	}

	m := res.Message
	if m == nil {
		return row
	}
	// parsed headers win over the stored ones
	if m.Subject != "" {
		row.Subject = m.Subject
	}
	if m.From != "" {
		row.From = m.From
	}
	row.To = strings.Join(m.To, ", ")
	row.Cc = strings.Join(m.Cc, ", ")
	row.Date = m.Date
	row.IsForwarded = m.IsForwarded
	row.ForwardedFrom = m.ForwardedFrom
	row.Body = m.Body
	row.Signature = m.Signature
	return row
}

func exportCSV(out io.Writer, rows []ExportRow) error {
	w := csv.NewWriter(out)

	// Write header
	header := []string{
		"id", "source", "external_id", "received_at", "outcome", "subject",
		"from", "to", "cc", "date", "is_forwarded", "forwarded_from",
		"body", "signature",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write rows
	for _, row := range rows {
		record := []string{
			row.ID,
			row.Source,
			row.ExternalID,
			row.ReceivedAt,
			row.Outcome,
			row.Subject,
			row.From,
			row.To,
			row.Cc,
			row.Date,
			fmt.Sprintf("%t", row.IsForwarded),
			row.ForwardedFrom,
			row.Body,
			row.Signature,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(out io.Writer, rows []ExportRow) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
