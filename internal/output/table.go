package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/ingest"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

// Paragraphs is a list of display paragraphs
type Paragraphs []string

// SignatureBlocks is a list of signature display blocks
type SignatureBlocks []string

// TableTo writes data as human-readable text to the given writer
func TableTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case []database.Activity:
		return activitiesTable(w, v)
	case *database.Activity:
		return activityDetail(w, v)
	case *mailparse.ParsedMessage:
		return messageDetail(w, v)
	case mailparse.Analysis:
		return analysisDetail(w, v)
	case *mailparse.ProfessionalParsedMessage:
		return threadDetail(w, v)
	case Paragraphs:
		return blocks(w, []string(v), "No paragraphs.")
	case SignatureBlocks:
		return blocks(w, []string(v), "No signature.")
	case *ingest.Result:
		return ingestSummary(w, v)
	case *database.Stats:
		return statsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func activitiesTable(w io.Writer, activities []database.Activity) error {
	if len(activities) == 0 {
		fmt.Fprintln(w, "No activities found.")
		return nil
	}

	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []string{
			a.ID,
			string(a.Source),
			truncate(a.SenderOrEmpty(), 30),
			truncate(a.SubjectOrEmpty(), 40),
			a.ReceivedAt.Format("Jan 02, 2006"),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "SOURCE", "SENDER", "SUBJECT", "RECEIVED")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func activityDetail(w io.Writer, a *database.Activity) error {
	// messages read straight from a provider are not stored yet
	if a.ID != "" {
		fmt.Fprintf(w, "ID:          %s\n", a.ID)
	}
	fmt.Fprintf(w, "Source:      %s (%s)\n", a.Source, a.ExternalID)
	if s := a.SenderOrEmpty(); s != "" {
		fmt.Fprintf(w, "Sender:      %s\n", s)
	}
	if s := a.SubjectOrEmpty(); s != "" {
		fmt.Fprintf(w, "Subject:     %s\n", s)
	}
	fmt.Fprintf(w, "Received:    %s\n", a.ReceivedAt.Format("Jan 02, 2006 15:04"))
	return nil
}

func messageDetail(w io.Writer, m *mailparse.ParsedMessage) error {
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-13s%s\n", label+":", value)
		}
	}
	field("Subject", m.Subject)
	field("From", m.From)
	field("To", strings.Join(m.To, ", "))
	field("Cc", strings.Join(m.Cc, ", "))
	field("Date", m.Date)
	if m.IsForwarded {
		field("Forwarded", "yes")
		field("Fwd from", m.ForwardedFrom)
	}

	section(w, "Body", m.Body)
	section(w, "Signature", m.Signature)
	section(w, "Original message", m.OriginalMessage)
	return nil
}

func threadDetail(w io.Writer, m *mailparse.ProfessionalParsedMessage) error {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	subject := m.Headers.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	fmt.Fprintf(w, "Thread: %s\n", subject)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	var flags []string
	if m.Metadata.IsReply {
		flags = append(flags, "reply")
	}
	if m.Metadata.IsForward {
		flags = append(flags, "forward")
	}
	if m.Metadata.HasSignature {
		flags = append(flags, "signature")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "Flags:       %s\n", strings.Join(flags, ", "))
	}
	fmt.Fprintf(w, "Messages:    %d\n", len(m.Content.EmailThread))

	for _, t := range m.Content.EmailThread {
		fmt.Fprintln(w)
		indent := strings.Repeat("  ", t.Level)
		label := "Current"
		if t.Type == mailparse.ThreadQuoted {
			label = fmt.Sprintf("Quoted #%d", t.Level)
		}
		fmt.Fprintf(w, "%s--- %s ---\n", indent, label)
		if t.Headers.From != "" {
			fmt.Fprintf(w, "%sFrom: %s\n", indent, t.Headers.From)
		}
		if t.Headers.Date != "" {
			fmt.Fprintf(w, "%sDate: %s\n", indent, t.Headers.Date)
		}
		for _, line := range strings.Split(t.Content, "\n") {
			fmt.Fprintf(w, "%s%s\n", indent, line)
		}
		if t.Signature != "" {
			fmt.Fprintf(w, "%s[signature]\n", indent)
		}
	}
	return nil
}

func blocks(w io.Writer, items []string, empty string) error {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, item)
	}
	return nil
}

func ingestSummary(w io.Writer, r *ingest.Result) error {
	fmt.Fprintf(w, "Found:       %d\n", r.Found)
	fmt.Fprintf(w, "Imported:    %d\n", r.Imported)
	fmt.Fprintf(w, "Skipped:     %d\n", r.Skipped)
	if r.Filtered > 0 {
		fmt.Fprintf(w, "Filtered:    %d\n", r.Filtered)
	}
	if r.Failed > 0 {
		fmt.Fprintf(w, "Failed:      %d\n", r.Failed)
		for _, item := range r.FailedItems {
			fmt.Fprintf(w, "  %s\n", item)
		}
	}
	return nil
}

// analysisDetail prints the message, then its paragraphs and signature
// blocks when they were requested
func analysisDetail(w io.Writer, a mailparse.Analysis) error {
	if a.Message == nil {
		fmt.Fprintln(w, "Empty message.")
		return nil
	}
	if err := messageDetail(w, a.Message); err != nil {
		return err
	}
	if len(a.Paragraphs) > 0 {
		fmt.Fprintln(w, "\nParagraphs:")
		for i, p := range a.Paragraphs {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, p)
		}
	}
	if len(a.SignatureBlocks) > 0 {
		fmt.Fprintln(w, "\nSignature blocks:")
		for _, b := range a.SignatureBlocks {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(b, "\n", "\n  "))
		}
	}
	if a.Outcome == mailparse.OutcomeFallback {
		fmt.Fprintln(w, "\n(parse failed, showing raw text)")
	}
	return nil
}

func statsTable(w io.Writer, s *database.Stats) error {
	if len(s.Sources) == 0 {
		fmt.Fprintln(w, "No activities stored.")
		return nil
	}

	rows := make([][]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		last := "never"
		if src.LastSyncAt != nil {
			last = src.LastSyncAt.Local().Format("Jan 02, 2006 15:04")
		}
		rows = append(rows, []string{string(src.Source), fmt.Sprint(src.Activities), last})
	}

	table := tablewriter.NewWriter(w)
	table.Header("SOURCE", "ACTIVITIES", "LAST SYNC")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total: %d activities\n", s.TotalActivities)
	return nil
}

func section(w io.Writer, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(w, "\n%s:\n%s\n", title, body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
