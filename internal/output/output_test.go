package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/ingest"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

func TestOutputToJSON(t *testing.T) {
	var buf bytes.Buffer
	msg := &mailparse.ParsedMessage{Subject: "Hello", To: []string{}, Cc: []string{}}

	require.NoError(t, OutputTo(&buf, "json", msg))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Hello", decoded["subject"])
}

func TestOutputToUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, OutputTo(&buf, "yaml", Paragraphs{"a"}))
}

func TestTableUnsupported(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, TableTo(&buf, 42))
}

func TestActivitiesTable(t *testing.T) {
	subject := "Lease renewal"
	var buf bytes.Buffer
	err := TableTo(&buf, []database.Activity{{
		ID:         "a1",
		Source:     database.SourceEML,
		Subject:    &subject,
		ReceivedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "Lease renewal")
	assert.Contains(t, out, "Jan 05, 2024")
}

func TestActivitiesTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableTo(&buf, []database.Activity{}))
	assert.Equal(t, "No activities found.\n", buf.String())
}

func TestMessageDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableTo(&buf, &mailparse.ParsedMessage{
		Subject:     "Fwd: Offer",
		From:        "jane@acme.com",
		To:          []string{"a@x.com", "b@x.com"},
		Body:        "See below.",
		IsForwarded: true,
	}))

	out := buf.String()
	assert.Contains(t, out, "Subject:     Fwd: Offer\n")
	assert.Contains(t, out, "To:          a@x.com, b@x.com\n")
	assert.Contains(t, out, "Forwarded:   yes\n")
	assert.Contains(t, out, "\nBody:\nSee below.\n")
	assert.NotContains(t, out, "Signature:")
}

func TestThreadDetail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableTo(&buf, &mailparse.ProfessionalParsedMessage{
		Metadata: mailparse.Metadata{IsReply: true, HasQuotedText: true},
		Content: mailparse.Content{EmailThread: []mailparse.ThreadedMessage{
			{Content: "Sounds good.", Type: mailparse.ThreadCurrent},
			{Content: "Can we meet?", Type: mailparse.ThreadQuoted, Level: 1, Headers: mailparse.ThreadHeaders{From: "Bob"}},
		}},
	}))

	out := buf.String()
	assert.Contains(t, out, "Thread: (no subject)")
	assert.Contains(t, out, "Flags:       reply\n")
	assert.Contains(t, out, "Messages:    2\n")
	assert.Contains(t, out, "  --- Quoted #1 ---\n  From: Bob\n  Can we meet?\n")
}

func TestBlocks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableTo(&buf, SignatureBlocks{"Jane Doe - Broker", "555-123-4567"}))
	assert.Equal(t, "Jane Doe - Broker\n\n555-123-4567\n", buf.String())

	buf.Reset()
	require.NoError(t, TableTo(&buf, Paragraphs(nil)))
	assert.Equal(t, "No paragraphs.\n", buf.String())
}

func TestIngestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableTo(&buf, &ingest.Result{Found: 3, Imported: 1, Skipped: 1, Failed: 1, FailedItems: []string{"bad.eml"}}))
	assert.Contains(t, buf.String(), "Failed:      1\n  bad.eml\n")
	assert.NotContains(t, buf.String(), "Filtered:")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestAnalysisDetail(t *testing.T) {
	var buf bytes.Buffer
	err := TableTo(&buf, mailparse.Analysis{
		Message:         &mailparse.ParsedMessage{Subject: "Tour", Body: "See you at 3.", To: []string{}, Cc: []string{}},
		Outcome:         mailparse.OutcomeParsed,
		Paragraphs:      []string{"See you at 3."},
		SignatureBlocks: []string{"Jane Doe\nBroker"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Subject:     Tour")
	assert.Contains(t, out, "[1] See you at 3.")
	assert.Contains(t, out, "  Jane Doe\n  Broker")
	assert.NotContains(t, out, "parse failed")

	buf.Reset()
	require.NoError(t, TableTo(&buf, mailparse.Analysis{Outcome: mailparse.OutcomeEmpty}))
	assert.Equal(t, "Empty message.\n", buf.String())
}

func TestStatsTable(t *testing.T) {
	var buf bytes.Buffer
	synced := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := TableTo(&buf, &database.Stats{
		TotalActivities: 3,
		Sources: []database.SourceStats{
			{Source: database.SourceEML, Activities: 1},
			{Source: database.SourceGmail, Activities: 2, LastSyncAt: &synced},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "eml")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "Total: 3 activities")

	buf.Reset()
	require.NoError(t, TableTo(&buf, &database.Stats{}))
	assert.Equal(t, "No activities stored.\n", buf.String())
}
