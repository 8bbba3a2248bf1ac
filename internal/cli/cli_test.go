package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/ingest"
)

// runCLI executes the root command with a temporary config file and returns
// stdout
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "mailsplit.db")
	cfg.Gmail.TokenPath = filepath.Join(dir, "token.json")
	cfg.Logging.Level = "error"
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.Save(cfgPath))

	resetFlags(t)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags puts every flag back to its default. Flag values otherwise
// persist between executions of the shared command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
		for _, sub := range c.Commands() {
			sub.Flags().VisitAll(reset)
		}
	}
}

const sampleEmail = `From: Jane Doe <jane@acme-realty.com>
To: bob@example.com
Subject: 120 Main St tour

Hi Bob,

The tour is confirmed for Tuesday at 10am.

Best regards,
Jane Doe
Broker
`

func TestParseCommand(t *testing.T) {
	out, err := runCLI(t, sampleEmail, "parse", "--paragraphs", "--signature-blocks", "-o", "json")
	require.NoError(t, err)

	var decoded struct {
		Message struct {
			Subject   string `json:"subject"`
			Signature string `json:"signature"`
		} `json:"message"`
		Outcome         string   `json:"outcome"`
		Paragraphs      []string `json:"paragraphs"`
		SignatureBlocks []string `json:"signature_blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "120 Main St tour", decoded.Message.Subject)
	assert.Equal(t, "parsed", decoded.Outcome)
	assert.Contains(t, decoded.Message.Signature, "Jane Doe")
	assert.NotEmpty(t, decoded.Paragraphs)
	assert.NotEmpty(t, decoded.SignatureBlocks)
}

func TestParseCommandFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleEmail), 0644))

	out, err := runCLI(t, "", "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Subject:     120 Main St tour")

	_, err = runCLI(t, "", "parse", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestThreadCommand(t *testing.T) {
	out, err := runCLI(t, "Sounds good.\n", "thread", "--subject", "Re: Lease", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"subject": "Re: Lease"`)
	assert.Contains(t, out, `"outcome": "parsed"`)

	out, err = runCLI(t, "  \n", "thread")
	require.NoError(t, err)
	assert.Equal(t, "Empty message.\n", out)
}

func TestSignatureCommand(t *testing.T) {
	out, err := runCLI(t, "Best regards,\nJane Doe\nBroker\n", "signature", "-o", "json")
	require.NoError(t, err)

	var blocks []string
	require.NoError(t, json.Unmarshal([]byte(out), &blocks))
	assert.Equal(t, []string{"Best regards,\nJane Doe\nBroker"}, blocks)
}

func TestParagraphsCommandEmpty(t *testing.T) {
	out, err := runCLI(t, "", "paragraphs", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestImportListShow(t *testing.T) {
	dir := t.TempDir()
	msg := "Message-ID: <abc@example.com>\r\nFrom: Jane Doe <jane@example.com>\r\n" +
		"Subject: Offer on 12 Elm\r\nDate: Mon, 02 Jan 2006 15:04:05 -0700\r\n" +
		"Content-Type: text/plain\r\n\r\nWe accept the offer.\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offer.eml"), []byte(msg), 0644))

	// the store lives in the temp config of one run, so chain the commands
	// through a shared config
	cfgDir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(cfgDir, "mailsplit.db")
	cfg.Gmail.TokenPath = filepath.Join(cfgDir, "token.json")
	cfg.Logging.Level = "error"
	cfgPath := filepath.Join(cfgDir, "config.toml")
	require.NoError(t, cfg.Save(cfgPath))

	run := func(args ...string) string {
		t.Helper()
		resetFlags(t)
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	var result ingest.Result
	require.NoError(t, json.Unmarshal([]byte(run("import", dir, "-o", "json")), &result))
	assert.Equal(t, 1, result.Imported)

	var listed []struct {
		ID      string `json:"id"`
		Subject string `json:"subject"`
	}
	require.NoError(t, json.Unmarshal([]byte(run("list", "-o", "json")), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Offer on 12 Elm", listed[0].Subject)

	shown := run("show", listed[0].ID, "-o", "table")
	assert.Contains(t, shown, "We accept the offer.")

	exported := run("export", "--format", "csv")
	assert.Contains(t, exported, "id,source,external_id")
	assert.Contains(t, exported, listed[0].ID)

	assert.Equal(t, "Deleted activity "+listed[0].ID+"\n", run("delete", listed[0].ID))
	assert.Equal(t, "[]\n", run("list", "-o", "json"))
}

func TestDefaultConfigMatchesDefaults(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, toml.Unmarshal([]byte(defaultConfig), cfg))
	assert.Equal(t, config.Default(), cfg)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"1m", 30 * 24 * time.Hour, false},
		{"5y", 0, true},
		{"d", 0, true},
		{"xd", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSource(t *testing.T) {
	src, err := parseSource("EML")
	require.NoError(t, err)
	assert.Equal(t, "eml", string(src))

	_, err = parseSource("imap")
	assert.Error(t, err)
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "", FormatETA(0))
	assert.Equal(t, "45s", FormatETA(45*time.Second))
	assert.Equal(t, "2m", FormatETA(2*time.Minute))
	assert.Equal(t, "2m5s", FormatETA(125*time.Second))
	assert.Equal(t, "1h30m", FormatETA(90*time.Minute))
}

func TestProgressMessage(t *testing.T) {
	assert.Equal(t, " Scanning for message files...",
		progressMessage(ingest.Progress{Phase: ingest.PhaseScanning, Description: "Scanning for message files"}, ""))
	assert.Equal(t, "Importing message files: 5/10 (50%)",
		progressMessage(ingest.Progress{Phase: ingest.PhaseStoring, Current: 5, Total: 10, Description: "Importing message files"}, ""))
}
