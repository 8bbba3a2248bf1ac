package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective configuration: the config file merged
over the built-in defaults.`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile, err := config.ExpandPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}
	configDir := filepath.Dir(configFile)

	// Create directories
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := cmd.OutOrStdout()

	// Check if config already exists
	if _, err := os.Stat(configFile); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configFile)
		fmt.Fprintln(out, "Use 'mailsplit config show' to view current configuration")
		return nil
	}

	// Write default config
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Parse something: mailsplit parse message.txt")
	fmt.Fprintln(out, "  2. Import exported mail: mailsplit import ~/Mail/export")
	fmt.Fprintf(out, "  3. For Gmail sync, save credentials.json to %s/ and run 'mailsplit sync'\n", configDir)

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFmt == "json" {
		return output.JSONTo(out, cfg)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Fprintf(out, "# Config file: %s\n\n", configPath)
	fmt.Fprint(out, string(data))
	return nil
}

const defaultConfig = `# mailsplit configuration

[gmail]
credentials_path = "~/.config/mailsplit/credentials.json"
token_path = "~/.config/mailsplit/token.json"
max_results = 100  # emails per sync
query = ""         # extra Gmail search terms, e.g. "label:clients"

[database]
path = "~/.local/share/mailsplit/mailsplit.db"

[parser]
cache_size = 100                # parsed messages kept in memory
max_input_bytes = 1048576       # larger inputs get the raw-text fallback
header_scan_lines = 20
thread_header_scan_lines = 30
long_paragraph = 500            # paragraphs longer than this are split
paragraph_chunk = 300           # target size of split chunks

[filters]
# Senders always stored, even when another rule matches
domain_whitelist = []

# Senders never stored
domain_blacklist = [
    "noreply@",
    "no-reply@",
    "mailer-daemon@",
    "postmaster@"
]

# Subjects never stored (case-insensitive substring)
subject_blacklist = [
    "automatic reply",
    "out of office",
    "undeliverable",
    "delivery status notification",
    "mail delivery failed"
]

[logging]
level = "info"
format = "console"  # console or json

[server]
host = "127.0.0.1"
port = 8787

[mcp]
enabled = true
transport = "stdio"
`
