package config

import "fmt"

// Config represents the application configuration
type Config struct {
	Gmail    GmailConfig    `toml:"gmail"`
	Database DatabaseConfig `toml:"database"`
	Parser   ParserConfig   `toml:"parser"`
	Filters  FilterConfig   `toml:"filters"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
	MCP      MCPConfig      `toml:"mcp"`
}

// GmailConfig contains Gmail-specific settings
type GmailConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`
	MaxResults      int    `toml:"max_results"`
	Query           string `toml:"query"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ParserConfig tunes the email decomposition heuristics
type ParserConfig struct {
	CacheSize             int `toml:"cache_size"`
	MaxInputBytes         int `toml:"max_input_bytes"`
	HeaderScanLines       int `toml:"header_scan_lines"`
	ThreadHeaderScanLines int `toml:"thread_header_scan_lines"`
	LongParagraph         int `toml:"long_paragraph"`
	ParagraphChunk        int `toml:"paragraph_chunk"`
}

// FilterConfig decides which fetched messages are stored. Sender patterns are
// a domain, a full address, or a local-part prefix such as "noreply@".
type FilterConfig struct {
	DomainWhitelist  []string `toml:"domain_whitelist"`
	DomainBlacklist  []string `toml:"domain_blacklist"`
	SubjectBlacklist []string `toml:"subject_blacklist"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Enabled   bool   `toml:"enabled"`
	Transport string `toml:"transport"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Gmail: GmailConfig{
			CredentialsPath: "~/.config/mailsplit/credentials.json",
			TokenPath:       "~/.config/mailsplit/token.json",
			MaxResults:      100,
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/mailsplit/mailsplit.db",
		},
		Parser: ParserConfig{
			CacheSize:             100,
			MaxInputBytes:         1 << 20,
			HeaderScanLines:       20,
			ThreadHeaderScanLines: 30,
			LongParagraph:         500,
			ParagraphChunk:        300,
		},
		Filters: FilterConfig{
			DomainWhitelist: []string{},
			DomainBlacklist: []string{
				"noreply@",
				"no-reply@",
				"mailer-daemon@",
				"postmaster@",
			},
			SubjectBlacklist: []string{
				"automatic reply",
				"out of office",
				"undeliverable",
				"delivery status notification",
				"mail delivery failed",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "stdio",
		},
	}
}
