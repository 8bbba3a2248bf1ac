package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// DefaultPath is where the config file lives unless --config says otherwise
const DefaultPath = "~/.config/mailsplit/config.toml"

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'mailsplit config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Parse TOML on top of the defaults
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the config at path, or returns the defaults when the
// file does not exist. Parsing works without any config file.
func LoadOrDefault(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	if _, err := os.Stat(expandedPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := cfg.expandPaths(); err != nil {
			return nil, fmt.Errorf("failed to expand paths: %w", err)
		}
		return cfg, nil
	}

	return Load(path)
}

// Save writes the config as TOML
func (c *Config) Save(path string) error {
	expandedPath, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// ExpandPath expands ~ to the home directory
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Gmail.CredentialsPath, err = expandPath(c.Gmail.CredentialsPath)
	if err != nil {
		return err
	}

	c.Gmail.TokenPath, err = expandPath(c.Gmail.TokenPath)
	if err != nil {
		return err
	}

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Gmail validation
	if c.Gmail.CredentialsPath == "" {
		errs = append(errs, errors.New("gmail.credentials_path is required"))
	}
	if c.Gmail.TokenPath == "" {
		errs = append(errs, errors.New("gmail.token_path is required"))
	}
	if c.Gmail.MaxResults < 1 || c.Gmail.MaxResults > 5000 {
		errs = append(errs, errors.New("gmail.max_results must be between 1 and 5000"))
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	// Parser validation
	if c.Parser.CacheSize < 1 {
		errs = append(errs, errors.New("parser.cache_size must be at least 1"))
	}
	if c.Parser.MaxInputBytes < 0 {
		errs = append(errs, errors.New("parser.max_input_bytes must not be negative"))
	}
	if c.Parser.HeaderScanLines < 1 {
		errs = append(errs, errors.New("parser.header_scan_lines must be at least 1"))
	}
	if c.Parser.ThreadHeaderScanLines < 1 {
		errs = append(errs, errors.New("parser.thread_header_scan_lines must be at least 1"))
	}
	if c.Parser.ParagraphChunk < 1 || c.Parser.ParagraphChunk > c.Parser.LongParagraph {
		errs = append(errs, errors.New("parser.paragraph_chunk must be between 1 and parser.long_paragraph"))
	}

	// Filter validation
	for name, patterns := range map[string][]string{
		"filters.domain_whitelist":  c.Filters.DomainWhitelist,
		"filters.domain_blacklist":  c.Filters.DomainBlacklist,
		"filters.subject_blacklist": c.Filters.SubjectBlacklist,
	} {
		if slices.Contains(patterns, "") {
			errs = append(errs, fmt.Errorf("%s must not contain empty entries", name))
		}
	}

	// Logging validation
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level '%s' is not a valid level", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got '%s'", c.Logging.Format))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port must be between 1 and 65535"))
	}

	// MCP validation
	if c.MCP.Transport != "stdio" {
		errs = append(errs, fmt.Errorf("mcp.transport must be 'stdio', got '%s'", c.MCP.Transport))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for database and token
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Gmail.TokenPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
