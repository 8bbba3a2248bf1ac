package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/mailsplit/internal/config"
	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/logging"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

// env holds what most commands need: config, logger and a parser
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	parser *mailparse.Parser
}

// loadEnv loads the config (defaults when the file is missing) and builds
// the logger and parser from it
func loadEnv() (*env, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return newEnv(cfg)
}

func newEnv(cfg *config.Config) (*env, error) {
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, parser: newParser(cfg.Parser, logger)}, nil
}

// newParser builds a parser with its own cache from parser settings
func newParser(pc config.ParserConfig, logger zerolog.Logger) *mailparse.Parser {
	return mailparse.NewParser(
		mailparse.WithCache(mailparse.NewCache[mailparse.Result](pc.CacheSize)),
		mailparse.WithLogger(logger),
		mailparse.WithOptions(mailparse.Options{
			MaxInputBytes:         pc.MaxInputBytes,
			HeaderScanLines:       pc.HeaderScanLines,
			ThreadHeaderScanLines: pc.ThreadHeaderScanLines,
			LongParagraph:         pc.LongParagraph,
			ParagraphChunk:        pc.ParagraphChunk,
		}),
	)
}

// openDB opens the activity store, creating its directory first
func (e *env) openDB() (*database.DB, error) {
	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	db, err := database.Open(e.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// readInput reads the text to parse from a file, or stdin for "-" or no
// argument
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
