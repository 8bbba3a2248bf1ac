package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailsplit/internal/api"
	"github.com/vijay-prabhu/mailsplit/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio transport)",
	Long: `Start the MCP (Model Context Protocol) server using stdio transport.

This lets AI assistants parse email text and read stored activities.

Add to an MCP client config:

{
  "mcpServers": {
    "mailsplit": {
      "command": "/path/to/mailsplit",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API that serves parse operations and stored
activities as JSON.

Examples:
  mailsplit serve
  mailsplit serve --addr 0.0.0.0:9000`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from [server] config)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	// Check if MCP is enabled
	if !e.cfg.MCP.Enabled {
		return errors.New("MCP server is disabled in config")
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	server := mcp.New(db, e.parser, e.logger)

	// Handle interrupt
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	addr := serveAddr
	if addr == "" {
		addr = e.cfg.Server.Addr()
	}

	server := api.New(db, e.parser, e.logger)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
