package cmd

import (
	"context"
	"fmt"

	"mcpconnect/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveHost overrides the configured bind address.
var serveHost string

// servePort overrides the configured port.
var servePort int

// serveConfigPath specifies a custom configuration directory path.
// The directory should contain config.yaml.
var serveConfigPath string

// serveCmd starts the connector HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mcpconnect HTTP API server",
	Long: `Starts the HTTP API that client applications use to establish and drive
authenticated MCP sessions.

The server exposes session endpoints under /api/mcp/ and serves the OAuth
redirect page that relays authorization codes back to the opener window.

Configuration:
  mcpconnect loads config.yaml from the user config directory by default.
  Use --config-path to load it from a different directory instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveDebug, serveHost, servePort, serveConfigPath)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
}
