package cmd

import (
	"fmt"

	"mcpconnect/internal/demoserver"
	"mcpconnect/pkg/logging"

	"github.com/spf13/cobra"
)

// demoAddr is the listen address of the demo MCP server.
var demoAddr string

// demoCmd runs the local demo MCP server.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local demo MCP server",
	Long: `Runs a local MCP server over streamable HTTP exposing two toy tools,
say_hello and count_characters, so the connector can be tried end to end
without a remote deployment.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.LevelInfo, cmd.OutOrStdout())

		srv := demoserver.New(demoAddr)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("demo server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoAddr, "addr", ":3000", "Address for the demo MCP server to listen on")
}
