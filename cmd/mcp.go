package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/adapters/mcp"
	"github.com/xvierd/tally/internal/config"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server talks over stdio and exposes tools for tasks, the session ledger
and reports. Edits to the config file are picked up while it runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !app.config.MCP.Enabled {
			return fmt.Errorf("the MCP server is disabled; set mcp.enabled = true in %s", app.configPath)
		}

		ctx, cancel := setupSignalHandler()
		defer cancel()

		// stdout carries the protocol, so reloads only log.
		err := config.Watch(app.configPath, func(cfg *config.Config) {
			settings, err := reportSettings(cfg.Reports)
			if err != nil {
				app.logger.Warn("ignoring reports config", "error", err)
				return
			}
			app.tracker.SetReportSettings(settings)
			app.logger.Info("reloaded reports config", "path", app.configPath)
		}, func(err error) {
			app.logger.Warn("config reload failed", "path", app.configPath, "error", err)
		})
		if err != nil {
			app.logger.Warn("config watch disabled", "error", err)
		}

		server := mcp.NewServer(app.tracker, app.logger)
		defer server.Stop()
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
