package main

import (
	"fmt"

	mvserver "github.com/HendryAvila/memvault/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			s, cleanup, err := mvserver.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			logger.Info("serving MCP on stdio", "version", mvserver.Version, "data_dir", cfg.Memory.DataDir)

			// ServeStdio handles SIGINT and SIGTERM itself.
			return server.ServeStdio(s)
		},
	}
}
