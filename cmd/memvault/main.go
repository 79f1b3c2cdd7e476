// memvault: MCP memory server with token-budgeted retrieval.
//
// Stores notes, decisions, snippets and other coding knowledge in SQLite and
// serves them back over MCP, optionally condensed by an LLM to fit a token
// budget.
//
// Usage:
//
//	memvault serve             # Start MCP server (stdio transport)
//	memvault optimize mem-001  # Print a memory condensed to a budget
//	memvault ping              # Check LLM and GitHub credentials
//	memvault update            # Check for a newer release
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/HendryAvila/memvault/internal/config"
	mvserver "github.com/HendryAvila/memvault/internal/server"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "memvault",
		Short:         "memvault: MCP memory server with token-budgeted retrieval",
		Version:       mvserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML or TOML config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")

	root.AddCommand(
		newServeCmd(flags),
		newOptimizeCmd(flags),
		newPingCmd(flags),
		newUpdateCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves the configuration and builds a logger on stderr.
// stdout is reserved for MCP JSON-RPC traffic and command output.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Resolve(flags.configPath, flags.envFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the memvault version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "memvault v%s\n", mvserver.Version)
		},
	}
}
