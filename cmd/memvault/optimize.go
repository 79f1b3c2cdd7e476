package main

import (
	"encoding/json"
	"errors"
	"fmt"

	mvserver "github.com/HendryAvila/memvault/internal/server"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(flags *globalFlags) *cobra.Command {
	var (
		maxTokens int
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "optimize <memory-id>",
		Short: "Print a memory condensed to a token budget as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			app, err := mvserver.NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			resp := app.Recall.GetOptimized(cmd.Context(), args[0], maxTokens, !noCache)

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !resp.Success {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "token budget (default: optimizer.default_max_tokens)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the optimization cache")
	return cmd
}
