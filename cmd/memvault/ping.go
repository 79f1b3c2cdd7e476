package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HendryAvila/memvault/internal/llm"
	mvserver "github.com/HendryAvila/memvault/internal/server"
	"github.com/spf13/cobra"
)

const pingTimeout = 15 * time.Second

func newPingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the LLM provider and GitHub",
		Args:  cobra.NoArgs,
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

			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()

			w := cmd.OutOrStdout()
			var failed bool

			if reply, err := llm.Ping(ctx, app.Optimizer.Completer()); err != nil {
				failed = true
				fmt.Fprintf(w, "llm:    error: %v\n", err)
			} else {
				fmt.Fprintf(w, "llm:    ok (%s)\n", reply)
			}

			if login, err := app.GitHub.Ping(ctx); err != nil {
				failed = true
				fmt.Fprintf(w, "github: error: %v\n", err)
			} else {
				fmt.Fprintf(w, "github: ok (%s)\n", login)
			}

			if failed {
				return errors.New("one or more APIs are unreachable")
			}
			return nil
		},
	}
}
