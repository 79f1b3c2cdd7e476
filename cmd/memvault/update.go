package main

import (
	"fmt"

	"github.com/HendryAvila/memvault/internal/ghapi"
	mvserver "github.com/HendryAvila/memvault/internal/server"
	"github.com/spf13/cobra"
)

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer memvault release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			client := ghapi.New(ghapi.Config{
				Token:     cfg.GitHub.Token,
				BaseURL:   cfg.GitHub.BaseURL,
				UserAgent: "memvault/" + mvserver.Version,
			})

			w := cmd.OutOrStdout()
			result := client.CheckVersion(cmd.Context(), mvserver.Version)
			switch {
			case result.LatestVersion == "":
				fmt.Fprintf(w, "Could not determine the latest release (running v%s)\n", result.CurrentVersion)
			case result.UpdateAvailable:
				fmt.Fprintf(w, "New version available: v%s -> v%s\n", result.CurrentVersion, result.LatestVersion)
				fmt.Fprintf(w, "Release: %s\n", result.ReleaseURL)
			default:
				fmt.Fprintf(w, "Already at the latest version (v%s)\n", result.CurrentVersion)
			}
			return nil
		},
	}
}
