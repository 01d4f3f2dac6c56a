package main

import "github.com/spf13/cobra"

// buildServeCmd creates the "serve" command that starts the scheduler and
// blocks until a shutdown signal is received.
func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler and keep every instance's cron tasks firing",
		Long: `Start the ownai daemon.

This loads every enabled scheduled task across every instance, registers
it with the cron engine, and blocks until SIGINT/SIGTERM, firing tasks on
their configured schedule as ephemeral agent turns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
