package main

import "github.com/spf13/cobra"

// buildScheduleCmd creates the "schedule" command group for inspecting
// scheduled tasks outside of a running "serve" process.
func buildScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect scheduled tasks",
	}
	cmd.AddCommand(buildScheduleListCmd())
	return cmd
}

func buildScheduleListCmd() *cobra.Command {
	var instanceID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled tasks for an instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduleList(cmd, instanceID)
		},
	}
	cmd.Flags().StringVarP(&instanceID, "instance", "i", "", "Instance id (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("instance"))
	return cmd
}
