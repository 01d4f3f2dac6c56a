package main

import "github.com/spf13/cobra"

// buildChatCmd creates the "chat" command: a one-shot user turn against
// an instance's live agent, printed to stdout once the turn completes.
func buildChatCmd() *cobra.Command {
	var instanceID string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message to an instance and print its reply",
		Args:  cobra.ExactArgs(1),
		Example: `  ownaid chat --instance <id> "what's on my calendar today?"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, instanceID, args[0])
		},
	}

	cmd.Flags().StringVarP(&instanceID, "instance", "i", "", "Instance id (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("instance"))

	return cmd
}
