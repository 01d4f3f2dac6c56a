package main

import "github.com/spf13/cobra"

// buildInstanceCmd creates the "instance" command group for managing
// agent instances (the AIInstance registry, §4.R).
func buildInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Manage agent instances",
		Long: `Create, list, and delete agent instances.

Each instance owns its own provider, model, system prompt, memory store,
and workspace, addressed by a generated id.`,
	}

	cmd.AddCommand(buildInstanceCreateCmd(), buildInstanceListCmd(), buildInstanceDeleteCmd())
	return cmd
}

func buildInstanceCreateCmd() *cobra.Command {
	var (
		name         string
		providerTag  string
		model        string
		systemPrompt string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new agent instance",
		Example: `  ownaid instance create --name assistant --provider anthropic
  ownaid instance create --name coder --provider openai --model gpt-5.2-2025-12-11 --system "You are a terse pair programmer."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceCreate(cmd, name, providerTag, model, systemPrompt)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Instance name (required)")
	cmd.Flags().StringVarP(&providerTag, "provider", "p", "anthropic", "Provider: anthropic, openai, or ollama")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model override (defaults to the provider's configured default)")
	cmd.Flags().StringVar(&systemPrompt, "system", "", "System prompt")
	cobra.CheckErr(cmd.MarkFlagRequired("name"))

	return cmd
}

func buildInstanceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agent instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceList(cmd)
		},
	}
}

func buildInstanceDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [instance-id]",
		Short: "Delete an agent instance",
		Long:  "Removes the instance from the registry. Its on-disk data (messages, memories, workspace) is left in place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceDelete(cmd, args[0])
		},
	}
}
