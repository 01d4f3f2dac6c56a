package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runChat(cmd *cobra.Command, instanceID, message string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	unlock, err := a.cache.Lock(cmd.Context(), instanceID)
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	defer unlock()

	ag, err := a.cache.Agent(cmd.Context(), instanceID)
	if err != nil {
		return err
	}

	reply, err := ag.Chat(cmd.Context(), message)
	if err != nil {
		return fmt.Errorf("chat turn failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
