package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runInstanceCreate(cmd *cobra.Command, name, providerTag, model, systemPrompt string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	inst, err := a.registry.Create(name, providerTag, model, systemPrompt)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created instance %q\n", inst.Name)
	fmt.Fprintf(out, "  id:       %s\n", inst.ID)
	fmt.Fprintf(out, "  provider: %s\n", inst.Provider)
	if inst.Model != "" {
		fmt.Fprintf(out, "  model:    %s\n", inst.Model)
	}
	return nil
}

func runInstanceList(cmd *cobra.Command) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	instances, err := a.registry.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(instances) == 0 {
		fmt.Fprintln(out, "No instances registered.")
		return nil
	}
	for _, inst := range instances {
		fmt.Fprintf(out, "%s  %-20s  %-10s  %s\n", inst.ID, inst.Name, inst.Provider, inst.Model)
	}
	return nil
}

func runInstanceDelete(cmd *cobra.Command, id string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	if err := a.registry.Delete(id); err != nil {
		return err
	}
	a.cache.Evict(id)

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted instance %s\n", id)
	return nil
}
