package main

import (
	"fmt"

	"github.com/ownai/ownai-core/internal/config"
	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/instance"
	"github.com/ownai/ownai-core/internal/secrets"
)

// app bundles the objects every subcommand needs: the loaded config, the
// instance registry, and the agent cache built over it. Built fresh per
// command invocation rather than held as a package-level singleton, since
// the CLI is a short-lived process per call except under "serve".
type app struct {
	cfg      *config.Config
	registry *instance.Registry
	cache    *instance.Cache
}

// newApp loads configuration from configPath and wires the registry and
// agent cache over it. A headless CLI process has no GUI host, so the
// cache is built with hostevents.NoOp for both the emitter and notifier.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	registry := instance.NewRegistry()
	cache := instance.NewCache(registry, secrets.New(), cfg, hostevents.NoOp, hostevents.NoOp)

	return &app{cfg: cfg, registry: registry, cache: cache}, nil
}
