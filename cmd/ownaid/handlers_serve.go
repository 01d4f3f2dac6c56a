package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/ownai/ownai-core/internal/canvas"
	"github.com/ownai/ownai-core/internal/scheduler"
)

// runServe wires the instance cache into the scheduler and canvas host,
// and runs both until a shutdown signal arrives.
func runServe(ctx context.Context, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}

	sched := scheduler.New(a.cache, scheduler.AgentFactoryFunc(a.cache.EphemeralAgent), scheduler.WithLogger(slog.Default()))
	a.cache.SetScheduler(sched)
	host := canvas.NewHost(a.cfg.Server.Host, a.cfg.Server.Port, a.cache, pathsResolver{}, slog.Default())

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := host.Start(ctx); err != nil {
		return fmt.Errorf("start canvas host: %w", err)
	}
	slog.Info("ownai daemon started")

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping daemon")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := host.Close(shutdownCtx); err != nil {
		slog.Warn("canvas host shutdown error", "error", err)
	}
	return sched.Stop(shutdownCtx)
}
