// Package scheduler owns the single cron engine for the process (§4.P):
// it loads enabled scheduled_tasks rows, fires an ephemeral agent on
// each tick, and records the outcome back to the store and the host.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/ownai/ownai-core/internal/agent"
	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/store"
)

// cronParser accepts the 5-field minimal form and the optional 6-field
// form with a leading seconds field, matching internal/tools's validator.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate parses expr, rejecting anything that isn't a 5- or 6-field
// cron expression.
func Validate(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return errs.Wrap(errs.ConfigKind, "invalid cron expression", err)
	}
	return nil
}

// Task is one scheduled_tasks row.
type Task struct {
	ID         string
	InstanceID string
	Name       string
	CronExpr   string
	Prompt     string
	Enabled    bool
	Notify     bool
}

// AgentFactory builds the ephemeral agent used for one scheduled-task
// fire. Supplied by whatever owns the instance cache (§4.R), which knows
// how to resolve an instance's provider client, tool registry, and
// static tool set; the scheduler itself has no opinion on any of that.
type AgentFactory interface {
	EphemeralAgent(ctx context.Context, instanceID string) (*agent.Agent, error)
}

// AgentFactoryFunc adapts a plain function to AgentFactory.
type AgentFactoryFunc func(ctx context.Context, instanceID string) (*agent.Agent, error)

func (f AgentFactoryFunc) EphemeralAgent(ctx context.Context, instanceID string) (*agent.Agent, error) {
	return f(ctx, instanceID)
}

// Backend is the storage seam the scheduler needs. Each agent instance
// keeps its own on-disk database (§4.R), so the scheduler can't hold one
// shared *store.Store the way a single-tenant component normally would:
// it asks Backend to enumerate every enabled task across every instance
// at startup, and to resolve one instance's store to persist a fire's
// outcome.
type Backend interface {
	LoadEnabledTasks(ctx context.Context) ([]Task, error)
	StoreFor(ctx context.Context, instanceID string) (*store.Store, error)
}
