package instance

import (
	"context"
	"testing"

	"github.com/ownai/ownai-core/internal/config"
	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/scheduler"
	"github.com/ownai/ownai-core/internal/secrets"
	"github.com/ownai/ownai-core/internal/tools"
)

// newTestCache returns a Cache over a fresh registry rooted at a temp
// OWNAI_HOME, the same isolation registry_test.go uses. Instances use
// the ollama provider so building an agent never needs a stored API key.
func newTestCache(t *testing.T) (*Cache, *Registry) {
	t.Helper()
	t.Setenv("OWNAI_HOME", t.TempDir())
	reg := NewRegistry()
	cache := NewCache(reg, secrets.New(), config.Defaults(), hostevents.NoOp, hostevents.NoOp)
	return cache, reg
}

func TestAgentBuildsLazilyAndIsReused(t *testing.T) {
	cache, reg := newTestCache(t)
	inst, err := reg.Create("assistant", "ollama", "", "be helpful")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	a1, err := cache.Agent(ctx, inst.ID)
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	a2, err := cache.Agent(ctx, inst.ID)
	if err != nil {
		t.Fatalf("Agent (second call): %v", err)
	}
	if a1 != a2 {
		t.Fatal("expected the same agent instance on repeated access")
	}
}

func TestAgentUnknownInstanceFails(t *testing.T) {
	cache, _ := newTestCache(t)
	if _, err := cache.Agent(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown instance id")
	}
}

func TestLockSerializesTurnsPerInstance(t *testing.T) {
	cache, reg := newTestCache(t)
	inst, err := reg.Create("assistant", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	unlock, err := cache.Lock(ctx, inst.ID)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	locked := make(chan struct{})
	go func() {
		second, err := cache.Lock(ctx, inst.ID)
		if err != nil {
			t.Errorf("second Lock: %v", err)
			return
		}
		second()
		close(locked)
	}()

	select {
	case <-locked:
		t.Fatal("second Lock returned before the first was released")
	default:
	}

	unlock()
	<-locked
}

func TestStoreForAndLoadEnabledTasks(t *testing.T) {
	cache, reg := newTestCache(t)
	instA, err := reg.Create("a", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	instB, err := reg.Create("b", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	stA, err := cache.StoreFor(ctx, instA.ID)
	if err != nil {
		t.Fatalf("StoreFor(a): %v", err)
	}
	stB, err := cache.StoreFor(ctx, instB.ID)
	if err != nil {
		t.Fatalf("StoreFor(b): %v", err)
	}
	if stA == stB {
		t.Fatal("expected distinct stores per instance")
	}

	if _, err := stA.DB().ExecContext(ctx, `
		INSERT INTO scheduled_tasks (id, instance_id, name, cron_expression, task_prompt, enabled, notify, created_at)
		VALUES ('task-1', ?, 'daily digest', '0 9 * * *', 'summarize today', 1, 0, datetime('now'))
	`, instA.ID); err != nil {
		t.Fatalf("insert scheduled task: %v", err)
	}

	tasks, err := cache.LoadEnabledTasks(ctx)
	if err != nil {
		t.Fatalf("LoadEnabledTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if tasks[0].InstanceID != instA.ID {
		t.Fatalf("task instance = %q, want %q", tasks[0].InstanceID, instA.ID)
	}
}

func TestCanvasStoreIsScopedPerInstance(t *testing.T) {
	cache, reg := newTestCache(t)
	inst, err := reg.Create("assistant", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	cs, err := cache.CanvasStore(ctx, inst.ID)
	if err != nil {
		t.Fatalf("CanvasStore: %v", err)
	}
	if _, err := cs.Create(ctx, "widget", "", "<html></html>"); err != nil {
		t.Fatalf("Create program: %v", err)
	}

	programs, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(programs) != 1 {
		t.Fatalf("len(programs) = %d, want 1", len(programs))
	}
}

func TestSchedulerRegistrarAdaptsToolTaskToSchedulerTask(t *testing.T) {
	cache, reg := newTestCache(t)
	inst, err := reg.Create("assistant", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sched := scheduler.New(cache, scheduler.AgentFactoryFunc(cache.EphemeralAgent))
	cache.SetScheduler(sched)

	registrar := schedulerRegistrar{sched: sched, instanceID: inst.ID}
	if err := registrar.Register(tools.ScheduledTask{
		ID:             "task-1",
		Name:           "daily",
		CronExpression: "0 9 * * *",
		TaskPrompt:     "summarize inbox",
		Enabled:        true,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Unregistering an id the scheduler holds, and one it never saw,
	// must both be no-ops rather than panics.
	registrar.Unregister("task-1")
	registrar.Unregister("never-registered")
}

func TestEvictRebuildsOnNextAccess(t *testing.T) {
	cache, reg := newTestCache(t)
	inst, err := reg.Create("assistant", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	a1, err := cache.Agent(ctx, inst.ID)
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}

	cache.Evict(inst.ID)

	a2, err := cache.Agent(ctx, inst.ID)
	if err != nil {
		t.Fatalf("Agent after Evict: %v", err)
	}
	if a1 == a2 {
		t.Fatal("expected Evict to force a rebuild")
	}
}
