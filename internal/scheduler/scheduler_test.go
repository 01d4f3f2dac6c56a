package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ownai/ownai-core/internal/agent"
	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/provider"
	"github.com/ownai/ownai-core/internal/store"
)

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Complete(ctx context.Context, req *provider.CompletionRequest) (<-chan *provider.Chunk, error) {
	ch := make(chan *provider.Chunk, 2)
	go func() {
		defer close(ch)
		if f.err != nil {
			ch <- &provider.Chunk{Error: f.err}
			return
		}
		ch <- &provider.Chunk{Text: f.text, Done: true}
	}()
	return ch, nil
}
func (f *fakeProvider) Name() string        { return "fake" }
func (f *fakeProvider) SupportsTools() bool { return false }

// singleStoreBackend is a test double for Backend: every instance maps to
// the same underlying store, unlike the real per-instance instance.Cache,
// which is fine here since these tests only exercise one instance-id.
type singleStoreBackend struct {
	store *store.Store
}

func (b singleStoreBackend) LoadEnabledTasks(ctx context.Context) ([]Task, error) {
	return LoadEnabledTasksFromDB(ctx, b.store.DB())
}

func (b singleStoreBackend) StoreFor(ctx context.Context, instanceID string) (*store.Store, error) {
	return b.store, nil
}

func newTestScheduler(t *testing.T, p provider.Provider) (*Scheduler, *store.Store) {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	factory := AgentFactoryFunc(func(ctx context.Context, instanceID string) (*agent.Agent, error) {
		return agent.NewEphemeral(instanceID, p, agent.Config{Model: "test-model"}, nil, nil), nil
	})
	return New(singleStoreBackend{store: s}, factory), s
}

func insertTask(t *testing.T, s *store.Store, task Task) {
	t.Helper()
	_, err := s.DB().Exec(`
		INSERT INTO scheduled_tasks (id, instance_id, name, cron_expression, task_prompt, enabled, notify, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, task.ID, task.InstanceID, task.Name, task.CronExpr, task.Prompt, boolToInt(task.Enabled), boolToInt(task.Notify))
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestValidateRejectsMalformedExpression(t *testing.T) {
	if err := Validate("not a cron expr"); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
	if err := Validate("* * * * *"); err != nil {
		t.Fatalf("5-field expression should validate: %v", err)
	}
	if err := Validate("*/5 * * * * *"); err != nil {
		t.Fatalf("6-field expression should validate: %v", err)
	}
}

func TestFireOnSuccessPersistsResultAndMessage(t *testing.T) {
	p := &fakeProvider{text: "hi there"}
	sched, s := newTestScheduler(t, p)

	task := Task{ID: "t1", InstanceID: "inst-1", Name: "greet", CronExpr: "* * * * *", Prompt: "say hi", Notify: false}
	insertTask(t, s, task)

	var emitted []string
	sched.emitter = hostevents.EmitterFunc(func(event string, _ any) { emitted = append(emitted, event) })

	sched.fire(context.Background(), task)

	var lastResult string
	var lastRun time.Time
	if err := s.DB().QueryRow(`SELECT last_result, last_run FROM scheduled_tasks WHERE id = ?`, task.ID).Scan(&lastResult, &lastRun); err != nil {
		t.Fatalf("query result: %v", err)
	}
	if lastResult != "hi there" {
		t.Fatalf("last_result = %q", lastResult)
	}
	if lastRun.IsZero() || time.Since(lastRun) > time.Minute {
		t.Fatalf("last_run not recent: %v", lastRun)
	}

	messages := memory.NewMessageStore(s, task.InstanceID)
	recent, err := messages.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Role != memory.RoleAgent || recent[0].Content != "hi there" {
		t.Fatalf("persisted messages = %+v", recent)
	}

	if len(emitted) != 0 {
		t.Fatalf("no event should be emitted when notify=false, got %v", emitted)
	}
}

func TestFireOnFailureRecordsErrorAndNotifies(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	sched, s := newTestScheduler(t, p)

	task := Task{ID: "t2", InstanceID: "inst-1", Name: "flaky", CronExpr: "* * * * *", Prompt: "do it", Notify: true}
	insertTask(t, s, task)

	var emitted []string
	sched.emitter = hostevents.EmitterFunc(func(event string, _ any) { emitted = append(emitted, event) })
	var notified bool
	sched.notifier = hostevents.NotificationSenderFunc(func(instanceID, title, message string) error {
		notified = true
		return nil
	})

	sched.fire(context.Background(), task)

	var lastResult string
	if err := s.DB().QueryRow(`SELECT last_result FROM scheduled_tasks WHERE id = ?`, task.ID).Scan(&lastResult); err != nil {
		t.Fatalf("query result: %v", err)
	}
	if lastResult != "Error: boom" {
		t.Fatalf("last_result = %q", lastResult)
	}

	messages := memory.NewMessageStore(s, task.InstanceID)
	recent, err := messages.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Role != memory.RoleSystem {
		t.Fatalf("persisted messages = %+v", recent)
	}

	if !notified {
		t.Fatal("expected a notification on failure with notify=true")
	}
	if len(emitted) != 1 || emitted[0] != "task_failed" {
		t.Fatalf("emitted = %v, want [task_failed]", emitted)
	}
}

func TestRegisterAndUnregisterTrackJobHandles(t *testing.T) {
	sched, s := newTestScheduler(t, &fakeProvider{text: "ok"})
	task := Task{ID: "t3", InstanceID: "inst-1", Name: "x", CronExpr: "* * * * *", Prompt: "x"}
	insertTask(t, s, task)

	if err := sched.Register(task); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := sched.entries[task.ID]; !ok {
		t.Fatal("expected job handle after Register")
	}

	sched.Unregister(task.ID)
	if _, ok := sched.entries[task.ID]; ok {
		t.Fatal("expected job handle removed after Unregister")
	}
}

func TestRegisterRejectsInvalidCronExpression(t *testing.T) {
	sched, _ := newTestScheduler(t, &fakeProvider{text: "ok"})
	err := sched.Register(Task{ID: "bad", InstanceID: "inst-1", CronExpr: "nonsense"})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
