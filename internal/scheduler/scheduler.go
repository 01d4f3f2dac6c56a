package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/memory"
)

// Scheduler owns a single cron engine per process and maintains
// task_id -> job-handle for every registered scheduled task.
type Scheduler struct {
	backend  Backend
	agents   AgentFactory
	emitter  hostevents.Emitter
	notifier hostevents.NotificationSender
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEmitter(e hostevents.Emitter) Option {
	return func(s *Scheduler) {
		if e != nil {
			s.emitter = e
		}
	}
}

func WithNotifier(n hostevents.NotificationSender) Option {
	return func(s *Scheduler) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New returns a scheduler over backend and agents. The cron engine isn't
// started until Start is called.
func New(backend Backend, agents AgentFactory, opts ...Option) *Scheduler {
	s := &Scheduler{
		backend:  backend,
		agents:   agents,
		emitter:  hostevents.NoOp,
		notifier: hostevents.NoOp,
		logger:   slog.Default().With("component", "scheduler"),
		cron:     cron.New(cron.WithParser(cronParser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		entries:  make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads every enabled scheduled task from the store, registers it,
// and starts the cron engine. Fires an error only for a store failure;
// individual malformed tasks are logged and skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	tasks, err := s.backend.LoadEnabledTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.Register(t); err != nil {
			s.logger.Warn("scheduled task skipped at startup", "id", t.ID, "error", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron engine and waits for in-flight fires to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register validates task's cron expression and adds its job handle to
// the engine, replacing any existing handle for the same task id.
func (s *Scheduler) Register(task Task) error {
	if err := Validate(task.CronExpr); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(task.CronExpr, func() {
		s.fire(context.Background(), task)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if old, ok := s.entries[task.ID]; ok {
		s.cron.Remove(old)
	}
	s.entries[task.ID] = entryID
	s.mu.Unlock()
	return nil
}

// Unregister removes a task's job handle, if one exists.
func (s *Scheduler) Unregister(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entryID, ok := s.entries[taskID]
	if !ok {
		return
	}
	s.cron.Remove(entryID)
	delete(s.entries, taskID)
}

// fire spawns an ephemeral agent for task's instance, runs the task
// prompt to completion, and records the outcome. Fires of the same task
// may overlap; each gets its own agent and neither blocks the other or
// delays the next tick.
func (s *Scheduler) fire(ctx context.Context, task Task) {
	now := time.Now()

	ag, err := s.agents.EphemeralAgent(ctx, task.InstanceID)
	if err != nil {
		s.recordFailure(ctx, task, now, err)
		return
	}

	result, err := ag.Chat(ctx, task.Prompt)
	if err != nil {
		s.recordFailure(ctx, task, now, err)
		return
	}
	s.recordSuccess(ctx, task, now, result)
}

func (s *Scheduler) recordSuccess(ctx context.Context, task Task, at time.Time, result string) {
	st, err := s.backend.StoreFor(ctx, task.InstanceID)
	if err != nil {
		s.logger.Warn("scheduled task result not recorded", "id", task.ID, "error", err)
		return
	}

	if err := recordResult(ctx, st.DB(), task.ID, result, at); err != nil {
		s.logger.Warn("scheduled task result not recorded", "id", task.ID, "error", err)
	}

	messages := memory.NewMessageStore(st, task.InstanceID)
	if _, err := messages.Append(ctx, memory.Message{Role: memory.RoleAgent, Content: result, Timestamp: at}); err != nil {
		s.logger.Warn("scheduled task message not persisted", "id", task.ID, "error", err)
	}

	if task.Notify {
		title := fmt.Sprintf("Scheduled task %q completed", task.Name)
		if err := s.notifier.Notify(task.InstanceID, title, result); err != nil {
			s.logger.Warn("scheduled task notification failed", "id", task.ID, "error", err)
		}
		s.emitter.Emit("task_completed", map[string]any{"task_id": task.ID, "instance_id": task.InstanceID, "name": task.Name})
	}
}

func (s *Scheduler) recordFailure(ctx context.Context, task Task, at time.Time, fireErr error) {
	s.logger.Warn("scheduled task fire failed", "id", task.ID, "error", fireErr)

	st, err := s.backend.StoreFor(ctx, task.InstanceID)
	if err != nil {
		s.logger.Warn("scheduled task failure not recorded", "id", task.ID, "error", err)
		return
	}

	resultText := "Error: " + fireErr.Error()
	if err := recordResult(ctx, st.DB(), task.ID, resultText, at); err != nil {
		s.logger.Warn("scheduled task failure not recorded", "id", task.ID, "error", err)
	}

	messages := memory.NewMessageStore(st, task.InstanceID)
	content := fmt.Sprintf("[Scheduled Task %q -- Error]\n%s", task.Name, fireErr.Error())
	if _, err := messages.Append(ctx, memory.Message{Role: memory.RoleSystem, Content: content, Timestamp: at}); err != nil {
		s.logger.Warn("scheduled task failure message not persisted", "id", task.ID, "error", err)
	}

	if task.Notify {
		title := fmt.Sprintf("Scheduled task %q failed", task.Name)
		if err := s.notifier.Notify(task.InstanceID, title, fireErr.Error()); err != nil {
			s.logger.Warn("scheduled task failure notification failed", "id", task.ID, "error", err)
		}
		s.emitter.Emit("task_failed", map[string]any{"task_id": task.ID, "instance_id": task.InstanceID, "name": task.Name, "error": fireErr.Error()})
	}
}
