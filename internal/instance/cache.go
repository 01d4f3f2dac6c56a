package instance

import (
	"context"
	"fmt"
	"sync"

	"github.com/ownai/ownai-core/internal/agent"
	"github.com/ownai/ownai-core/internal/canvas"
	"github.com/ownai/ownai-core/internal/config"
	"github.com/ownai/ownai-core/internal/embedding"
	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/hostevents"
	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/paths"
	"github.com/ownai/ownai-core/internal/provider"
	"github.com/ownai/ownai-core/internal/sandbox"
	"github.com/ownai/ownai-core/internal/scheduler"
	"github.com/ownai/ownai-core/internal/secrets"
	"github.com/ownai/ownai-core/internal/store"
	"github.com/ownai/ownai-core/internal/tools"
)

// live is everything built once per instance and reused across turns:
// the open store, provider client, tool surface, and the single live
// Agent serving chat/stream calls.
type live struct {
	store    *store.Store
	provider provider.Provider
	registry *tools.Registry
	longTerm *memory.LongTermMemory
	canvas   *canvas.Store
	static   []tools.Tool
	agent    *agent.Agent

	turnMu sync.Mutex // single-writer-per-instance: concurrent turns are disallowed
}

// Cache is the agent cache (§4.R): one live instance per instance-id,
// built lazily and idempotently the first time it's needed and reused
// afterward.
type Cache struct {
	registry *Registry
	secrets  *secrets.Store
	cfg      *config.Config
	emitter  hostevents.Emitter
	notifier hostevents.NotificationSender

	mu        sync.Mutex
	entries   map[string]*entry
	scheduler *scheduler.Scheduler
}

// entry guards the lazy construction of one instance's live state so
// two concurrent first-callers don't race to build it twice.
type entry struct {
	mu   sync.Mutex
	live *live
	err  error
}

// NewCache returns an agent cache. notifier/emitter may be
// hostevents.NoOp for a headless process.
func NewCache(reg *Registry, secretStore *secrets.Store, cfg *config.Config, emitter hostevents.Emitter, notifier hostevents.NotificationSender) *Cache {
	return &Cache{
		registry: reg,
		secrets:  secretStore,
		cfg:      cfg,
		emitter:  emitter,
		notifier: notifier,
		entries:  make(map[string]*entry),
	}
}

// SetScheduler binds the process's live scheduler so that, from this
// point on, every instance built by the cache gets a create/delete
// scheduled-task tool pair wired to it (§4.P): a task registered or
// removed through the agent loop takes effect on the running cron
// engine immediately instead of waiting for the next restart to reread
// scheduled_tasks. Must be called before the scheduler's own Start
// (which may itself trigger instance construction via LoadEnabledTasks)
// so no instance is built with a stale nil scheduler.
func (c *Cache) SetScheduler(s *scheduler.Scheduler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduler = s
}

// Agent returns the live agent for instanceID, building it on first
// access. Safe for concurrent use; concurrent first-accesses for the
// same instance-id block on one another rather than building twice.
func (c *Cache) Agent(ctx context.Context, instanceID string) (*agent.Agent, error) {
	l, err := c.getLive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return l.agent, nil
}

// Lock acquires the single-writer-per-instance turn lock. Callers must
// Unlock when the turn (chat/stream call) completes.
func (c *Cache) Lock(ctx context.Context, instanceID string) (unlock func(), err error) {
	l, err := c.getLive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	l.turnMu.Lock()
	return l.turnMu.Unlock, nil
}

// EphemeralAgent implements scheduler.AgentFactory: it resolves (or
// builds) the instance's live state and returns a fresh ephemeral agent
// sharing its provider client and tool surface, per §4.P.
func (c *Cache) EphemeralAgent(ctx context.Context, instanceID string) (*agent.Agent, error) {
	l, err := c.getLive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	inst, err := c.registry.Get(instanceID)
	if err != nil {
		return nil, err
	}
	cfg := agent.Config{Model: inst.Model, SystemPrompt: inst.SystemPrompt, MaxTurns: c.cfg.Providers.MaxTurns}
	return agent.NewEphemeral(instanceID, l.provider, cfg, l.static, l.registry), nil
}

// StoreFor implements scheduler.Backend: each instance keeps its own
// on-disk database, so resolving "the store for this fire's outcome"
// means building (or reusing) that one instance's live state.
func (c *Cache) StoreFor(ctx context.Context, instanceID string) (*store.Store, error) {
	l, err := c.getLive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return l.store, nil
}

// LoadEnabledTasks implements scheduler.Backend: it walks every
// registered instance, opening (or reusing) each one's store, and
// concatenates their enabled scheduled_tasks rows. There is no shared
// database to query once, since the instance registry (§4.R) gives each
// instance its own SQLite file.
func (c *Cache) LoadEnabledTasks(ctx context.Context) ([]scheduler.Task, error) {
	instances, err := c.registry.List()
	if err != nil {
		return nil, err
	}

	var all []scheduler.Task
	for _, inst := range instances {
		st, err := c.StoreFor(ctx, inst.ID)
		if err != nil {
			return nil, err
		}
		tasks, err := scheduler.LoadEnabledTasksFromDB(ctx, st.DB())
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return all, nil
}

// Evict closes an instance's store handle and drops its cache entry, so
// the next Agent/EphemeralAgent call rebuilds from scratch. Used after
// Registry.Delete.
func (c *Cache) Evict(instanceID string) {
	c.mu.Lock()
	e, ok := c.entries[instanceID]
	delete(c.entries, instanceID)
	c.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live != nil {
		e.live.store.Close()
	}
}

func (c *Cache) getLive(ctx context.Context, instanceID string) (*live, error) {
	c.mu.Lock()
	e, ok := c.entries[instanceID]
	if !ok {
		e = &entry{}
		c.entries[instanceID] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live != nil || e.err != nil {
		return e.live, e.err
	}

	l, err := c.build(ctx, instanceID)
	e.live, e.err = l, err
	return l, err
}

func (c *Cache) build(ctx context.Context, instanceID string) (*live, error) {
	inst, err := c.registry.Get(instanceID)
	if err != nil {
		return nil, err
	}

	dbPath, err := paths.InstanceDBPath(instanceID)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	p, err := c.buildProvider(inst)
	if err != nil {
		s.Close()
		return nil, err
	}

	workspaceRoot, err := paths.InstanceWorkspaceDir(instanceID)
	if err != nil {
		s.Close()
		return nil, err
	}
	programsRoot, err := paths.InstanceProgramsDir(instanceID)
	if err != nil {
		s.Close()
		return nil, err
	}

	notifier := instanceNotifier{cache: c, instanceID: instanceID, instanceName: inst.Name}
	sb := sandbox.New(workspaceRoot, notifier)
	toolRegistry := tools.NewRegistry(s, instanceID, sb)
	canvasStore := canvas.NewStore(s.DB(), instanceID, programsRoot)

	working := memory.NewWorkingMemory(c.cfg.Memory.WorkingMemoryMaxTokens)
	longTerm := memory.NewLongTermMemory(s, instanceID, embedding.Local(c.cfg.Memory.EmbeddingDimension), c.cfg.Memory.EmbeddingDimension)
	summaries := memory.NewSummaryStore(s, instanceID)
	messages := memory.NewMessageStore(s, instanceID)
	ctxBuilder := memory.NewContextBuilder(longTerm, summaries,
		memory.WithRecallLimit(c.cfg.Memory.RecallLimit),
		memory.WithRecallMinImportance(c.cfg.Memory.RecallMinImportance),
		memory.WithRecentSummaryLimit(c.cfg.Memory.RecentSummaryLimit),
	)

	c.mu.Lock()
	sched := c.scheduler
	c.mu.Unlock()
	var registrar tools.Registrar
	if sched != nil {
		registrar = schedulerRegistrar{sched: sched, instanceID: instanceID}
	}
	static := staticToolSet(s, instanceID, workspaceRoot, toolRegistry, longTerm, canvasStore, c.emitter, registrar)

	agentCfg := agent.Config{
		Model:         inst.Model,
		SystemPrompt:  inst.SystemPrompt,
		MaxTurns:      c.cfg.Providers.MaxTurns,
		WorkingTokens: c.cfg.Memory.WorkingMemoryMaxTokens,
	}
	ag := agent.New(instanceID, p, agentCfg, working, longTerm, summaries, messages, ctxBuilder, static, toolRegistry)

	// delegate_task needs the agent it delegates from, so it's added to
	// both the live agent's catalog and the static list handed to
	// scheduler-spawned ephemeral agents only after ag exists.
	delegateTool := tools.NewDelegateTaskTool(agent.NewSubAgentDelegator(ag))
	ag.AddTool(delegateTool)
	static = append(static, delegateTool)

	return &live{
		store:    s,
		provider: p,
		registry: toolRegistry,
		longTerm: longTerm,
		canvas:   canvasStore,
		static:   static,
		agent:    ag,
	}, nil
}

// CanvasStore returns the program store backing an instance's canvas
// host, building the instance's live state on first access.
func (c *Cache) CanvasStore(ctx context.Context, instanceID string) (*canvas.Store, error) {
	l, err := c.getLive(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return l.canvas, nil
}

func (c *Cache) buildProvider(inst AIInstance) (provider.Provider, error) {
	model := inst.Model
	switch inst.Provider {
	case "anthropic":
		key, err := c.secrets.Load("anthropic")
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = c.cfg.Providers.Anthropic.DefaultModel
		}
		return provider.NewAnthropic(provider.AnthropicConfig{
			APIKey:       key,
			BaseURL:      c.cfg.Providers.Anthropic.BaseURL,
			DefaultModel: model,
		})
	case "openai":
		key, err := c.secrets.Load("openai")
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = c.cfg.Providers.OpenAI.DefaultModel
		}
		return provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:       key,
			BaseURL:      c.cfg.Providers.OpenAI.BaseURL,
			DefaultModel: model,
		})
	case "ollama":
		if model == "" {
			model = c.cfg.Providers.Ollama.DefaultModel
		}
		return provider.NewOllama(provider.OllamaConfig{
			BaseURL:      c.cfg.Providers.Ollama.BaseURL,
			DefaultModel: model,
		}), nil
	default:
		return nil, errs.New(errs.ConfigKind, fmt.Sprintf("unknown provider %q for instance %q", inst.Provider, inst.ID))
	}
}

// instanceNotifier adapts the cache's hostevents.NotificationSender to
// the sandbox's narrower Notifier, binding the instance id/name so a
// script's send_notification(message) call is delivered with the
// instance name as its title.
type instanceNotifier struct {
	cache        *Cache
	instanceID   string
	instanceName string
}

func (n instanceNotifier) Notify(ctx context.Context, message string) error {
	return n.cache.notifier.Notify(n.instanceID, n.instanceName, message)
}

// schedulerRegistrar adapts *scheduler.Scheduler to tools.Registrar,
// translating the tool package's ScheduledTask into the scheduler's own
// Task and binding the instance id the tool itself doesn't carry.
type schedulerRegistrar struct {
	sched      *scheduler.Scheduler
	instanceID string
}

func (r schedulerRegistrar) Register(task tools.ScheduledTask) error {
	return r.sched.Register(scheduler.Task{
		ID:         task.ID,
		InstanceID: r.instanceID,
		Name:       task.Name,
		CronExpr:   task.CronExpression,
		Prompt:     task.TaskPrompt,
		Enabled:    task.Enabled,
		Notify:     task.Notify,
	})
}

func (r schedulerRegistrar) Unregister(taskID string) {
	r.sched.Unregister(taskID)
}
