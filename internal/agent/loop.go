// Package agent implements the per-instance agent loop (§4.N): it
// assembles context from the memory stack, drives a provider-agnostic
// tool-calling loop to completion, streams text deltas to a caller, and
// persists the turn before kicking off best-effort fact extraction.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/provider"
	"github.com/ownai/ownai-core/internal/tools"
)

// maxTurns is the hard cap on model<->tool round-trips per user turn
// (§4.M): every model response that itself requests a tool call counts
// as one turn, whether or not any tool actually ran.
const maxTurns = 25

// Chunk is one increment of a streamed response: a text delta, a tool
// event, or the terminal signal (Done or Error, mutually exclusive with
// further chunks).
type Chunk struct {
	Text     string
	ToolName string // set on a tool-call/tool-result notification chunk
	ToolDone bool   // true once ToolName's result is known
	Done     bool
	Error    error
}

// Config tunes one Agent's behavior. Zero values fall back to
// DefaultConfig's defaults via sanitizeConfig.
type Config struct {
	Model         string
	SystemPrompt  string
	MaxTurns      int
	WorkingTokens int
}

// DefaultConfig returns the baseline agent configuration.
func DefaultConfig() Config {
	return Config{MaxTurns: maxTurns, WorkingTokens: 50_000}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = maxTurns
	}
	if cfg.WorkingTokens <= 0 {
		cfg.WorkingTokens = 50_000
	}
	return cfg
}

// Agent is the live, per-instance object described in §4.N: one
// provider client, the instance's working memory, long-term memory and
// summaries, a dynamic+static tool catalog, and the durable message
// log backing all of it.
type Agent struct {
	instanceID string
	cfg        Config

	providerClient provider.Provider
	completer      memory.Completer

	working   *memory.WorkingMemory
	longTerm  *memory.LongTermMemory
	summaries *memory.SummaryStore
	messages  *memory.MessageStore
	context   *memory.ContextBuilder

	catalog *catalog

	mu    sync.Mutex
	phase LoopPhase
}

// New builds a live agent over the given provider and memory-stack
// components. static and registry together form the tool catalog
// (§4.L, §4.K); registry may be nil for an agent with no dynamic tools
// (e.g. an ephemeral scheduler fire, §4.P).
func New(instanceID string, p provider.Provider, cfg Config, working *memory.WorkingMemory, longTerm *memory.LongTermMemory, summaries *memory.SummaryStore, messages *memory.MessageStore, ctxBuilder *memory.ContextBuilder, static []tools.Tool, registry *tools.Registry) *Agent {
	cfg = sanitizeConfig(cfg)
	return &Agent{
		instanceID:     instanceID,
		cfg:            cfg,
		providerClient: p,
		completer:      newProviderCompleter(p, cfg.Model),
		working:        working,
		longTerm:       longTerm,
		summaries:      summaries,
		messages:       messages,
		context:        ctxBuilder,
		catalog:        newCatalog(static, registry),
		phase:          PhaseIdle,
	}
}

// AddTool appends a tool to the agent's static catalog after
// construction. delegate_task is the motivating case: it needs the
// agent it delegates from (via NewSubAgentDelegator), which doesn't
// exist until after New/NewEphemeral returns.
func (a *Agent) AddTool(t tools.Tool) {
	a.catalog.addStatic(t)
}

// Phase reports the agent's current point in the {Idle ->
// AwaitingProvider -> Streaming -> Persisting -> Idle} state machine.
func (a *Agent) Phase() LoopPhase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

func (a *Agent) setPhase(p LoopPhase) {
	a.mu.Lock()
	a.phase = p
	a.mu.Unlock()
}

// Chat runs one full user turn to completion and returns the
// accumulated assistant text. It is Stream wired to a callback that
// collects the text deltas.
func (a *Agent) Chat(ctx context.Context, userMsg string) (string, error) {
	var sb []byte
	err := a.Stream(ctx, userMsg, func(c *Chunk) {
		if c.Text != "" {
			sb = append(sb, c.Text...)
		}
	})
	return string(sb), err
}

// Stream runs one user turn (§4.N steps 1-8), invoking callback for
// every text delta and tool notification as they happen. It returns
// once the turn is fully persisted, or with an error if the provider
// or a terminal tool-loop condition fails the turn before anything was
// persisted (cancellation never leaves a half-appended turn: working
// memory and the durable log are updated together in step 6/7, never
// separately).
func (a *Agent) Stream(ctx context.Context, userMsg string, callback func(*Chunk)) error {
	if a.providerClient == nil {
		return errNoProvider
	}
	if callback == nil {
		callback = func(*Chunk) {}
	}

	a.setPhase(PhaseAwaitingProvider)
	defer a.setPhase(PhaseIdle)

	contextPrefix, err := a.context.Build(ctx, userMsg)
	if err != nil {
		return err
	}

	history := a.buildHistory()

	prompt := userMsg
	if contextPrefix != "" {
		prompt = contextPrefix + "\n\n" + userMsg
	}

	specs, err := a.catalog.specs(ctx)
	if err != nil {
		return err
	}

	turnMessages := append(history, provider.Message{Role: provider.RoleUser, Content: prompt})

	var finalText string
	for turn := 0; turn < a.cfg.MaxTurns; turn++ {
		req := &provider.CompletionRequest{
			Model:    a.cfg.Model,
			System:   a.cfg.SystemPrompt,
			Messages: turnMessages,
			Tools:    specs,
		}

		a.setPhase(PhaseStreaming)
		chunks, err := a.providerClient.Complete(ctx, req)
		if err != nil {
			callback(&Chunk{Error: err})
			return err
		}

		text, toolCalls, err := a.drainChunks(ctx, chunks, callback)
		if err != nil {
			callback(&Chunk{Error: err})
			return err
		}
		finalText += text

		if len(toolCalls) == 0 {
			break
		}
		if turn == a.cfg.MaxTurns-1 {
			callback(&Chunk{Error: errMaxIterations})
			return errMaxIterations
		}

		a.setPhase(PhaseExecutingTools)
		assistantMsg := provider.Message{Role: provider.RoleAssistant, Content: text, ToolCalls: toolCalls}
		toolMsg := provider.Message{Role: provider.RoleTool}

		for _, call := range toolCalls {
			callback(&Chunk{ToolName: call.Name})
			content, isError, execErr := a.catalog.execute(ctx, call.Name, string(call.Input))
			if execErr != nil {
				content, isError = execErr.Error(), true
			}
			content = sanitizeToolResult(content)
			toolMsg.ToolResults = append(toolMsg.ToolResults, provider.ToolResult{
				ToolCallID: call.ID,
				Content:    content,
				IsError:    isError,
			})
			callback(&Chunk{ToolName: call.Name, ToolDone: true})
		}

		turnMessages = append(turnMessages, assistantMsg, toolMsg)
	}

	callback(&Chunk{Done: true})
	return a.persistTurn(ctx, userMsg, finalText)
}

// buildHistory converts the live working-memory snapshot into
// provider-facing messages, excluding the user turn currently being
// appended (§4.N step 3).
func (a *Agent) buildHistory() []provider.Message {
	snapshot := a.working.Snapshot()
	out := make([]provider.Message, 0, len(snapshot))
	for _, m := range snapshot {
		role := provider.RoleUser
		switch m.Role {
		case memory.RoleAgent:
			role = provider.RoleAssistant
		case memory.RoleSystem:
			role = provider.RoleSystem
		}
		out = append(out, provider.Message{Role: role, Content: m.Content})
	}
	return out
}

// drainChunks accumulates text deltas and tool-call requests from one
// streaming completion, forwarding text chunks to callback as they
// arrive.
func (a *Agent) drainChunks(ctx context.Context, chunks <-chan *provider.Chunk, callback func(*Chunk)) (string, []provider.ToolCall, error) {
	var text string
	var toolCalls []provider.ToolCall

	for {
		select {
		case <-ctx.Done():
			return text, toolCalls, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return text, toolCalls, nil
			}
			if chunk.Error != nil {
				return text, toolCalls, chunk.Error
			}
			if chunk.Text != "" {
				text += chunk.Text
				callback(&Chunk{Text: chunk.Text})
			}
			if chunk.ToolCall != nil {
				toolCalls = append(toolCalls, *chunk.ToolCall)
			}
			if chunk.Done {
				return text, toolCalls, nil
			}
		}
	}
}

// persistTurn appends the user and assistant messages to working
// memory, persists both to the durable log, summarizes any eviction
// batches, and kicks off best-effort fact extraction (§4.N steps 6-8).
func (a *Agent) persistTurn(ctx context.Context, userText, assistantText string) error {
	a.setPhase(PhasePersisting)
	if a.messages == nil {
		// Ephemeral agent (a sub-agent delegation or a scheduler fire):
		// nothing to append to a conversation log that doesn't exist.
		return nil
	}

	userMsg := memory.Message{Role: memory.RoleUser, Content: userText, Timestamp: time.Now()}
	userMsg, err := a.messages.Append(ctx, userMsg)
	if err != nil {
		return err
	}
	if evicted := a.working.Append(userMsg); evicted != nil {
		a.summarizeEvicted(ctx, evicted)
	}

	agentMsg := memory.Message{Role: memory.RoleAgent, Content: assistantText, Timestamp: time.Now()}
	agentMsg, err = a.messages.Append(ctx, agentMsg)
	if err != nil {
		return err
	}
	if evicted := a.working.Append(agentMsg); evicted != nil {
		a.summarizeEvicted(ctx, evicted)
	}

	a.extractFacts(ctx, userMsg, agentMsg)
	return nil
}

// summarizeEvicted runs the summarization engine (§4.G) over an
// eviction batch and persists the result, linking covered messages back
// via summary_id. Summarization never blocks or fails the user turn;
// it runs synchronously here but its own failures already degrade to a
// deterministic stub inside memory.Summarize.
func (a *Agent) summarizeEvicted(ctx context.Context, batch []memory.Message) {
	if a.summaries == nil || len(batch) == 0 {
		return
	}
	summary := memory.Summarize(ctx, a.completer, batch)
	ids := make([]string, len(batch))
	for i, m := range batch {
		ids[i] = m.ID
	}
	_ = a.summaries.Save(ctx, summary, ids)
}

// extractFacts runs structured fact extraction (§4.H) against the
// just-completed exchange and stores anything worth remembering.
// Best-effort: failures are swallowed, never surfaced to the caller.
func (a *Agent) extractFacts(ctx context.Context, userMsg, agentMsg memory.Message) {
	if a.longTerm == nil {
		return
	}
	for _, entry := range memory.ExtractFacts(ctx, a.completer, userMsg, agentMsg) {
		entry := entry
		_ = a.longTerm.Store(ctx, &entry)
	}
}

