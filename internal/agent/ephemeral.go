package agent

import (
	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/provider"
	"github.com/ownai/ownai-core/internal/tools"
)

// NewEphemeral builds an agent with the same construction as New (§4.N)
// but with no durable message log, summary store, or long-term memory:
// its turn is never persisted and never triggers summarization or fact
// extraction, and its context builder has no memory to recall from.
// Used for scheduled-task fires (§4.P), a bounded, one-shot conversation
// that should not pollute an instance's own history. Sub-agent
// delegation (§4.O) builds its own agent in subagent.go instead, reusing
// the parent's context builder.
func NewEphemeral(instanceID string, p provider.Provider, cfg Config, static []tools.Tool, registry *tools.Registry) *Agent {
	cfg = sanitizeConfig(cfg)
	return &Agent{
		instanceID:     instanceID,
		cfg:            cfg,
		providerClient: p,
		completer:      newProviderCompleter(p, cfg.Model),
		working:        memory.NewWorkingMemory(cfg.WorkingTokens),
		longTerm:       nil,
		summaries:      nil,
		messages:       nil,
		context:        memory.NewContextBuilder(nil, nil),
		catalog:        newCatalog(static, registry),
		phase:          PhaseIdle,
	}
}
