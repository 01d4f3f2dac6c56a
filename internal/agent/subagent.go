package agent

import (
	"context"
	"fmt"

	"github.com/ownai/ownai-core/internal/memory"
)

// SubAgentDelegator implements tools.Delegator (§4.O) over a parent
// Agent: delegate_task spawns a temporary agent sharing the parent's
// provider client, model, long-term memory, and tool catalog minus
// delegate_task itself, preventing recursive delegation. The temporary
// agent has no message log or summary store of its own, so its
// internal turn never touches the instance's conversation history or
// triggers summarization — only its final answer, returned here,
// becomes visible to the parent (as that tool call's result).
type SubAgentDelegator struct {
	parent *Agent
}

// NewSubAgentDelegator returns a delegator spawning bounded sub-agents
// from parent's resources.
func NewSubAgentDelegator(parent *Agent) *SubAgentDelegator {
	return &SubAgentDelegator{parent: parent}
}

// Delegate runs task to completion on a fresh, single-turn agent and
// returns its final text prefixed with "[Sub-agent '<name>' completed]".
func (d *SubAgentDelegator) Delegate(ctx context.Context, taskName, systemPrompt, task string) (string, error) {
	p := d.parent

	subCatalog := p.catalog.excluding("delegate_task")
	sub := &Agent{
		instanceID:     p.instanceID,
		cfg:            p.cfg,
		providerClient: p.providerClient,
		completer:      p.completer,
		working:        memory.NewWorkingMemory(p.cfg.WorkingTokens),
		longTerm:       nil, // no new facts are extracted from a sub-agent's internal turn
		summaries:      nil,
		messages:       nil, // ephemeral: never appended to the instance's message log
		context:        p.context,
		catalog:        subCatalog,
		phase:          PhaseIdle,
	}
	sub.cfg.SystemPrompt = systemPrompt

	result, err := sub.Chat(ctx, task)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[Sub-agent '%s' completed]\n%s", taskName, result), nil
}
