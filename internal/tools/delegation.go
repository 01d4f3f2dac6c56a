package tools

import "context"

// Delegator runs a single-level sub-agent task to completion and
// returns its final response text (spec §4.O). Implemented by the
// agent package; declared here so this package doesn't need to import
// it back (the agent package is the one that imports tools).
type Delegator interface {
	Delegate(ctx context.Context, taskName, systemPrompt, task string) (string, error)
}

// DelegateTaskTool spawns a bounded sub-agent for a scoped task. The
// sub-agent's own tool list excludes this tool, preventing recursive
// delegation (enforced by the Delegator implementation, not here).
type DelegateTaskTool struct{ delegator Delegator }

func NewDelegateTaskTool(delegator Delegator) *DelegateTaskTool {
	return &DelegateTaskTool{delegator: delegator}
}

func (t *DelegateTaskTool) Name() string        { return "delegate_task" }
func (t *DelegateTaskTool) Description() string { return "Delegate a scoped sub-task to a single-level sub-agent." }
func (t *DelegateTaskTool) Schema() string {
	return objectSchema(map[string]any{
		"task_name":     stringProp("Short label for the delegated task."),
		"system_prompt": stringProp("System prompt scoping the sub-agent."),
		"task":          stringProp("The task to complete."),
	}, []string{"task_name", "system_prompt", "task"})
}

func (t *DelegateTaskTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		TaskName     string `json:"task_name"`
		SystemPrompt string `json:"system_prompt"`
		Task         string `json:"task"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.TaskName == "" || in.Task == "" {
		return Err("task_name and task are required"), nil
	}
	result, err := t.delegator.Delegate(ctx, in.TaskName, in.SystemPrompt, in.Task)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: result}, nil
}
