package agent

import (
	"context"
	"encoding/json"

	"github.com/ownai/ownai-core/internal/provider"
	"github.com/ownai/ownai-core/internal/tools"
)

// catalog is the unified dispatch table an agent presents to the
// provider: the fixed static tool set (§4.L) plus whatever dynamic
// tools (§4.K) are currently active for the instance. Static tools take
// precedence on a name collision, since they can't be deprecated or
// deleted out from under a running loop.
type catalog struct {
	static   []tools.Tool
	registry *tools.Registry
}

func newCatalog(static []tools.Tool, registry *tools.Registry) *catalog {
	return &catalog{static: static, registry: registry}
}

// addStatic appends a tool to the catalog's static list, used once a
// caller has a tool (like delegate_task) that can only be constructed
// after the agent it's attached to already exists.
func (c *catalog) addStatic(t tools.Tool) {
	c.static = append(c.static, t)
}

// excluding returns a copy of the catalog with the named static tool
// removed, used to build a sub-agent's tool list (§4.O) without
// delegate_task.
func (c *catalog) excluding(name string) *catalog {
	out := make([]tools.Tool, 0, len(c.static))
	for _, t := range c.static {
		if t.Name() == name {
			continue
		}
		out = append(out, t)
	}
	return &catalog{static: out, registry: c.registry}
}

// specs builds the provider-facing tool list: every static tool plus
// every active dynamic tool.
func (c *catalog) specs(ctx context.Context) ([]provider.ToolSpec, error) {
	out := make([]provider.ToolSpec, 0, len(c.static))
	seen := make(map[string]bool, len(c.static))
	for _, t := range c.static {
		out = append(out, provider.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      json.RawMessage(t.Schema()),
		})
		seen[t.Name()] = true
	}

	if c.registry == nil {
		return out, nil
	}
	records, err := c.registry.List(ctx, tools.StatusActive)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if seen[rec.Name] {
			continue
		}
		schema := rec.ParameterSchema
		if schema == "" {
			schema = `{"type":"object","properties":{}}`
		}
		out = append(out, provider.ToolSpec{
			Name:        rec.Name,
			Description: rec.Description,
			Schema:      json.RawMessage(schema),
		})
	}
	return out, nil
}

// execute dispatches a single tool call by name, preferring a static
// tool over a same-named dynamic one.
func (c *catalog) execute(ctx context.Context, name, paramsJSON string) (content string, isError bool, err error) {
	for _, t := range c.static {
		if t.Name() != name {
			continue
		}
		res, execErr := t.Execute(ctx, paramsJSON)
		if execErr != nil {
			return "", true, execErr
		}
		return res.Content, res.IsError, nil
	}

	if c.registry == nil {
		return "unknown tool: " + name, true, nil
	}
	output, execErr := c.registry.Execute(ctx, name, paramsJSON)
	if execErr != nil {
		return execErr.Error(), true, nil
	}
	return output, false, nil
}
