package tools

import (
	"context"
	"encoding/json"

	"github.com/ownai/ownai-core/internal/memory"
)

// SearchMemoryTool wraps LongTermMemory.Recall for the agent loop.
type SearchMemoryTool struct{ longTerm *memory.LongTermMemory }

func NewSearchMemoryTool(longTerm *memory.LongTermMemory) *SearchMemoryTool {
	return &SearchMemoryTool{longTerm: longTerm}
}

func (t *SearchMemoryTool) Name() string        { return "search_memory" }
func (t *SearchMemoryTool) Description() string { return "Search long-term memory for entries relevant to a query." }
func (t *SearchMemoryTool) Schema() string {
	return objectSchema(map[string]any{
		"query":          stringProp("Search query."),
		"k":              intProp("Maximum number of results (default: 5)."),
		"min_importance": map[string]any{"type": "number", "description": "Minimum importance, 0-1 (default: 0)."},
	}, []string{"query"})
}

func (t *SearchMemoryTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Query         string  `json:"query"`
		K             int     `json:"k"`
		MinImportance float32 `json:"min_importance"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Query == "" {
		return Err("query is required"), nil
	}
	if in.K <= 0 {
		in.K = 5
	}
	entries, err := t.longTerm.Recall(ctx, in.Query, in.K, in.MinImportance)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return &Result{Content: string(payload)}, nil
}

// AddMemoryTool wraps LongTermMemory.Store.
type AddMemoryTool struct{ longTerm *memory.LongTermMemory }

func NewAddMemoryTool(longTerm *memory.LongTermMemory) *AddMemoryTool {
	return &AddMemoryTool{longTerm: longTerm}
}

func (t *AddMemoryTool) Name() string        { return "add_memory" }
func (t *AddMemoryTool) Description() string { return "Store a new long-term memory entry." }
func (t *AddMemoryTool) Schema() string {
	return objectSchema(map[string]any{
		"content":    stringProp("Memory content."),
		"kind":       stringProp("Entry kind: fact, preference, skill, context, or tool_usage (default: fact)."),
		"importance": map[string]any{"type": "number", "description": "Importance, 0-1 (default: 0.7)."},
	}, []string{"content"})
}

func (t *AddMemoryTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Content    string  `json:"content"`
		Kind       string  `json:"kind"`
		Importance float32 `json:"importance"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Content == "" {
		return Err("content is required"), nil
	}
	if in.Kind == "" {
		in.Kind = string(memory.EntryKindFact)
	}
	if in.Importance == 0 {
		in.Importance = 0.7
	}
	entry := &memory.Entry{
		Content:    in.Content,
		Kind:       memory.NormalizeKind(in.Kind),
		Importance: in.Importance,
	}
	if err := t.longTerm.Store(ctx, entry); err != nil {
		return nil, err
	}
	return &Result{Content: entry.ID}, nil
}

// DeleteMemoryTool wraps LongTermMemory.Delete.
type DeleteMemoryTool struct{ longTerm *memory.LongTermMemory }

func NewDeleteMemoryTool(longTerm *memory.LongTermMemory) *DeleteMemoryTool {
	return &DeleteMemoryTool{longTerm: longTerm}
}

func (t *DeleteMemoryTool) Name() string        { return "delete_memory" }
func (t *DeleteMemoryTool) Description() string { return "Delete a long-term memory entry by id." }
func (t *DeleteMemoryTool) Schema() string {
	return objectSchema(map[string]any{
		"id": stringProp("Memory entry id."),
	}, []string{"id"})
}

func (t *DeleteMemoryTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.ID == "" {
		return Err("id is required"), nil
	}
	if err := t.longTerm.Delete(ctx, in.ID); err != nil {
		return nil, err
	}
	return &Result{Content: "deleted " + in.ID}, nil
}
