package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ownai/ownai-core/internal/errs"
)

// TodoStatus is one planning item's lifecycle state.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

func validTodoStatus(s TodoStatus) bool {
	switch s {
	case TodoPending, TodoInProgress, TodoCompleted:
		return true
	default:
		return false
	}
}

// Todo is a single planning item, persisted as JSON under the
// user_profile table's "todos:"+instanceID key (built by TodoStore,
// matching how §4.L describes planning as instance-scoped state rather
// than a dedicated schema table).
type Todo struct {
	ID       string     `json:"id"`
	Context  string     `json:"context"`
	Priority string     `json:"priority"`
	Status   TodoStatus `json:"status"`
}

// TodoStore persists the planning list for one instance.
type TodoStore struct {
	db         *sql.DB
	instanceID string
}

// NewTodoStore returns a todo store scoped to one instance.
func NewTodoStore(db *sql.DB, instanceID string) *TodoStore {
	return &TodoStore{db: db, instanceID: instanceID}
}

func (s *TodoStore) key() string { return "todos:" + s.instanceID }

func (s *TodoStore) load(ctx context.Context) ([]Todo, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM user_profile WHERE key = ?", s.key()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "load todos", err)
	}
	var todos []Todo
	if err := json.Unmarshal([]byte(value), &todos); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "decode todos", err)
	}
	return todos, nil
}

func (s *TodoStore) save(ctx context.Context, todos []Todo) error {
	payload, err := json.Marshal(todos)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "encode todos", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profile (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.key(), string(payload))
	if err != nil {
		return errs.Wrap(errs.StoreKind, "save todos", err)
	}
	return nil
}

// WriteTodosTool appends new items and applies status updates to
// existing ones in a single call (spec §4.L).
type WriteTodosTool struct{ store *TodoStore }

func NewWriteTodosTool(store *TodoStore) *WriteTodosTool { return &WriteTodosTool{store: store} }

func (t *WriteTodosTool) Name() string { return "write_todos" }
func (t *WriteTodosTool) Description() string {
	return "Add new planning items and/or update the status of existing ones."
}
func (t *WriteTodosTool) Schema() string {
	return objectSchema(map[string]any{
		"context": stringProp("Overall context for this planning update (optional)."),
		"new_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"context":  stringProp("What this item covers."),
					"priority": stringProp("Priority label, e.g. high/medium/low."),
				},
			},
			"description": "New todo items to add.",
		},
		"updates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":     stringProp("Existing todo id to update."),
					"status": stringProp("New status: pending, in_progress, or completed."),
				},
			},
			"description": "Status updates for existing items.",
		},
	}, nil)
}

func (t *WriteTodosTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Context  string `json:"context"`
		NewItems []struct {
			Context  string `json:"context"`
			Priority string `json:"priority"`
		} `json:"new_items"`
		Updates []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"updates"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}

	todos, err := t.store.load(ctx)
	if err != nil {
		return nil, err
	}

	base := len(todos)
	for i, item := range in.NewItems {
		todos = append(todos, Todo{
			ID:       fmt.Sprintf("todo-%d", base+i+1),
			Context:  item.Context,
			Priority: item.Priority,
			Status:   TodoPending,
		})
	}

	for _, upd := range in.Updates {
		status := TodoStatus(upd.Status)
		if !validTodoStatus(status) {
			return Err("unknown status %q for %s", upd.Status, upd.ID), nil
		}
		found := false
		for i := range todos {
			if todos[i].ID == upd.ID {
				todos[i].Status = status
				found = true
				break
			}
		}
		if !found {
			return Err("todo %q not found", upd.ID), nil
		}
	}

	if err := t.store.save(ctx, todos); err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(todos)
	return &Result{Content: string(payload)}, nil
}

// ReadTodosTool returns the current planning list.
type ReadTodosTool struct{ store *TodoStore }

func NewReadTodosTool(store *TodoStore) *ReadTodosTool { return &ReadTodosTool{store: store} }

func (t *ReadTodosTool) Name() string        { return "read_todos" }
func (t *ReadTodosTool) Description() string { return "List the current planning items." }
func (t *ReadTodosTool) Schema() string      { return objectSchema(map[string]any{}, nil) }

func (t *ReadTodosTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	todos, err := t.store.load(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(todos)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "encode todos", err)
	}
	return &Result{Content: string(payload)}, nil
}
