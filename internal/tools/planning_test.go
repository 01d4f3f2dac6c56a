package tools

import (
	"context"
	"testing"

	"github.com/ownai/ownai-core/internal/store"
)

func newTestTodoStore(t *testing.T) *TodoStore {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewTodoStore(s.DB(), "inst-1")
}

func TestWriteTodosAddsNewItems(t *testing.T) {
	ts := newTestTodoStore(t)
	tool := NewWriteTodosTool(ts)
	res, err := tool.Execute(context.Background(), `{"new_items":[{"context":"do thing","priority":"high"}]}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}

	read, err := NewReadTodosTool(ts).Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if read.Content == "null" || read.Content == "" {
		t.Fatalf("expected todos, got %q", read.Content)
	}
}

func TestWriteTodosAppliesStatusUpdate(t *testing.T) {
	ts := newTestTodoStore(t)
	tool := NewWriteTodosTool(ts)
	if _, err := tool.Execute(context.Background(), `{"new_items":[{"context":"a","priority":"low"}]}`); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	res, err := tool.Execute(context.Background(), `{"updates":[{"id":"todo-1","status":"completed"}]}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
}

func TestWriteTodosRejectsUnknownStatus(t *testing.T) {
	ts := newTestTodoStore(t)
	tool := NewWriteTodosTool(ts)
	if _, err := tool.Execute(context.Background(), `{"new_items":[{"context":"a","priority":"low"}]}`); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	res, err := tool.Execute(context.Background(), `{"updates":[{"id":"todo-1","status":"bogus"}]}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for unknown status")
	}
}

func TestWriteTodosRejectsUnknownID(t *testing.T) {
	ts := newTestTodoStore(t)
	tool := NewWriteTodosTool(ts)
	res, err := tool.Execute(context.Background(), `{"updates":[{"id":"todo-99","status":"completed"}]}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for unknown id")
	}
}

func TestReadTodosEmptyIsNull(t *testing.T) {
	ts := newTestTodoStore(t)
	res, err := NewReadTodosTool(ts).Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "null" {
		t.Fatalf("content = %q, want null", res.Content)
	}
}
