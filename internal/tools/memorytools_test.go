package tools

import (
	"context"
	"testing"

	"github.com/ownai/ownai-core/internal/embedding"
	"github.com/ownai/ownai-core/internal/memory"
	"github.com/ownai/ownai-core/internal/store"
)

func newTestLongTerm(t *testing.T) *memory.LongTermMemory {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return memory.NewLongTermMemory(s, "inst-1", embedding.Local(16), 16)
}

func TestAddAndSearchMemory(t *testing.T) {
	lt := newTestLongTerm(t)
	addTool := NewAddMemoryTool(lt)
	res, err := addTool.Execute(context.Background(), `{"content":"the sky is blue"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError || res.Content == "" {
		t.Fatalf("expected an id, got %+v", res)
	}

	searchTool := NewSearchMemoryTool(lt)
	searchRes, err := searchTool.Execute(context.Background(), `{"query":"sky color"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if searchRes.IsError {
		t.Fatalf("unexpected error: %s", searchRes.Content)
	}
}

func TestSearchMemoryRequiresQuery(t *testing.T) {
	lt := newTestLongTerm(t)
	res, err := NewSearchMemoryTool(lt).Execute(context.Background(), `{}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for missing query")
	}
}

func TestDeleteMemoryRemovesEntry(t *testing.T) {
	lt := newTestLongTerm(t)
	addRes, err := NewAddMemoryTool(lt).Execute(context.Background(), `{"content":"temporary fact"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	delRes, err := NewDeleteMemoryTool(lt).Execute(context.Background(), `{"id":"`+addRes.Content+`"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if delRes.IsError {
		t.Fatalf("unexpected error: %s", delRes.Content)
	}
}

func TestDeleteMemoryRequiresID(t *testing.T) {
	lt := newTestLongTerm(t)
	res, err := NewDeleteMemoryTool(lt).Execute(context.Background(), `{}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for missing id")
	}
}
