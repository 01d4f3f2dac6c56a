package memory

import (
	"context"
	"errors"
	"testing"
)

type stubCompleter struct {
	response string
	err      error
}

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestExtractFactsNilCompleterReturnsNil(t *testing.T) {
	facts := ExtractFacts(context.Background(), nil, Message{ID: "u1"}, Message{ID: "a1"})
	if facts != nil {
		t.Fatalf("expected nil, got %v", facts)
	}
}

func TestExtractFactsCompleterErrorReturnsNil(t *testing.T) {
	c := stubCompleter{err: errors.New("boom")}
	facts := ExtractFacts(context.Background(), c, Message{ID: "u1"}, Message{ID: "a1"})
	if facts != nil {
		t.Fatalf("expected nil, got %v", facts)
	}
}

func TestExtractFactsUnparseableJSONReturnsNil(t *testing.T) {
	c := stubCompleter{response: "not json at all"}
	facts := ExtractFacts(context.Background(), c, Message{ID: "u1"}, Message{ID: "a1"})
	if facts != nil {
		t.Fatalf("expected nil, got %v", facts)
	}
}

func TestExtractFactsEmptyArrayReturnsEmptySlice(t *testing.T) {
	c := stubCompleter{response: "[]"}
	facts := ExtractFacts(context.Background(), c, Message{ID: "u1"}, Message{ID: "a1"})
	if len(facts) != 0 {
		t.Fatalf("expected empty, got %v", facts)
	}
}

func TestExtractFactsSuccessNormalizesAndClamps(t *testing.T) {
	c := stubCompleter{response: `[
		{"content": "user prefers dark mode", "kind": "PREFERENCE", "importance": 1.5},
		{"content": "", "kind": "fact", "importance": 0.5},
		{"content": "unknown kind fact", "kind": "something_weird", "importance": -0.2}
	]`}
	userMsg := Message{ID: "u1"}
	agentMsg := Message{ID: "a1"}
	facts := ExtractFacts(context.Background(), c, userMsg, agentMsg)

	if len(facts) != 2 {
		t.Fatalf("expected 2 facts (empty content skipped), got %d", len(facts))
	}

	if facts[0].Kind != EntryKindPreference {
		t.Fatalf("expected normalized kind preference, got %s", facts[0].Kind)
	}
	if facts[0].Importance != 1.0 {
		t.Fatalf("expected importance clamped to 1.0, got %v", facts[0].Importance)
	}
	if len(facts[0].SourceMessageIDs) != 2 || facts[0].SourceMessageIDs[0] != "u1" || facts[0].SourceMessageIDs[1] != "a1" {
		t.Fatalf("expected source message ids [u1 a1], got %v", facts[0].SourceMessageIDs)
	}

	if facts[1].Kind != EntryKindFact {
		t.Fatalf("expected unknown kind to normalize to fact, got %s", facts[1].Kind)
	}
	if facts[1].Importance != 0.0 {
		t.Fatalf("expected importance clamped to 0.0, got %v", facts[1].Importance)
	}
}
