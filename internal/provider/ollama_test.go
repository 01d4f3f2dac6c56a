package provider

import "testing"

func TestBuildOllamaMessagesIncludesSystemAndToolName(t *testing.T) {
	req := &CompletionRequest{
		System: "be terse",
		Messages: []Message{
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "lookup"}}},
			{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "c1", Content: "42"}}},
		},
	}

	msgs := buildOllamaMessages(req)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages (system + assistant + tool), got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "be terse" {
		t.Fatalf("expected system message first, got %+v", msgs[0])
	}
	if msgs[2].Role != "tool" || msgs[2].ToolName != "lookup" {
		t.Fatalf("expected tool message to resolve tool name from prior call, got %+v", msgs[2])
	}
}

func TestOllamaToolCallKeyFallsBackToNameAndArgs(t *testing.T) {
	tc := ollamaToolCall{Function: ollamaToolFunction{Name: "search", Arguments: []byte(`{"q":"x"}`)}}
	key := ollamaToolCallKey(tc)
	if key != `search:{"q":"x"}` {
		t.Fatalf("unexpected key: %q", key)
	}
}

func TestOllamaToolCallKeyEmptyWhenNothingToIdentify(t *testing.T) {
	if key := ollamaToolCallKey(ollamaToolCall{}); key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestNewOllamaDefaultsBaseURL(t *testing.T) {
	p := NewOllama(OllamaConfig{})
	if p.baseURL != "http://localhost:11434" {
		t.Fatalf("expected default base url, got %q", p.baseURL)
	}
	if p.Name() != "ollama" {
		t.Fatalf("expected name ollama, got %q", p.Name())
	}
}

func TestNewOllamaHonorsCustomBaseURL(t *testing.T) {
	p := NewOllama(OllamaConfig{BaseURL: "http://example.internal:1234/"})
	if p.baseURL != "http://example.internal:1234" {
		t.Fatalf("expected trimmed custom base url, got %q", p.baseURL)
	}
}
