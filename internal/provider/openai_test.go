package provider

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestConvertMessagesToOpenAIIncludesSystemPrompt(t *testing.T) {
	msgs := convertMessagesToOpenAI([]Message{{Role: RoleUser, Content: "hi"}}, "be nice")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "be nice" {
		t.Fatalf("expected leading system message, got %+v", msgs[0])
	}
}

func TestConvertMessagesToOpenAIToolCallRoundTrip(t *testing.T) {
	msgs := convertMessagesToOpenAI([]Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call1", Name: "search", Input: json.RawMessage(`{"q":"go"}`)}}},
		{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "call1", Content: "result text"}}},
	}, "")

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if len(msgs[0].ToolCalls) != 1 || msgs[0].ToolCalls[0].Function.Name != "search" {
		t.Fatalf("expected tool call on assistant message, got %+v", msgs[0])
	}
	if msgs[1].Role != openai.ChatMessageRoleTool || msgs[1].ToolCallID != "call1" {
		t.Fatalf("expected tool-role message with matching call id, got %+v", msgs[1])
	}
}

func TestConvertToolsToOpenAIFallsBackOnBadSchema(t *testing.T) {
	tools := convertToolsToOpenAI([]ToolSpec{{Name: "x", Description: "d", Schema: json.RawMessage(`not json`)}})
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Name != "x" {
		t.Fatalf("expected name x, got %+v", tools[0].Function)
	}
}
