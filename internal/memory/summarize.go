package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ownai/ownai-core/internal/ids"
)

// Completer is the minimal LLM capability the summarization and fact
// extraction pipelines need: a single-shot prompt-in, text-out call. The
// real implementation is the provider abstraction (§4.M); decoupling
// through this narrow interface keeps the memory package free of any
// provider-specific wire format.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type summaryExtraction struct {
	Summary    string   `json:"summary"`
	KeyFacts   []string `json:"key_facts"`
	ToolsUsed  []string `json:"tools_used"`
	Topics     []string `json:"topics"`
}

const summarizePromptTemplate = `Summarize the following conversation turns into a JSON object with exactly these keys: "summary" (a concise prose summary), "key_facts" (array of short factual statements), "tools_used" (array of tool names mentioned), "topics" (array of topic keywords). Respond with only the JSON object, no other text.

Conversation:
%s`

// Summarize batches an evicted set of messages into a SessionSummary via
// a structured LLM extraction call (§4.G). On LLM failure it falls back
// to a deterministic stub so the turn pipeline is never blocked by
// summarization.
func Summarize(ctx context.Context, completer Completer, batch []Message) Summary {
	if len(batch) == 0 {
		return Summary{}
	}

	start := batch[0].ID
	end := batch[len(batch)-1].ID
	timestamp := batch[len(batch)-1].Timestamp

	var originalTokens int
	var transcript strings.Builder
	for _, m := range batch {
		originalTokens += m.TokenCount
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	if completer != nil {
		if summary, ok := tryLLMSummarize(ctx, completer, transcript.String()); ok {
			summary.ID = ids.New()
			summary.StartMessageID = start
			summary.EndMessageID = end
			summary.Timestamp = timestamp
			summary.TokenSavings = originalTokens - EstimateTokens(RoleSystem, summary.Prose)
			if summary.TokenSavings < 0 {
				summary.TokenSavings = 0
			}
			return summary
		}
	}

	return fallbackSummary(batch, start, end, timestamp, originalTokens)
}

func tryLLMSummarize(ctx context.Context, completer Completer, transcript string) (Summary, bool) {
	raw, err := completer.Complete(ctx, fmt.Sprintf(summarizePromptTemplate, transcript))
	if err != nil {
		return Summary{}, false
	}

	var extraction summaryExtraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &extraction); err != nil {
		return Summary{}, false
	}
	if extraction.Summary == "" {
		return Summary{}, false
	}

	return Summary{
		Prose:          extraction.Summary,
		KeyFacts:       extraction.KeyFacts,
		ToolsMentioned: extraction.ToolsUsed,
		Topics:         extraction.Topics,
	}, true
}

// fallbackSummary produces the deterministic "N user / M agent messages"
// stub with a single pseudo-fact when the LLM extractor is unavailable
// or returns something unparseable.
func fallbackSummary(batch []Message, start, end string, timestamp time.Time, originalTokens int) Summary {
	var userCount, agentCount int
	for _, m := range batch {
		switch m.Role {
		case RoleUser:
			userCount++
		case RoleAgent:
			agentCount++
		}
	}

	prose := fmt.Sprintf("%d user / %d agent messages", userCount, agentCount)

	s := Summary{
		ID:             ids.New(),
		StartMessageID: start,
		EndMessageID:   end,
		Prose:          prose,
		KeyFacts:       []string{fmt.Sprintf("message_count=%d", len(batch))},
		Timestamp:      timestamp,
		TokenSavings:   originalTokens - EstimateTokens(RoleSystem, prose),
	}
	if s.TokenSavings < 0 {
		s.TokenSavings = 0
	}
	return s
}
