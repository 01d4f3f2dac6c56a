package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type extractedFact struct {
	Content    string  `json:"content"`
	Kind       string  `json:"kind"`
	Importance float32 `json:"importance"`
}

const factExtractionPromptTemplate = `Extract any durable facts, preferences, skills, or tool-usage notes worth remembering from the following exchange. Respond with a JSON array of objects, each with keys "content" (a short self-contained statement), "kind" (one of: fact, preference, skill, context, tool_usage), and "importance" (a number 0-1). If nothing is worth remembering, respond with an empty JSON array [].

Exchange:
User: %s
Agent: %s`

// ExtractFacts runs a structured extraction over a completed user<->agent
// exchange (§4.H). Each extracted item becomes an Entry referencing the
// source message ids; unknown kind strings normalize to "fact" and
// importance is clamped to [0,1]. An LLM failure or unparseable response
// yields an empty, non-error result: fact extraction never fails the
// user turn.
func ExtractFacts(ctx context.Context, completer Completer, userMsg, agentMsg Message) []Entry {
	if completer == nil {
		return nil
	}

	prompt := fmt.Sprintf(factExtractionPromptTemplate, userMsg.Content, agentMsg.Content)
	raw, err := completer.Complete(ctx, prompt)
	if err != nil {
		return nil
	}

	var extracted []extractedFact
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &extracted); err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(extracted))
	for _, f := range extracted {
		content := strings.TrimSpace(f.Content)
		if content == "" {
			continue
		}
		entries = append(entries, Entry{
			Content:          content,
			Kind:             NormalizeKind(f.Kind),
			Importance:       ClampImportance(f.Importance),
			SourceMessageIDs: []string{userMsg.ID, agentMsg.ID},
		})
	}
	return entries
}
