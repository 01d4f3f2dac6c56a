package agent

import (
	"context"
	"strings"

	"github.com/ownai/ownai-core/internal/provider"
)

// providerCompleter adapts a streaming provider.Provider to the narrow
// single-shot memory.Completer interface the summarization and fact
// extraction pipelines depend on, so neither package needs to know about
// the other's wire format.
type providerCompleter struct {
	p     provider.Provider
	model string
}

func newProviderCompleter(p provider.Provider, model string) *providerCompleter {
	return &providerCompleter{p: p, model: model}
}

// Complete issues a single-turn, tool-free completion and accumulates the
// streamed chunks into one string.
func (c *providerCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.p == nil {
		return "", errNoProvider
	}

	req := &provider.CompletionRequest{
		Model:    c.model,
		Messages: []provider.Message{{Role: provider.RoleUser, Content: prompt}},
	}

	chunks, err := c.p.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		sb.WriteString(chunk.Text)
		if chunk.Done {
			break
		}
	}
	return sb.String(), nil
}
