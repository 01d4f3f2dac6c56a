package memory

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultRecallLimit         = 5
	defaultRecallMinImportance = 0.5
	defaultRecentSummaryLimit  = 3
)

// ContextBuilder merges long-term recall and recent summaries into the
// prompt prefix handed to the provider (§4.I). It never includes live
// working-memory messages — those are passed to the provider separately
// as chat history to avoid duplication.
type ContextBuilder struct {
	longTerm            *LongTermMemory
	summaries           *SummaryStore
	recallLimit         int
	recallMinImportance float32
	recentSummaryLimit  int
}

// ContextBuilderOption configures a ContextBuilder at construction.
type ContextBuilderOption func(*ContextBuilder)

// WithRecallLimit overrides the default top-k recall limit (5).
func WithRecallLimit(n int) ContextBuilderOption {
	return func(b *ContextBuilder) { b.recallLimit = n }
}

// WithRecallMinImportance overrides the default recall importance floor (0.5).
func WithRecallMinImportance(min float32) ContextBuilderOption {
	return func(b *ContextBuilder) { b.recallMinImportance = min }
}

// WithRecentSummaryLimit overrides the default recent-summary count (3).
func WithRecentSummaryLimit(n int) ContextBuilderOption {
	return func(b *ContextBuilder) { b.recentSummaryLimit = n }
}

// NewContextBuilder returns a builder over the given long-term memory
// and summary stores.
func NewContextBuilder(longTerm *LongTermMemory, summaries *SummaryStore, opts ...ContextBuilderOption) *ContextBuilder {
	b := &ContextBuilder{
		longTerm:            longTerm,
		summaries:           summaries,
		recallLimit:         defaultRecallLimit,
		recallMinImportance: defaultRecallMinImportance,
		recentSummaryLimit:  defaultRecentSummaryLimit,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the context prefix for query: relevant long-term
// memories followed by recent session summaries. Either or both
// sections are omitted entirely when empty.
func (b *ContextBuilder) Build(ctx context.Context, query string) (string, error) {
	var sections []string

	// An ephemeral scheduled-task agent (§4.P) is built with no long-term
	// memory or summary store, since its turn must never read or write
	// durable instance state. A §4.O sub-agent reuses its parent's builder.
	if b.longTerm != nil {
		recalled, err := b.longTerm.Recall(ctx, query, b.recallLimit, b.recallMinImportance)
		if err != nil {
			return "", err
		}
		if len(recalled) > 0 {
			var sb strings.Builder
			sb.WriteString("## Relevant Context:\n")
			for _, r := range recalled {
				fmt.Fprintf(&sb, "- %s (Type: %s, Importance: %.2f)\n", r.Content, r.Kind, r.Importance)
			}
			sections = append(sections, strings.TrimRight(sb.String(), "\n"))
		}
	}

	if b.summaries != nil {
		recent, err := b.summaries.Recent(ctx, b.recentSummaryLimit)
		if err != nil {
			return "", err
		}
		if len(recent) > 0 {
			var sb strings.Builder
			sb.WriteString("## Recent Session Summaries:\n")
			for _, s := range recent {
				fmt.Fprintf(&sb, "- %s\n  Facts: %s\n", s.Prose, strings.Join(s.KeyFacts, ", "))
			}
			sections = append(sections, strings.TrimRight(sb.String(), "\n"))
		}
	}

	return strings.Join(sections, "\n\n"), nil
}
