package memory

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/store"
)

// SummaryStore persists SessionSummary rows and backfills the
// summary_id back-reference onto the messages they cover.
type SummaryStore struct {
	db         *sql.DB
	instanceID string
}

// NewSummaryStore returns a SummaryStore scoped to one instance.
func NewSummaryStore(s *store.Store, instanceID string) *SummaryStore {
	return &SummaryStore{db: s.DB(), instanceID: instanceID}
}

// Save persists a summary and links every message between its start and
// end ids back to it via summary_id.
func (s *SummaryStore) Save(ctx context.Context, summary Summary, coveredMessageIDs []string) error {
	keyFacts, _ := json.Marshal(summary.KeyFacts)
	tools, _ := json.Marshal(summary.ToolsMentioned)
	topics, _ := json.Marshal(summary.Topics)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (id, instance_id, start_message_id, end_message_id, prose, key_facts, tools_mentioned, topics, timestamp, token_savings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.ID, s.instanceID, summary.StartMessageID, summary.EndMessageID, summary.Prose,
		string(keyFacts), string(tools), string(topics), summary.Timestamp, summary.TokenSavings)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "store summary", err)
	}

	for _, msgID := range coveredMessageIDs {
		if _, err := s.db.ExecContext(ctx, "UPDATE messages SET summary_id = ? WHERE id = ?", summary.ID, msgID); err != nil {
			return errs.Wrap(errs.StoreKind, "link message to summary", err)
		}
	}
	return nil
}

// Recent returns the n most recently created summaries, newest first.
func (s *SummaryStore) Recent(ctx context.Context, n int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_message_id, end_message_id, prose, key_facts, tools_mentioned, topics, timestamp, token_savings
		FROM summaries WHERE instance_id = ? ORDER BY timestamp DESC LIMIT ?
	`, s.instanceID, n)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "query recent summaries", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var keyFacts, tools, topics string
		if err := rows.Scan(&sm.ID, &sm.StartMessageID, &sm.EndMessageID, &sm.Prose, &keyFacts, &tools, &topics, &sm.Timestamp, &sm.TokenSavings); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan summary", err)
		}
		json.Unmarshal([]byte(keyFacts), &sm.KeyFacts)
		json.Unmarshal([]byte(tools), &sm.ToolsMentioned)
		json.Unmarshal([]byte(topics), &sm.Topics)
		sm.InstanceID = s.instanceID
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "iterate summaries", err)
	}
	return out, nil
}
