package memory

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
	"github.com/ownai/ownai-core/internal/store"
)

// MessageStore persists the append-only conversation history backing
// working memory, so a restarted instance can reload its most recent
// turns and the summarization/fact-extraction pipeline has durable rows
// to read batches from.
type MessageStore struct {
	db         *sql.DB
	instanceID string
}

// NewMessageStore returns a message store scoped to one instance.
func NewMessageStore(s *store.Store, instanceID string) *MessageStore {
	return &MessageStore{db: s.DB(), instanceID: instanceID}
}

// Append persists one message, assigning it an id and timestamp if
// unset, and returns the stored message.
func (s *MessageStore) Append(ctx context.Context, msg Message) (Message, error) {
	if msg.ID == "" {
		msg.ID = ids.New()
	}
	msg.InstanceID = s.instanceID
	if msg.TokenCount == 0 {
		msg.TokenCount = EstimateTokens(msg.Role, msg.Content)
	}

	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return Message{}, errs.Wrap(errs.StoreKind, "encode message metadata", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, instance_id, role, content, timestamp, token_count, metadata, summary_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.InstanceID, string(msg.Role), msg.Content, msg.Timestamp, msg.TokenCount, string(metadata), msg.SummaryID)
	if err != nil {
		return Message{}, errs.Wrap(errs.StoreKind, "append message", err)
	}
	return msg, nil
}

// Recent returns the n most recently persisted messages for this
// instance, oldest first (ready to feed straight into WorkingMemory).
func (s *MessageStore) Recent(ctx context.Context, n int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp, token_count, metadata, summary_id
		FROM messages WHERE instance_id = ? ORDER BY timestamp DESC LIMIT ?
	`, s.instanceID, n)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "query recent messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var role, metadata string
		var summaryID sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Timestamp, &m.TokenCount, &metadata, &summaryID); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan message", err)
		}
		m.InstanceID = s.instanceID
		m.Role = Role(role)
		if metadata != "" {
			json.Unmarshal([]byte(metadata), &m.Metadata)
		}
		m.SummaryID = summaryID.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "iterate messages", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Unsummarized returns messages with no summary_id yet, oldest first,
// for the summarization pipeline to batch.
func (s *MessageStore) Unsummarized(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp, token_count, metadata, summary_id
		FROM messages WHERE instance_id = ? AND (summary_id IS NULL OR summary_id = '')
		ORDER BY timestamp ASC LIMIT ?
	`, s.instanceID, limit)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "query unsummarized messages", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var role, metadata string
		var summaryID sql.NullString
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Timestamp, &m.TokenCount, &metadata, &summaryID); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan message", err)
		}
		m.InstanceID = s.instanceID
		m.Role = Role(role)
		if metadata != "" {
			json.Unmarshal([]byte(metadata), &m.Metadata)
		}
		m.SummaryID = summaryID.String
		out = append(out, m)
	}
	return out, rows.Err()
}
