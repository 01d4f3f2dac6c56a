package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ownai/ownai-core/internal/embedding"
	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
	"github.com/ownai/ownai-core/internal/store"
)

// LongTermMemory is the vector-backed store described in §4.F: every
// entry carries a fixed-dimension embedding (computed via embedFunc at
// store time), and recall ranks by cosine similarity against a query
// embedding among rows meeting a minimum importance.
type LongTermMemory struct {
	db         *sql.DB
	instanceID string
	embed      embedding.Func
	dimension  int
}

// NewLongTermMemory returns a long-term memory store scoped to one
// instance, backed by the given store and embedding function. dimension
// is fixed for the life of the store (§4.F).
func NewLongTermMemory(s *store.Store, instanceID string, embed embedding.Func, dimension int) *LongTermMemory {
	return &LongTermMemory{db: s.DB(), instanceID: instanceID, embed: embed, dimension: dimension}
}

// Store computes an embedding for the entry's content and persists it.
// Importance is clamped to [0,1] and the embedding's length must match
// the store's fixed dimension.
func (l *LongTermMemory) Store(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.LastAccessed.IsZero() {
		e.LastAccessed = e.CreatedAt
	}
	e.Importance = ClampImportance(e.Importance)
	e.Kind = NormalizeKind(string(e.Kind))

	vec, err := l.embed(ctx, e.Content)
	if err != nil {
		return errs.Wrap(errs.ProviderKind, "embed memory entry", err)
	}
	if len(vec) != l.dimension {
		return errs.New(errs.StoreKind, fmt.Sprintf("embedding dimension %d does not match store dimension %d", len(vec), l.dimension))
	}
	e.Embedding = vec

	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "encode tags", err)
	}
	sourceIDs, err := json.Marshal(e.SourceMessageIDs)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "encode source message ids", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO memories (id, instance_id, content, kind, importance, created_at, last_accessed, access_count, tags, source_message_ids, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, l.instanceID, e.Content, string(e.Kind), e.Importance, e.CreatedAt, e.LastAccessed, e.AccessCount, string(tags), string(sourceIDs), embedding.Encode(e.Embedding))
	if err != nil {
		return errs.Wrap(errs.StoreKind, "store memory entry", err)
	}
	return nil
}

// Recall returns the top-k entries with importance >= minImportance,
// ranked by descending cosine similarity to query, ties broken by
// newer creation time first. Every returned entry's access_count is
// incremented and last_accessed set to now, persisted before return.
func (l *LongTermMemory) Recall(ctx context.Context, query string, k int, minImportance float32) ([]RecalledEntry, error) {
	if k <= 0 {
		return []RecalledEntry{}, nil
	}

	queryVec, err := l.embed(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderKind, "embed recall query", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, content, kind, importance, created_at, last_accessed, access_count, tags, source_message_ids, embedding
		FROM memories WHERE instance_id = ? AND importance >= ?
	`, l.instanceID, minImportance)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "query memories", err)
	}
	defer rows.Close()

	var candidates []RecalledEntry
	for rows.Next() {
		e, vec, err := scanEntry(rows, l.instanceID)
		if err != nil {
			return nil, err
		}
		score := embedding.CosineSimilarity(queryVec, vec)
		candidates = append(candidates, RecalledEntry{Entry: *e, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "iterate memories", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	now := time.Now()
	for i := range candidates {
		if _, err := l.db.ExecContext(ctx,
			"UPDATE memories SET access_count = access_count + 1, last_accessed = ? WHERE id = ?",
			now, candidates[i].ID,
		); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "update memory access stats", err)
		}
		candidates[i].AccessCount++
		candidates[i].LastAccessed = now
	}

	return candidates, nil
}

// Get returns a single entry by id.
func (l *LongTermMemory) Get(ctx context.Context, id string) (*Entry, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, content, kind, importance, created_at, last_accessed, access_count, tags, source_message_ids, embedding
		FROM memories WHERE instance_id = ? AND id = ?
	`, l.instanceID, id)

	e, _, err := scanEntry(row, l.instanceID)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFoundKind, fmt.Sprintf("memory %q not found", id))
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an entry by id. Deleting an unknown id is not an error.
func (l *LongTermMemory) Delete(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx, "DELETE FROM memories WHERE instance_id = ? AND id = ?", l.instanceID, id)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "delete memory entry", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner, instanceID string) (*Entry, []float32, error) {
	var e Entry
	var kind, tagsJSON, sourceIDsJSON string
	var embeddingBlob []byte

	if err := row.Scan(&e.ID, &e.Content, &kind, &e.Importance, &e.CreatedAt, &e.LastAccessed, &e.AccessCount, &tagsJSON, &sourceIDsJSON, &embeddingBlob); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, err
		}
		return nil, nil, errs.Wrap(errs.StoreKind, "scan memory entry", err)
	}

	e.InstanceID = instanceID
	e.Kind = EntryKind(kind)
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
			return nil, nil, errs.Wrap(errs.StoreKind, "decode tags", err)
		}
	}
	if sourceIDsJSON != "" {
		if err := json.Unmarshal([]byte(sourceIDsJSON), &e.SourceMessageIDs); err != nil {
			return nil, nil, errs.Wrap(errs.StoreKind, "decode source message ids", err)
		}
	}
	vec := embedding.Decode(embeddingBlob)
	e.Embedding = vec

	return &e, vec, nil
}
