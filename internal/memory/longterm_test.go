package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ownai/ownai-core/internal/embedding"
	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/store"
)

func newTestLongTerm(t *testing.T) *LongTermMemory {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return NewLongTermMemory(s, "inst-1", embedding.Local(16), 16)
}

func TestStoreAndGet(t *testing.T) {
	l := newTestLongTerm(t)
	ctx := context.Background()

	e := &Entry{Content: "the user prefers dark mode", Kind: "PREFERENCE", Importance: 1.5}
	if err := l.Store(ctx, e); err != nil {
		t.Fatal(err)
	}
	if e.Importance != 1.0 {
		t.Fatalf("expected importance clamped to 1.0, got %v", e.Importance)
	}
	if e.Kind != EntryKindPreference {
		t.Fatalf("expected normalized kind preference, got %s", e.Kind)
	}

	got, err := l.Get(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != e.Content {
		t.Fatalf("expected content to round-trip, got %q", got.Content)
	}
}

func TestGetUnknownReturnsNotFound(t *testing.T) {
	l := newTestLongTerm(t)
	_, err := l.Get(context.Background(), "missing")
	if !errs.Is(err, errs.NotFoundKind) {
		t.Fatalf("expected NotFoundKind, got %v", err)
	}
}

func TestRecallRanksBySimilarityAndImportance(t *testing.T) {
	l := newTestLongTerm(t)
	ctx := context.Background()

	low := &Entry{Content: "loves pizza", Importance: 0.2}
	high := &Entry{Content: "loves pizza with extra cheese", Importance: 0.9}
	unrelated := &Entry{Content: "completely different topic about rockets", Importance: 0.9}

	for _, e := range []*Entry{low, high, unrelated} {
		if err := l.Store(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	results, err := l.Recall(ctx, "pizza", 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// low has importance 0.2 < minImportance 0.5, excluded.
	for _, r := range results {
		if r.ID == low.ID {
			t.Fatal("expected low-importance entry to be excluded by min_importance filter")
		}
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
}

func TestRecallWithZeroKReturnsEmpty(t *testing.T) {
	l := newTestLongTerm(t)
	ctx := context.Background()

	if err := l.Store(ctx, &Entry{Content: "remember this", Importance: 0.8}); err != nil {
		t.Fatal(err)
	}

	results, err := l.Recall(ctx, "remember this", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected k=0 to return no results, got %d", len(results))
	}
}

func TestRecallIncrementsAccessStats(t *testing.T) {
	l := newTestLongTerm(t)
	ctx := context.Background()

	e := &Entry{Content: "remember this", Importance: 0.8}
	if err := l.Store(ctx, e); err != nil {
		t.Fatal(err)
	}

	results, err := l.Recall(ctx, "remember this", 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].AccessCount != 1 {
		t.Fatalf("expected access_count incremented to 1, got %d", results[0].AccessCount)
	}

	got, err := l.Get(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessCount != 1 {
		t.Fatalf("expected persisted access_count 1, got %d", got.AccessCount)
	}
}

func TestDeleteUnknownIsNotAnError(t *testing.T) {
	l := newTestLongTerm(t)
	if err := l.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStoreRejectsDimensionMismatch(t *testing.T) {
	l := newTestLongTerm(t)
	l.embed = embedding.Local(8) // now mismatched with l.dimension == 16
	err := l.Store(context.Background(), &Entry{Content: "x"})
	if !errs.Is(err, errs.StoreKind) {
		t.Fatalf("expected StoreKind error for dimension mismatch, got %v", err)
	}
	if errors.Is(err, context.Canceled) {
		t.Fatal("sanity check should not match unrelated sentinel")
	}
}
