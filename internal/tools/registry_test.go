package tools

import (
	"context"
	"testing"

	"github.com/ownai/ownai-core/internal/sandbox"
	"github.com/ownai/ownai-core/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	sb := sandbox.New(t.TempDir(), nil)
	return NewRegistry(s, "inst-1", sb)
}

func TestRegisterCreatesActiveV1(t *testing.T) {
	r := newTestRegistry(t)
	rec, err := r.Register(context.Background(), "greet", "says hi", `"hello"`, "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Version != "1.0.0" {
		t.Fatalf("version = %q, want 1.0.0", rec.Version)
	}
	if rec.Status != StatusActive {
		t.Fatalf("status = %q, want active", rec.Status)
	}
}

func TestRegisterRejectsInvalidScript(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Register(context.Background(), "broken", "", "func ( {", ""); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "greet", "", `"hi"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register(ctx, "greet", "", `"hi again"`, ""); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestUpdateBumpsMinorVersion(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "greet", "", `"hi"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec, err := r.Update(ctx, "greet", `"hi there"`, "", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Version != "1.1.0" {
		t.Fatalf("version = %q, want 1.1.0", rec.Version)
	}
}

func TestUpdateRejectsDeprecatedTool(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "greet", "", `"hi"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Delete(ctx, "greet"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Update(ctx, "greet", `"hi again"`, "", ""); err == nil {
		t.Fatal("expected deprecated-tool error")
	}
}

func TestDeleteRemovesFromActiveList(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "greet", "", `"hi"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Delete(ctx, "greet"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	active, err := r.List(ctx, StatusActive)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active tools, got %d", len(active))
	}
}

func TestDeleteUnknownToolFails(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Delete(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestExecuteUpdatesUsageStats(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "add", "", `JSON.parse(params_json).a + JSON.parse(params_json).b`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := r.Execute(ctx, "add", `{"a":2,"b":3}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "5" {
		t.Fatalf("got %q, want 5", out)
	}

	rec, err := r.Get(ctx, "add")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.UsageCount != 1 || rec.SuccessCount != 1 || rec.FailureCount != 0 {
		t.Fatalf("usage stats = %+v", rec)
	}
}

func TestExecuteRejectsDeprecatedTool(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "greet", "", `"hi"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Delete(ctx, "greet"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Execute(ctx, "greet", "{}"); err == nil {
		t.Fatal("expected deprecated-tool error")
	}
}

func TestSummariesOnlyListsActiveTools(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	if _, err := r.Register(ctx, "a", "tool a", `"a"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register(ctx, "b", "tool b", `"b"`, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	summaries, err := r.Summaries(ctx)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "a" {
		t.Fatalf("summaries = %+v", summaries)
	}
}
