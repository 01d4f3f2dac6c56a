package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ownai/ownai-core/internal/paths"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	t.Setenv("OWNAI_HOME", t.TempDir())
	return NewRegistry()
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRegistry(t)

	inst, err := r.Create("assistant", "anthropic", "", "be helpful")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inst.ID == "" {
		t.Fatal("expected a generated id")
	}

	got, err := r.Get(inst.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "assistant" || got.Provider != "anthropic" {
		t.Fatalf("unexpected instance: %+v", got)
	}
}

func TestGetUnknownInstanceFails(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unknown instance id")
	}
}

func TestListReturnsEveryInstance(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Create("one", "anthropic", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create("two", "openai", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d instances, want 2", len(all))
	}
}

func TestDeleteRemovesFromRegistryButKeepsDirectory(t *testing.T) {
	r := newTestRegistry(t)
	inst, err := r.Create("temp", "ollama", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.Delete(inst.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(inst.ID); err == nil {
		t.Fatal("expected error getting a deleted instance")
	}
}

func TestCreateSeedsWorkspaceBootstrapFiles(t *testing.T) {
	r := newTestRegistry(t)
	inst, err := r.Create("assistant", "anthropic", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	workspaceRoot, err := paths.InstanceWorkspaceDir(inst.ID)
	if err != nil {
		t.Fatalf("InstanceWorkspaceDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workspaceRoot, "AGENTS.md")); err != nil {
		t.Fatalf("expected AGENTS.md to be seeded: %v", err)
	}
}

func TestDeleteUnknownInstanceFails(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Delete("nope"); err == nil {
		t.Fatal("expected error deleting an unknown instance")
	}
}
