// Package instance owns the top-level instance registry and the live
// agent cache (§4.R): one entry per instance-id, created lazily and
// idempotently, wiring together the provider, memory stack, sandbox,
// tool registry, and static tool set built by every other package.
package instance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
	"github.com/ownai/ownai-core/internal/paths"
	"github.com/ownai/ownai-core/internal/workspace"
)

// AIInstance is one row of the instance registry (~/.ownai/instances.json).
type AIInstance struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"` // "anthropic", "openai", or "ollama"
	Model        string    `json:"model,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Registry is the JSON-backed id -> AIInstance mapping at
// ~/.ownai/instances.json. It has no in-memory cache of its own:
// every call re-reads/re-writes the file, since instance creation and
// deletion are rare, low-frequency operations relative to chat turns.
type Registry struct{}

// NewRegistry returns a Registry over the on-disk instances.json file.
func NewRegistry() *Registry {
	return &Registry{}
}

// List returns every registered instance.
func (r *Registry) List() ([]AIInstance, error) {
	all, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]AIInstance, 0, len(all))
	for _, inst := range all {
		out = append(out, inst)
	}
	return out, nil
}

// Get returns one instance by id.
func (r *Registry) Get(id string) (AIInstance, error) {
	all, err := r.load()
	if err != nil {
		return AIInstance{}, err
	}
	inst, ok := all[id]
	if !ok {
		return AIInstance{}, errs.New(errs.NotFoundKind, "instance not found: "+id)
	}
	return inst, nil
}

// Create registers a new instance and creates its on-disk directory
// layout (db path, workspace, programs, tools dirs).
func (r *Registry) Create(name, providerTag, model, systemPrompt string) (AIInstance, error) {
	all, err := r.load()
	if err != nil {
		return AIInstance{}, err
	}

	inst := AIInstance{
		ID:           ids.New(),
		Name:         name,
		Provider:     providerTag,
		Model:        model,
		SystemPrompt: systemPrompt,
		CreatedAt:    time.Now(),
	}

	workspaceRoot, err := paths.InstanceWorkspaceDir(inst.ID)
	if err != nil {
		return AIInstance{}, err
	}
	if _, err := paths.InstanceProgramsDir(inst.ID); err != nil {
		return AIInstance{}, err
	}
	toolsDir, err := paths.InstanceToolsDir(inst.ID)
	if err != nil {
		return AIInstance{}, err
	}
	if err := os.MkdirAll(filepath.Join(toolsDir, "scripts"), 0o755); err != nil {
		return AIInstance{}, errs.Wrap(errs.StoreKind, "create tools/scripts dir", err)
	}
	if _, err := workspace.EnsureWorkspaceFiles(workspaceRoot, workspace.DefaultBootstrapFiles(), false); err != nil {
		return AIInstance{}, errs.Wrap(errs.StoreKind, "seed workspace files", err)
	}

	all[inst.ID] = inst
	if err := r.save(all); err != nil {
		return AIInstance{}, err
	}
	return inst, nil
}

// Delete removes an instance from the registry. It does not delete the
// instance's on-disk directory — deliberately: losing history to a
// typo'd id is worse than an orphaned directory an operator can clean
// up by hand.
func (r *Registry) Delete(id string) error {
	all, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return errs.New(errs.NotFoundKind, "instance not found: "+id)
	}
	delete(all, id)
	return r.save(all)
}

func (r *Registry) load() (map[string]AIInstance, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]AIInstance), nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "read instance registry", err)
	}
	if len(data) == 0 {
		return make(map[string]AIInstance), nil
	}

	var all map[string]AIInstance
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "decode instance registry", err)
	}
	if all == nil {
		all = make(map[string]AIInstance)
	}
	return all, nil
}

func (r *Registry) save(all map[string]AIInstance) error {
	path, err := paths.ConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errs.Wrap(errs.StoreKind, "encode instance registry", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.StoreKind, "write instance registry", err)
	}
	return nil
}
