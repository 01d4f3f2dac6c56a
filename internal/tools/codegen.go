package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// warnLoopWithoutBreak flags a `for`/`while` construct with no `break`
// anywhere in the source — a heuristic warning, not a hard failure,
// since a legitimately bounded loop (fixed iteration count) never
// needs one.
var loopKeyword = regexp.MustCompile(`\b(for|while)\s*\(`)

func warnLoopWithoutBreak(source string) string {
	if loopKeyword.MatchString(source) && !strings.Contains(source, "break") {
		return "warning: loop construct found with no break statement"
	}
	return ""
}

// validateParamSchema compiles a tool's declared parameter schema,
// rejecting it before it's ever handed to the registry (and from there
// the provider) if it isn't valid JSON Schema. An empty schema is fine
// — a tool may take no validated parameters.
func validateParamSchema(name, paramSchema string) error {
	if paramSchema == "" {
		return nil
	}
	if _, err := jsonschema.CompileString(name+".params.json", paramSchema); err != nil {
		return fmt.Errorf("invalid parameter schema: %w", err)
	}
	return nil
}

// CreateToolTool is a thin façade over the registry's Register,
// additionally running the Rhai-level heuristic checks named in §4.L.
type CreateToolTool struct{ registry *Registry }

func NewCreateToolTool(registry *Registry) *CreateToolTool { return &CreateToolTool{registry: registry} }

func (t *CreateToolTool) Name() string        { return "create_tool" }
func (t *CreateToolTool) Description() string { return "Register a new self-authored tool." }
func (t *CreateToolTool) Schema() string {
	return objectSchema(map[string]any{
		"name":        stringProp("Unique tool name."),
		"description": stringProp("What the tool does."),
		"source":      stringProp("Script source."),
		"params":      stringProp("JSON schema for the tool's parameters (optional)."),
	}, []string{"name", "description", "source"})
}

func (t *CreateToolTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Source      string `json:"source"`
		Params      string `json:"params"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Name == "" || in.Source == "" {
		return Err("name and source are required"), nil
	}
	if err := validateParamSchema(in.Name, in.Params); err != nil {
		return Err("%v", err), nil
	}
	rec, err := t.registry.Register(ctx, in.Name, in.Description, in.Source, in.Params)
	if err != nil {
		return Err("%v", err), nil
	}
	content := "created " + rec.Name + " v" + rec.Version
	if warning := warnLoopWithoutBreak(in.Source); warning != "" {
		content += "\n" + warning
	}
	return &Result{Content: content}, nil
}

// ReadToolTool is a thin façade over the registry's Get.
type ReadToolTool struct{ registry *Registry }

func NewReadToolTool(registry *Registry) *ReadToolTool { return &ReadToolTool{registry: registry} }

func (t *ReadToolTool) Name() string        { return "read_tool" }
func (t *ReadToolTool) Description() string { return "Read a registered tool's source and metadata." }
func (t *ReadToolTool) Schema() string {
	return objectSchema(map[string]any{
		"name": stringProp("Tool name."),
	}, []string{"name"})
}

func (t *ReadToolTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Name == "" {
		return Err("name is required"), nil
	}
	rec, err := t.registry.Get(ctx, in.Name)
	if err != nil {
		return Err("%v", err), nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return &Result{Content: string(payload)}, nil
}

// UpdateToolTool is a thin façade over the registry's Update.
type UpdateToolTool struct{ registry *Registry }

func NewUpdateToolTool(registry *Registry) *UpdateToolTool { return &UpdateToolTool{registry: registry} }

func (t *UpdateToolTool) Name() string        { return "update_tool" }
func (t *UpdateToolTool) Description() string { return "Update a registered tool's source, description, or parameter schema." }
func (t *UpdateToolTool) Schema() string {
	return objectSchema(map[string]any{
		"name":        stringProp("Tool name."),
		"source":      stringProp("New script source."),
		"description": stringProp("New description (optional)."),
		"params":      stringProp("New JSON schema for parameters (optional)."),
	}, []string{"name", "source"})
}

func (t *UpdateToolTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name        string `json:"name"`
		Source      string `json:"source"`
		Description string `json:"description"`
		Params      string `json:"params"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Name == "" || in.Source == "" {
		return Err("name and source are required"), nil
	}
	if err := validateParamSchema(in.Name, in.Params); err != nil {
		return Err("%v", err), nil
	}
	rec, err := t.registry.Update(ctx, in.Name, in.Source, in.Description, in.Params)
	if err != nil {
		return Err("%v", err), nil
	}
	content := "updated " + rec.Name + " to v" + rec.Version
	if warning := warnLoopWithoutBreak(in.Source); warning != "" {
		content += "\n" + warning
	}
	return &Result{Content: content}, nil
}
