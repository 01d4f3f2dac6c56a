package tools

import (
	"context"
	"strings"

	"github.com/ownai/ownai-core/internal/canvas"
)

// ProgramOpener surfaces a canvas program to the host UI (spec §4.Q's
// open_program side effect). Declared here so this package doesn't need
// to import the runtime package that actually owns the window/webview.
type ProgramOpener interface {
	OpenProgram(ctx context.Context, programName string) error
}

// CreateProgramTool registers a new canvas program and writes its
// initial index.html.
type CreateProgramTool struct{ store *canvas.Store }

func NewCreateProgramTool(store *canvas.Store) *CreateProgramTool {
	return &CreateProgramTool{store: store}
}

func (t *CreateProgramTool) Name() string { return "create_program" }
func (t *CreateProgramTool) Description() string {
	return "Create a new canvas program (a named, versioned HTML/CSS/JS file tree)."
}
func (t *CreateProgramTool) Schema() string {
	return objectSchema(map[string]any{
		"name":         stringProp("Program name; must not contain path separators."),
		"description":  stringProp("Short description of the program."),
		"initial_html": stringProp("Initial contents of the program's index.html."),
	}, []string{"name", "initial_html"})
}

func (t *CreateProgramTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InitialHTML string `json:"initial_html"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	p, err := t.store.Create(ctx, in.Name, in.Description, in.InitialHTML)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: "created program " + p.Name + " at version " + p.Version}, nil
}

// ListProgramsTool lists every canvas program registered for the
// current instance.
type ListProgramsTool struct{ store *canvas.Store }

func NewListProgramsTool(store *canvas.Store) *ListProgramsTool {
	return &ListProgramsTool{store: store}
}

func (t *ListProgramsTool) Name() string        { return "list_programs" }
func (t *ListProgramsTool) Description() string { return "List all canvas programs for this instance." }
func (t *ListProgramsTool) Schema() string      { return objectSchema(nil, nil) }

func (t *ListProgramsTool) Execute(ctx context.Context, _ string) (*Result, error) {
	programs, err := t.store.List(ctx)
	if err != nil {
		return Err("%v", err), nil
	}
	if len(programs) == 0 {
		return &Result{Content: "no programs"}, nil
	}
	var sb strings.Builder
	for i, p := range programs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Name + " v" + p.Version + " - " + p.Description)
	}
	return &Result{Content: sb.String()}, nil
}

// OpenProgramTool surfaces a canvas program in the host UI.
type OpenProgramTool struct {
	store  *canvas.Store
	opener ProgramOpener
}

func NewOpenProgramTool(store *canvas.Store, opener ProgramOpener) *OpenProgramTool {
	return &OpenProgramTool{store: store, opener: opener}
}

func (t *OpenProgramTool) Name() string        { return "open_program" }
func (t *OpenProgramTool) Description() string { return "Open a canvas program in the host UI." }
func (t *OpenProgramTool) Schema() string {
	return objectSchema(map[string]any{
		"name": stringProp("Program name to open."),
	}, []string{"name"})
}

func (t *OpenProgramTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if _, err := t.store.Get(ctx, in.Name); err != nil {
		return Err("%v", err), nil
	}
	if err := t.opener.OpenProgram(ctx, in.Name); err != nil {
		return Err("open program: %v", err), nil
	}
	return &Result{Content: "opened " + in.Name}, nil
}

// ProgramLsTool lists a program's file tree.
type ProgramLsTool struct{ store *canvas.Store }

func NewProgramLsTool(store *canvas.Store) *ProgramLsTool { return &ProgramLsTool{store: store} }

func (t *ProgramLsTool) Name() string        { return "program_ls" }
func (t *ProgramLsTool) Description() string { return "List the files in a canvas program's file tree." }
func (t *ProgramLsTool) Schema() string {
	return objectSchema(map[string]any{
		"name": stringProp("Program name."),
	}, []string{"name"})
}

func (t *ProgramLsTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	files, err := t.store.ListFiles(ctx, in.Name)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: strings.Join(files, "\n")}, nil
}

// ProgramReadFileTool reads a file from a program's tree.
type ProgramReadFileTool struct{ store *canvas.Store }

func NewProgramReadFileTool(store *canvas.Store) *ProgramReadFileTool {
	return &ProgramReadFileTool{store: store}
}

func (t *ProgramReadFileTool) Name() string        { return "program_read_file" }
func (t *ProgramReadFileTool) Description() string { return "Read a file from a canvas program's tree." }
func (t *ProgramReadFileTool) Schema() string {
	return objectSchema(map[string]any{
		"name": stringProp("Program name."),
		"path": stringProp("File path within the program, relative to its root."),
	}, []string{"name", "path"})
}

func (t *ProgramReadFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	content, err := t.store.ReadFile(ctx, in.Name, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: content}, nil
}

// ProgramWriteFileTool writes a file into a program's tree, bumping the
// program's patch version.
type ProgramWriteFileTool struct{ store *canvas.Store }

func NewProgramWriteFileTool(store *canvas.Store) *ProgramWriteFileTool {
	return &ProgramWriteFileTool{store: store}
}

func (t *ProgramWriteFileTool) Name() string { return "program_write_file" }
func (t *ProgramWriteFileTool) Description() string {
	return "Write a file into a canvas program's tree, bumping its patch version."
}
func (t *ProgramWriteFileTool) Schema() string {
	return objectSchema(map[string]any{
		"name":    stringProp("Program name."),
		"path":    stringProp("File path within the program, relative to its root."),
		"content": stringProp("Content to write."),
	}, []string{"name", "path", "content"})
}

func (t *ProgramWriteFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	p, err := t.store.WriteFile(ctx, in.Name, in.Path, in.Content)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: "wrote " + in.Path + ", program now at v" + p.Version}, nil
}

// ProgramEditFileTool performs an exact-match find/replace within a
// program file, then bumps its patch version.
type ProgramEditFileTool struct{ store *canvas.Store }

func NewProgramEditFileTool(store *canvas.Store) *ProgramEditFileTool {
	return &ProgramEditFileTool{store: store}
}

func (t *ProgramEditFileTool) Name() string { return "program_edit_file" }
func (t *ProgramEditFileTool) Description() string {
	return "Replace a single exact occurrence of old_text with new_text in a canvas program file."
}
func (t *ProgramEditFileTool) Schema() string {
	return objectSchema(map[string]any{
		"name":     stringProp("Program name."),
		"path":     stringProp("File path within the program, relative to its root."),
		"old_text": stringProp("Exact text to find; must occur exactly once."),
		"new_text": stringProp("Replacement text."),
	}, []string{"name", "path", "old_text", "new_text"})
}

func (t *ProgramEditFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		OldText string `json:"old_text"`
		NewText string `json:"new_text"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.OldText == "" {
		return Err("old_text is required"), nil
	}
	p, err := t.store.EditFile(ctx, in.Name, in.Path, in.OldText, in.NewText)
	if err != nil {
		return Err("%v", err), nil
	}
	return &Result{Content: "edited " + in.Path + ", program now at v" + p.Version}, nil
}
