package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ownai/ownai-core/internal/sandbox"
)

// LsTool lists a workspace directory's immediate children.
type LsTool struct{ root string }

func NewLsTool(root string) *LsTool { return &LsTool{root: root} }

func (t *LsTool) Name() string        { return "ls" }
func (t *LsTool) Description() string { return "List files and directories at a workspace-relative path." }
func (t *LsTool) Schema() string {
	return objectSchema(map[string]any{
		"path": stringProp("Directory to list, relative to the workspace root (default: \".\")."),
	}, nil)
}

func (t *LsTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Path == "" {
		in.Path = "."
	}
	resolved, err := sandbox.SafeJoin(t.root, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return Err("list directory: %v", err), nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Result{Content: strings.Join(names, "\n")}, nil
}

// ReadFileTool reads a workspace file, optionally sliced by 1-indexed
// line bounds.
type ReadFileTool struct{ root string }

func NewReadFileTool(root string) *ReadFileTool { return &ReadFileTool{root: root} }

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read a workspace file, optionally restricted to a 1-indexed line range."
}
func (t *ReadFileTool) Schema() string {
	return objectSchema(map[string]any{
		"path":       stringProp("File to read, relative to the workspace root."),
		"start_line": intProp("1-indexed first line to include (optional)."),
		"end_line":   intProp("1-indexed last line to include, inclusive (optional)."),
	}, []string{"path"})
}

func (t *ReadFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Path      string `json:"path"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Path == "" {
		return Err("path is required"), nil
	}
	resolved, err := sandbox.SafeJoin(t.root, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Err("read file: %v", err), nil
	}
	if in.StartLine <= 0 && in.EndLine <= 0 {
		return &Result{Content: string(data)}, nil
	}
	lines := strings.Split(string(data), "\n")
	start := in.StartLine
	if start <= 0 {
		start = 1
	}
	end := in.EndLine
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) || start > end {
		return &Result{Content: ""}, nil
	}
	return &Result{Content: strings.Join(lines[start-1:end], "\n")}, nil
}

// WriteFileTool writes a workspace file, creating parent directories.
type WriteFileTool struct{ root string }

func NewWriteFileTool(root string) *WriteFileTool { return &WriteFileTool{root: root} }

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write content to a workspace file, creating parent directories as needed." }
func (t *WriteFileTool) Schema() string {
	return objectSchema(map[string]any{
		"path":    stringProp("File to write, relative to the workspace root."),
		"content": stringProp("Content to write."),
	}, []string{"path", "content"})
}

func (t *WriteFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Path == "" {
		return Err("path is required"), nil
	}
	resolved, err := sandbox.SafeJoin(t.root, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return Err("create directory: %v", err), nil
	}
	if err := os.WriteFile(resolved, []byte(in.Content), 0o644); err != nil {
		return Err("write file: %v", err), nil
	}
	return &Result{Content: fmt.Sprintf("wrote %d bytes to %s", len(in.Content), in.Path)}, nil
}

// EditFileTool performs an exact-match, single-occurrence find/replace.
type EditFileTool struct{ root string }

func NewEditFileTool(root string) *EditFileTool { return &EditFileTool{root: root} }

func (t *EditFileTool) Name() string { return "edit_file" }
func (t *EditFileTool) Description() string {
	return "Replace a single exact occurrence of old_text with new_text in a workspace file."
}
func (t *EditFileTool) Schema() string {
	return objectSchema(map[string]any{
		"path":     stringProp("File to edit, relative to the workspace root."),
		"old_text": stringProp("Exact text to find; must occur exactly once."),
		"new_text": stringProp("Replacement text."),
	}, []string{"path", "old_text", "new_text"})
}

func (t *EditFileTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Path    string `json:"path"`
		OldText string `json:"old_text"`
		NewText string `json:"new_text"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Path == "" || in.OldText == "" {
		return Err("path and old_text are required"), nil
	}
	resolved, err := sandbox.SafeJoin(t.root, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Err("read file: %v", err), nil
	}
	content := string(data)
	count := strings.Count(content, in.OldText)
	if count == 0 {
		return Err("old_text not found in %s", in.Path), nil
	}
	if count > 1 {
		return Err("old_text occurs %d times in %s; must be unique", count, in.Path), nil
	}
	updated := strings.Replace(content, in.OldText, in.NewText, 1)
	if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
		return Err("write file: %v", err), nil
	}
	return &Result{Content: fmt.Sprintf("edited %s", in.Path)}, nil
}

// GrepTool does a substring scan over workspace files, optionally
// recursive.
type GrepTool struct{ root string }

func NewGrepTool(root string) *GrepTool { return &GrepTool{root: root} }

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search workspace files for a substring, optionally recursing into subdirectories." }
func (t *GrepTool) Schema() string {
	return objectSchema(map[string]any{
		"pattern":   stringProp("Substring to search for."),
		"path":      stringProp("Directory to search, relative to the workspace root (default: \".\")."),
		"recursive": boolProp("Recurse into subdirectories (default: false)."),
	}, []string{"pattern"})
}

func (t *GrepTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Pattern   string `json:"pattern"`
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Pattern == "" {
		return Err("pattern is required"), nil
	}
	if in.Path == "" {
		in.Path = "."
	}
	root, err := sandbox.SafeJoin(t.root, in.Path)
	if err != nil {
		return Err("%v", err), nil
	}

	var matches []string
	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !in.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		rel, _ := filepath.Rel(t.root, path)
		for i, line := range strings.Split(string(data), "\n") {
			if strings.Contains(line, in.Pattern) {
				matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, line))
			}
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return Err("search: %v", err), nil
	}
	return &Result{Content: strings.Join(matches, "\n")}, nil
}

func decodeParams(paramsJSON string, v any) error {
	if paramsJSON == "" {
		return nil
	}
	return json.Unmarshal([]byte(paramsJSON), v)
}

func objectSchema(props map[string]any, required []string) string {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	out, err := json.Marshal(schema)
	if err != nil {
		return `{"type":"object"}`
	}
	return string(out)
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}
