package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ownai/ownai-core/internal/canvas"
	"github.com/ownai/ownai-core/internal/store"
)

func newTestCanvasStore(t *testing.T) *canvas.Store {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return canvas.NewStore(s.DB(), "inst-1", t.TempDir())
}

type fakeOpener struct {
	opened string
	err    error
}

func (f *fakeOpener) OpenProgram(ctx context.Context, name string) error {
	f.opened = name
	return f.err
}

func TestCreateProgramTool(t *testing.T) {
	cs := newTestCanvasStore(t)
	tool := NewCreateProgramTool(cs)
	res, err := tool.Execute(context.Background(), `{"name":"widget","description":"a widget","initial_html":"<html></html>"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError || !strings.Contains(res.Content, "widget") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestListProgramsTool(t *testing.T) {
	cs := newTestCanvasStore(t)
	if _, err := cs.Create(context.Background(), "widget", "a widget", "<html></html>"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := NewListProgramsTool(cs).Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Content, "widget") {
		t.Fatalf("expected program in list, got %q", res.Content)
	}
}

func TestListProgramsToolEmpty(t *testing.T) {
	cs := newTestCanvasStore(t)
	res, err := NewListProgramsTool(cs).Execute(context.Background(), "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "no programs" {
		t.Fatalf("content = %q, want no programs", res.Content)
	}
}

func TestOpenProgramToolInvokesOpener(t *testing.T) {
	cs := newTestCanvasStore(t)
	if _, err := cs.Create(context.Background(), "widget", "", "<html></html>"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	opener := &fakeOpener{}
	tool := NewOpenProgramTool(cs, opener)
	res, err := tool.Execute(context.Background(), `{"name":"widget"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Content)
	}
	if opener.opened != "widget" {
		t.Fatalf("opener.opened = %q, want widget", opener.opened)
	}
}

func TestOpenProgramToolUnknownProgramFails(t *testing.T) {
	cs := newTestCanvasStore(t)
	opener := &fakeOpener{}
	res, err := NewOpenProgramTool(cs, opener).Execute(context.Background(), `{"name":"nope"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected not-found error")
	}
}

func TestOpenProgramToolSurfacesOpenerError(t *testing.T) {
	cs := newTestCanvasStore(t)
	if _, err := cs.Create(context.Background(), "widget", "", "<html></html>"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	opener := &fakeOpener{err: errors.New("no window available")}
	res, err := NewOpenProgramTool(cs, opener).Execute(context.Background(), `{"name":"widget"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error from opener failure")
	}
}

func TestProgramFileToolsRoundTrip(t *testing.T) {
	cs := newTestCanvasStore(t)
	if _, err := cs.Create(context.Background(), "widget", "", "<html>v1</html>"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	writeTool := NewProgramWriteFileTool(cs)
	writeRes, err := writeTool.Execute(context.Background(), `{"name":"widget","path":"style.css","content":"body{}"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if writeRes.IsError || !strings.Contains(writeRes.Content, "1.0.1") {
		t.Fatalf("unexpected write result: %+v", writeRes)
	}

	readTool := NewProgramReadFileTool(cs)
	readRes, err := readTool.Execute(context.Background(), `{"name":"widget","path":"style.css"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if readRes.Content != "body{}" {
		t.Fatalf("content = %q", readRes.Content)
	}

	lsTool := NewProgramLsTool(cs)
	lsRes, err := lsTool.Execute(context.Background(), `{"name":"widget"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(lsRes.Content, "style.css") {
		t.Fatalf("expected style.css in listing, got %q", lsRes.Content)
	}

	editTool := NewProgramEditFileTool(cs)
	editRes, err := editTool.Execute(context.Background(), `{"name":"widget","path":"style.css","old_text":"body{}","new_text":"body{margin:0}"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if editRes.IsError || !strings.Contains(editRes.Content, "1.0.2") {
		t.Fatalf("unexpected edit result: %+v", editRes)
	}
}

func TestProgramEditFileToolRequiresOldText(t *testing.T) {
	cs := newTestCanvasStore(t)
	if _, err := cs.Create(context.Background(), "widget", "", "<html></html>"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := NewProgramEditFileTool(cs).Execute(context.Background(), `{"name":"widget","path":"index.html","old_text":"","new_text":"x"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error for missing old_text")
	}
}
