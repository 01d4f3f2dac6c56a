package sandbox

import "testing"

func TestSafeJoinRejectsEmpty(t *testing.T) {
	if _, err := SafeJoin("/root", ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSafeJoinRejectsAbsolute(t *testing.T) {
	if _, err := SafeJoin("/root", "/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path")
	}
}

func TestSafeJoinRejectsParentTraversal(t *testing.T) {
	if _, err := SafeJoin("/root", "../escape.txt"); err == nil {
		t.Fatal("expected error for parent traversal")
	}
	if _, err := SafeJoin("/root", "a/../../escape.txt"); err == nil {
		t.Fatal("expected error for nested parent traversal")
	}
}

func TestSafeJoinAllowsNestedRelativePath(t *testing.T) {
	got, err := SafeJoin("/root", "notes/a.txt")
	if err != nil {
		t.Fatalf("safeJoin: %v", err)
	}
	want := "/root/notes/a.txt"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
