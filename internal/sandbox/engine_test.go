package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCompileRejectsSyntaxError(t *testing.T) {
	s := New(t.TempDir(), nil)
	if _, err := s.Compile("func ( {"); err == nil {
		t.Fatal("expected compile error for malformed source")
	}
}

func TestRunReturnsLastExpressionValue(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`1 + 2`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "3" {
		t.Fatalf("got %q, want %q", out, "3")
	}
}

func TestRunExposesParamsJSON(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`JSON.parse(params_json).name`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, `{"name":"ada"}`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "ada" {
		t.Fatalf("got %q, want %q", out, "ada")
	}
}

func TestRunReturnsEmptyStringForUndefined(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`var x;`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "" {
		t.Fatalf("got %q, want empty", out)
	}
}

func TestRunInterruptsInfiniteLoop(t *testing.T) {
	s := New(t.TempDir(), nil).WithLimits(Limits{
		MaxOperations: 1000,
		MaxStringSize: 1 << 20,
		MaxArraySize:  1000,
		MaxMapSize:    1000,
		HTTPTimeout:   time.Second,
	})
	prog, err := s.Compile(`while (true) {}`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	start := time.Now()
	_, err = s.Run(context.Background(), prog, "{}")
	if err == nil {
		t.Fatal("expected interruption error for infinite loop")
	}
	if time.Since(start) > absoluteCeiling {
		t.Fatalf("watchdog took longer than absolute ceiling to interrupt")
	}
}

func TestRunRejectsOversizedStringReturn(t *testing.T) {
	s := New(t.TempDir(), nil).WithLimits(Limits{
		MaxOperations: 100_000,
		MaxStringSize: 8,
		MaxArraySize:  10,
		MaxMapSize:    10,
		HTTPTimeout:   time.Second,
	})
	prog, err := s.Compile(`"this string is definitely too long"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := s.Run(context.Background(), prog, "{}"); err == nil {
		t.Fatal("expected size-limit error")
	}
}

func TestRunReadWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	prog, err := s.Compile(`write_file("notes/a.txt", "hello"); read_file("notes/a.txt")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q, want %q", out, "hello")
	}
}

func TestRunRejectsPathTraversal(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`read_file("../outside.txt")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := s.Run(context.Background(), prog, "{}"); err == nil {
		t.Fatal("expected path traversal error")
	}
}

func TestRunRejectsNonHTTPSRequest(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`http_get("http://example.com")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = s.Run(context.Background(), prog, "{}")
	if err == nil || !strings.Contains(err.Error(), "https") {
		t.Fatalf("expected https-only error, got %v", err)
	}
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestRunSendNotificationDelegatesToNotifier(t *testing.T) {
	n := &recordingNotifier{}
	s := New(t.TempDir(), n)
	prog, err := s.Compile(`send_notification("done")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := s.Run(context.Background(), prog, "{}"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(n.messages) != 1 || n.messages[0] != "done" {
		t.Fatalf("notifier got %v, want [done]", n.messages)
	}
}

func TestRunSendNotificationNoopWithoutNotifier(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`send_notification("done")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := s.Run(context.Background(), prog, "{}"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunBase64RoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`base64_decode(base64_encode("hi there"))`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hi there" {
		t.Fatalf("got %q, want %q", out, "hi there")
	}
}

func TestRunRegexMatchAndReplace(t *testing.T) {
	s := New(t.TempDir(), nil)
	prog, err := s.Compile(`regex_match("^a+$", "aaa") + ":" + regex_replace("a", "b", "banana")`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := s.Run(context.Background(), prog, "{}")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "true:bbnbnb"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
