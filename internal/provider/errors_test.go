package provider

import (
	"errors"
	"testing"
)

func TestClassifyPatterns(t *testing.T) {
	cases := []struct {
		text string
		want FailoverReason
	}{
		{"request timed out", FailoverTimeout},
		{"429 rate limit exceeded", FailoverRateLimit},
		{"401 unauthorized: invalid api key", FailoverAuth},
		{"402 payment required, quota exceeded", FailoverBilling},
		{"model not found: gpt-bogus", FailoverModelUnavailable},
		{"500 internal server error", FailoverServerError},
		{"something unexpected", FailoverUnknown},
	}
	for _, c := range cases {
		got := Classify(errors.New(c.text))
		if got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestErrorRetryable(t *testing.T) {
	e := NewError("anthropic", "claude", errors.New("429 rate limited"))
	if !e.Retryable() {
		t.Fatal("expected rate-limit error to be retryable")
	}
	e2 := NewError("anthropic", "claude", errors.New("401 unauthorized"))
	if e2.Retryable() {
		t.Fatal("expected auth error to not be retryable")
	}
}

func TestIsRetryableUnwrapsProviderError(t *testing.T) {
	e := NewError("openai", "gpt-4o", errors.New("503 server error"))
	if !IsRetryable(e) {
		t.Fatal("expected server error to be retryable")
	}
}

func TestWithStatusReclassifies(t *testing.T) {
	e := NewError("openai", "gpt-4o", errors.New("boom"))
	e.WithStatus(429)
	if e.Reason != FailoverRateLimit {
		t.Fatalf("expected rate limit reason after WithStatus(429), got %s", e.Reason)
	}
}
