package agent

import (
	"errors"
	"testing"

	"github.com/ownai/ownai-core/internal/errs"
)

func TestClassifyToolErrorFromKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ToolErrorType
	}{
		{"not found", errs.New(errs.NotFoundKind, "no such program"), ToolErrorNotFound},
		{"validation", errs.New(errs.ValidationKind, "old_text required"), ToolErrorInvalidInput},
		{"sandbox", errs.New(errs.SandboxKind, "step limit exceeded"), ToolErrorExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyToolError(tt.err); got != tt.want {
				t.Errorf("classifyToolError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyToolErrorFromMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want ToolErrorType
	}{
		{"request timeout", ToolErrorTimeout},
		{"connection refused", ToolErrorNetwork},
		{"403 forbidden", ToolErrorPermission},
		{"missing required field", ToolErrorInvalidInput},
		{"something else broke", ToolErrorExecution},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := classifyToolError(errors.New(tt.msg)); got != tt.want {
				t.Errorf("classifyToolError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClassifyToolErrorNil(t *testing.T) {
	if got := classifyToolError(nil); got != ToolErrorUnknown {
		t.Errorf("classifyToolError(nil) = %v, want %v", got, ToolErrorUnknown)
	}
}
