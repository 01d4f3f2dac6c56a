package agent

import (
	"errors"
	"strings"

	"github.com/ownai/ownai-core/internal/errs"
)

// Sentinel errors surfaced by the agent loop.
var (
	errNoProvider    = errs.New(errs.ConfigKind, "agent has no provider configured")
	errMaxIterations = errs.New(errs.ProviderKind, "tool loop exceeded max_turns")
)

// LoopPhase is a state in the agent's per-turn state machine (§4.N):
// Idle -> AwaitingProvider -> Streaming -> Persisting -> Idle, with a
// tool-execution detour looping back to Streaming.
type LoopPhase string

const (
	PhaseIdle             LoopPhase = "idle"
	PhaseAwaitingProvider LoopPhase = "awaiting_provider"
	PhaseStreaming        LoopPhase = "streaming"
	PhaseExecutingTools   LoopPhase = "executing_tools"
	PhasePersisting       LoopPhase = "persisting"
)

// ToolErrorType categorizes a tool execution failure by cause (missing
// tool, bad input, timeout, network, permission, execution). The agent
// loop itself does not consult it: every tool failure is returned to
// the model as an error tool result.
type ToolErrorType string

const (
	ToolErrorNotFound     ToolErrorType = "not_found"
	ToolErrorInvalidInput ToolErrorType = "invalid_input"
	ToolErrorTimeout      ToolErrorType = "timeout"
	ToolErrorNetwork      ToolErrorType = "network"
	ToolErrorPermission   ToolErrorType = "permission"
	ToolErrorExecution    ToolErrorType = "execution"
	ToolErrorUnknown      ToolErrorType = "unknown"
)

// classifyToolError infers a ToolErrorType from an error's message. Tool
// scripts run inside the sandbox report plain errors, not a structured
// type, so classification is done lexically the same way the sandbox's
// own errs.Classify does for store/provider failures.
func classifyToolError(err error) ToolErrorType {
	if err == nil {
		return ToolErrorUnknown
	}
	var kindErr *errs.Error
	if errors.As(err, &kindErr) {
		switch kindErr.Kind {
		case errs.NotFoundKind:
			return ToolErrorNotFound
		case errs.ValidationKind:
			return ToolErrorInvalidInput
		case errs.SandboxKind:
			return ToolErrorExecution
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return ToolErrorTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "unreachable"):
		return ToolErrorNetwork
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "permission"):
		return ToolErrorPermission
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "required") || strings.Contains(msg, "missing"):
		return ToolErrorInvalidInput
	default:
		return ToolErrorExecution
	}
}
