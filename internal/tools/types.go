// Package tools holds the dynamic tool registry (§4.K) and the fixed
// static tool set the agent loop always exposes alongside it (§4.L).
package tools

import (
	"context"
	"fmt"
	"time"
)

// Result is a static tool's execution outcome, mirroring the dynamic
// registry's plain-string output but keeping the error/success flag the
// provider-facing tool-call loop needs to report back to the model.
type Result struct {
	Content string
	IsError bool
}

// Err builds an error Result from a message.
func Err(format string, args ...any) *Result {
	return &Result{Content: fmt.Sprintf(format, args...), IsError: true}
}

// Tool is the interface every static tool in this package implements;
// the agent loop (N) surfaces each Tool's Name/Description/Schema to the
// provider and calls Execute when the model invokes it by name.
type Tool interface {
	Name() string
	Description() string
	Schema() string // JSON schema document
	Execute(ctx context.Context, paramsJSON string) (*Result, error)
}

// Status is a dynamic tool's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Record is a single registered tool (spec §3 Tool).
type Record struct {
	ID              string
	InstanceID      string
	Name            string
	Description     string
	Version         string
	Script          string
	ParameterSchema string // JSON schema, may be empty
	Status          Status
	CreatedAt       time.Time
	LastUsed        time.Time
	UsageCount      int
	SuccessCount    int
	FailureCount    int
	ParentToolID    string
}

// Summary is the (name, description) pair surfaced to the provider for
// every active tool (spec §4.K summary()).
type Summary struct {
	Name        string
	Description string
}

// Execution is one logged run of a dynamic tool (spec §3 ToolExecution).
type Execution struct {
	ID           string
	ToolID       string
	Timestamp    time.Time
	Success      bool
	DurationMS   int64
	ErrorMessage string
	InputParams  string
	Output       string
}

// Spec is the {name, description, JSON-schema} shape every tool — static
// or dynamic — is expressed as before the provider abstraction (M)
// converts it to its native tool-call format (§4.L).
type Spec struct {
	Name        string
	Description string
	Schema      string // JSON schema document, as a string
}
