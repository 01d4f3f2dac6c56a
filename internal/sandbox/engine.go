// Package sandbox runs untrusted, LLM-authored scripts inside an
// embedded, single-threaded JS engine with hard resource limits (§4.J):
// the deterministic half of the self-programming tool runtime, sitting
// underneath the tool registry's compile-validate-execute lifecycle.
package sandbox

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	"github.com/ownai/ownai-core/internal/errs"
)

// absoluteCeiling is a hard backstop independent of Limits.MaxOperations:
// even a script that keeps making (individually well-behaved) blocking
// HTTP calls back-to-back is eventually killed.
const absoluteCeiling = 2 * time.Minute

// Notifier delivers a send_notification builtin call to the host. A nil
// Notifier makes send_notification a no-op.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Sandbox compiles and runs scripts against one instance's workspace root.
type Sandbox struct {
	workspaceRoot string
	limits        Limits
	notifier      Notifier
}

// New returns a Sandbox scoped to workspaceRoot using DefaultLimits.
func New(workspaceRoot string, notifier Notifier) *Sandbox {
	return &Sandbox{workspaceRoot: workspaceRoot, limits: DefaultLimits(), notifier: notifier}
}

// WithLimits overrides the default resource limits (mainly for tests).
func (s *Sandbox) WithLimits(l Limits) *Sandbox {
	s.limits = l
	return s
}

// Compile validates source without executing it — the compile-validate
// half of the registry's register()/update() operations (§4.K).
func (s *Sandbox) Compile(source string) (*goja.Program, error) {
	prog, err := goja.Compile("tool", source, false)
	if err != nil {
		return nil, errs.Wrap(errs.ValidationKind, "compile script", err)
	}
	return prog, nil
}

// Run executes a compiled program with paramsJSON seeded into the
// params_json scope variable, returning the script's last evaluated
// expression rendered to string (§4.J).
func (s *Sandbox) Run(ctx context.Context, prog *goja.Program, paramsJSON string) (string, error) {
	rt := goja.New()
	rt.Set("params_json", paramsJSON)

	httpInFlight := new(int32)
	s.registerBuiltins(ctx, rt, httpInFlight)

	done := make(chan struct{})
	defer close(done)
	go s.watchdog(rt, httpInFlight, done)

	value, err := rt.RunProgram(prog)
	if err != nil {
		if ie, ok := err.(*goja.InterruptedError); ok {
			return "", errLimitExceeded(ie.Error())
		}
		return "", errs.Wrap(errs.SandboxKind, "script execution failed", err)
	}

	if err := checkValueSize(value, s.limits); err != nil {
		return "", err
	}

	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return "", nil
	}
	return value.String(), nil
}

// watchdog interrupts the VM if it runs without making forward HTTP
// progress for longer than the operation budget, or unconditionally past
// the absolute ceiling.
func (s *Sandbox) watchdog(rt *goja.Runtime, httpInFlight *int32, done <-chan struct{}) {
	budget := s.limits.operationBudget()
	start := time.Now()
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > absoluteCeiling {
				rt.Interrupt("script exceeded absolute execution ceiling")
				return
			}
			if elapsed > budget && atomic.LoadInt32(httpInFlight) == 0 {
				rt.Interrupt("script exceeded max_operations budget")
				return
			}
		}
	}
}
