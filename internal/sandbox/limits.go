package sandbox

import "time"

// Limits bounds one script invocation (§4.J). They exist to guarantee
// termination and bounded memory for untrusted, LLM-authored scripts
// running inside a long-lived host process.
type Limits struct {
	// MaxOperations bounds the VM's running time via a step-rate-derived
	// wall-clock budget (see engine.go's watchdog) rather than a true
	// per-opcode counter: goja does not expose instruction-level
	// instrumentation through its public API. Default 100,000.
	MaxOperations int
	// MaxStringSize bounds any single string value (nested ones included)
	// the script returns, and read_file/write_file contents; http_*
	// response bodies are truncated to it. Default 1 MiB.
	MaxStringSize int
	// MaxArraySize bounds any single array/slice value. Default 10,000.
	MaxArraySize int
	// MaxMapSize bounds any single object/map value's key count. Default 5,000.
	MaxMapSize int
	// HTTPTimeout bounds a single http_* builtin call. Default 30s.
	HTTPTimeout time.Duration
}

// DefaultLimits returns the limits named in §4.J.
func DefaultLimits() Limits {
	return Limits{
		MaxOperations: 100_000,
		MaxStringSize: 1 << 20,
		MaxArraySize:  10_000,
		MaxMapSize:    5_000,
		HTTPTimeout:   30 * time.Second,
	}
}

// operationBudget converts MaxOperations into a wall-clock ceiling for the
// watchdog goroutine, calibrated at roughly 2,000,000 simple VM
// operations per second on modern hardware — an approximation, not a
// measured constant, documented as such in DESIGN.md.
func (l Limits) operationBudget() time.Duration {
	const assumedOpsPerSecond = 2_000_000
	if l.MaxOperations <= 0 {
		return time.Second
	}
	return time.Duration(l.MaxOperations) * time.Second / assumedOpsPerSecond
}
