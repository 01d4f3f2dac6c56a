package sandbox

import "github.com/ownai/ownai-core/internal/errs"

func errInvalidPath(msg string) error {
	return errs.New(errs.SandboxKind, msg)
}

func errLimitExceeded(msg string) error {
	return errs.New(errs.SandboxKind, msg)
}
