package main

import "github.com/ownai/ownai-core/internal/paths"

// pathsResolver adapts internal/paths's free functions to
// canvas.ProgramRootResolver, which the canvas host uses to know which
// directory to watch for a given instance without depending on the
// instance package directly.
type pathsResolver struct{}

func (pathsResolver) InstanceProgramsDir(instanceID string) (string, error) {
	return paths.InstanceProgramsDir(instanceID)
}
