package sandbox

import (
	"path/filepath"
	"strings"
)

// SafeJoin resolves rel under root, rejecting absolute paths and any
// parent-directory traversal component (§4.J, §4.L's filesystem tools
// share this same path sandbox).
func SafeJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", errInvalidPath("empty path")
	}
	if filepath.IsAbs(rel) {
		return "", errInvalidPath("absolute paths are not allowed: " + rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errInvalidPath("parent directory traversal is not allowed: " + rel)
	}
	return filepath.Join(root, clean), nil
}
