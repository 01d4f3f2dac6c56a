// Package ids provides the small identifier helpers shared across
// instances, tools, and memory entries: UUID generation and the
// semver-minor-bump scheme used to version generated tools.
package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random identifier suitable for instances, memory
// entries, tool registrations, and execution log rows.
func New() string {
	return uuid.NewString()
}

// IncrementVersion bumps the minor component of a "major.minor.patch"
// version string, resetting patch to zero (e.g. "1.0.0" -> "1.1.0").
// Strings that don't parse as three dot-separated components get ".1"
// appended rather than erroring, since a malformed stored version should
// not block re-registering a tool.
func IncrementVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) == 3 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			minor = 0
		}
		return fmt.Sprintf("%s.%d.0", parts[0], minor+1)
	}
	return version + ".1"
}
