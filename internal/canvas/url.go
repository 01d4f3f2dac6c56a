// Package canvas implements the versioned HTML/CSS/JS program store
// served through the custom ownai-program:// URL scheme (§4.Q): a
// per-instance set of named program directories, each semver-patch
// versioned, with a bridge script injected into served HTML so program
// JS can call back into the host over postMessage RPC.
package canvas

import (
	"fmt"
	"strings"
)

const urlPrefix = "ownai-program://localhost/"

// defaultFile is served when a URL names no file path.
const defaultFile = "index.html"

// ParseURL extracts (instanceID, programName, filePath) from a
// ownai-program://localhost/{instance_id}/{program_name}[/{file_path}]
// URL. A missing file path defaults to "index.html".
func ParseURL(raw string) (instanceID, programName, filePath string, err error) {
	if !strings.HasPrefix(raw, urlPrefix) {
		return "", "", "", fmt.Errorf("not an ownai-program:// URL: %s", raw)
	}
	rest := strings.TrimPrefix(raw, urlPrefix)
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("malformed ownai-program:// URL, expected /{instance_id}/{program_name}[/{file_path}]: %s", raw)
	}
	instanceID = parts[0]
	programName = parts[1]
	filePath = defaultFile
	if len(parts) == 3 && parts[2] != "" {
		filePath = parts[2]
	}
	return instanceID, programName, filePath, nil
}
