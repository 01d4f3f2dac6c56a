// Package paths resolves the on-disk layout rooted at the ownai app
// directory: one instances directory holding one subtree per agent
// instance, each with its own database, tool scripts, workspace, and
// canvas programs.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = ".ownai"

// AppDir returns the root application directory (~/.ownai), creating it
// if it doesn't already exist. It honors $OWNAI_HOME for tests and
// non-standard installs before falling back to the user home directory.
func AppDir() (string, error) {
	if override := os.Getenv("OWNAI_HOME"); override != "" {
		if err := os.MkdirAll(override, 0o755); err != nil {
			return "", fmt.Errorf("create app directory: %w", err)
		}
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}

	dir := filepath.Join(home, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create app directory: %w", err)
	}
	return dir, nil
}

// InstancesDir returns ~/.ownai/instances, creating it if needed.
func InstancesDir() (string, error) {
	app, err := AppDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(app, "instances")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create instances directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns ~/.ownai/instances.json, the instance registry file.
// It does not create the file: a missing registry means zero instances.
func ConfigPath() (string, error) {
	app, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(app, "instances.json"), nil
}

// InstanceDBPath returns the SQLite database path for an instance.
func InstanceDBPath(instanceID string) (string, error) {
	instances, err := InstancesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(instances, instanceID, "ownai.db"), nil
}

// InstanceToolsDir returns the directory holding an instance's generated
// tool scripts, creating it if needed.
func InstanceToolsDir(instanceID string) (string, error) {
	return instanceSubdir(instanceID, "tools")
}

// InstanceWorkspaceDir returns an instance's sandboxed workspace root,
// creating it if needed.
func InstanceWorkspaceDir(instanceID string) (string, error) {
	return instanceSubdir(instanceID, "workspace")
}

// InstanceProgramsDir returns the directory holding an instance's canvas
// programs, creating it if needed.
func InstanceProgramsDir(instanceID string) (string, error) {
	return instanceSubdir(instanceID, "programs")
}

// ProgramDir returns the directory for a single named program within an
// instance. Unlike the other helpers it does not create the directory:
// callers create it only once the program is actually saved.
func ProgramDir(instanceID, programName string) (string, error) {
	programs, err := InstanceProgramsDir(instanceID)
	if err != nil {
		return "", err
	}
	return filepath.Join(programs, programName), nil
}

func instanceSubdir(instanceID, name string) (string, error) {
	instances, err := InstancesDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(instances, instanceID, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s directory: %w", name, err)
	}
	return dir, nil
}
