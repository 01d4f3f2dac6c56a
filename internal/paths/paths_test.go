package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OWNAI_HOME", dir)
	return dir
}

func TestAppDirCreatesDirectory(t *testing.T) {
	home := withTempHome(t)
	dir, err := AppDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != home {
		t.Fatalf("expected %s, got %s", home, dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected app dir to exist: %v", err)
	}
}

func TestInstancesDirNestedUnderAppDir(t *testing.T) {
	home := withTempHome(t)
	dir, err := InstancesDir()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "instances")
	if dir != want {
		t.Fatalf("expected %s, got %s", want, dir)
	}
}

func TestConfigPathDoesNotCreateFile(t *testing.T) {
	withTempHome(t)
	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected instances.json to not exist yet, got err=%v", err)
	}
}

func TestInstanceSubdirsAreCreated(t *testing.T) {
	withTempHome(t)
	const id = "inst-1"

	for name, fn := range map[string]func(string) (string, error){
		"tools":     InstanceToolsDir,
		"workspace": InstanceWorkspaceDir,
		"programs":  InstanceProgramsDir,
	} {
		dir, err := fn(id)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("%s: expected directory to exist: %v", name, err)
		}
	}
}

func TestInstanceDBPath(t *testing.T) {
	home := withTempHome(t)
	path, err := InstanceDBPath("inst-1")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(home, "instances", "inst-1", "ownai.db")
	if path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
}

func TestProgramDirDoesNotCreateDirectory(t *testing.T) {
	withTempHome(t)
	dir, err := ProgramDir("inst-1", "my-program")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected program dir to not exist yet, got err=%v", err)
	}
}
