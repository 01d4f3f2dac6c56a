package canvas

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
)

// Program is a canvas program's metadata row.
type Program struct {
	ID          string
	InstanceID  string
	Name        string
	Description string
	Version     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store owns the programs/program_data tables and the on-disk program
// file trees for one instance.
type Store struct {
	db           *sql.DB
	instanceID   string
	programsRoot string // <instance root>/programs
}

// NewStore returns a canvas store scoped to one instance, rooted at
// programsRoot (internal/paths.InstanceProgramsDir).
func NewStore(db *sql.DB, instanceID, programsRoot string) *Store {
	return &Store{db: db, instanceID: instanceID, programsRoot: programsRoot}
}

// validateProgramName rejects names containing path separators or
// parent-directory components (§4.Q load() step 1).
func validateProgramName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return errs.New(errs.ValidationKind, fmt.Sprintf("invalid program name: %q", name))
	}
	return nil
}

// validateFilePath rejects absolute paths or any parent-dir component
// (§4.Q load() step 2; the same sandbox semantics as §4.J/§4.L).
func validateFilePath(path string) error {
	if path == "" {
		return errs.New(errs.ValidationKind, "file path is required")
	}
	if filepath.IsAbs(path) {
		return errs.New(errs.ValidationKind, fmt.Sprintf("absolute file paths are not allowed: %s", path))
	}
	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errs.New(errs.ValidationKind, fmt.Sprintf("file path escapes program directory: %s", path))
	}
	return nil
}

func (s *Store) programDir(name string) string {
	return filepath.Join(s.programsRoot, name)
}

// Create registers a new program at version 1.0.0 and writes its
// initial HTML to index.html.
func (s *Store) Create(ctx context.Context, name, description, initialHTML string) (*Program, error) {
	if err := validateProgramName(name); err != nil {
		return nil, err
	}

	p := &Program{
		ID:          ids.New(),
		InstanceID:  s.instanceID,
		Name:        name,
		Description: description,
		Version:     "1.0.0",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (id, instance_id, name, description, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.InstanceID, p.Name, p.Description, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, errs.Wrap(errs.ValidationKind, fmt.Sprintf("create program %q", name), err)
	}

	dir := s.programDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "create program directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, defaultFile), []byte(initialHTML), 0o644); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "write initial program file", err)
	}
	return p, nil
}

// List returns every program registered for this instance.
func (s *Store) List(ctx context.Context) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, name, description, version, created_at, updated_at FROM programs WHERE instance_id = ?
	`, s.instanceID)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "list programs", err)
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.InstanceID, &p.Name, &p.Description, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan program", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns a single program by name.
func (s *Store) Get(ctx context.Context, name string) (*Program, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instance_id, name, description, version, created_at, updated_at FROM programs WHERE instance_id = ? AND name = ?
	`, s.instanceID, name)
	var p Program
	err := row.Scan(&p.ID, &p.InstanceID, &p.Name, &p.Description, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFoundKind, fmt.Sprintf("program %q not found", name))
	}
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "get program", err)
	}
	return &p, nil
}

// ListFiles lists a program's file tree relative to its root.
func (s *Store) ListFiles(ctx context.Context, name string) ([]string, error) {
	if _, err := s.Get(ctx, name); err != nil {
		return nil, err
	}
	root := s.programDir(name)
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "list program files", err)
	}
	return files, nil
}

// ReadFile reads a single file from a program's tree.
func (s *Store) ReadFile(ctx context.Context, name, path string) (string, error) {
	if _, err := s.Get(ctx, name); err != nil {
		return "", err
	}
	if err := validateFilePath(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.programDir(name), path))
	if err != nil {
		return "", errs.Wrap(errs.NotFoundKind, fmt.Sprintf("read program file %s/%s", name, path), err)
	}
	return string(data), nil
}

// WriteFile writes a file within a program's tree and bumps the
// program's version via semver-patch (X.Y.Z -> X.Y.(Z+1)), per §4.L.
func (s *Store) WriteFile(ctx context.Context, name, path, content string) (*Program, error) {
	p, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := validateFilePath(path); err != nil {
		return nil, err
	}

	full := filepath.Join(s.programDir(name), path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "create program subdirectory", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "write program file", err)
	}

	p.Version = bumpPatch(p.Version)
	p.UpdatedAt = time.Now()
	_, err = s.db.ExecContext(ctx, "UPDATE programs SET version = ?, updated_at = ? WHERE instance_id = ? AND name = ?",
		p.Version, p.UpdatedAt, s.instanceID, name)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "update program version", err)
	}
	return p, nil
}

// EditFile performs an exact-match single-occurrence find/replace
// within a program file, then bumps the version the same way WriteFile
// does.
func (s *Store) EditFile(ctx context.Context, name, path, oldText, newText string) (*Program, error) {
	current, err := s.ReadFile(ctx, name, path)
	if err != nil {
		return nil, err
	}
	count := strings.Count(current, oldText)
	if count == 0 {
		return nil, errs.New(errs.ValidationKind, fmt.Sprintf("old_text not found in %s/%s", name, path))
	}
	if count > 1 {
		return nil, errs.New(errs.ValidationKind, fmt.Sprintf("old_text occurs %d times in %s/%s; must be unique", count, name, path))
	}
	updated := strings.Replace(current, oldText, newText, 1)
	return s.WriteFile(ctx, name, path, updated)
}

// bumpPatch increments the patch component of a "major.minor.patch"
// version string, matching §4.L's program version semantics (distinct
// from the tool registry's minor-bump scheme in §4.K).
func bumpPatch(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return version + ".1"
	}
	var major, minor, patch int
	if _, err := fmt.Sscanf(strings.Join(parts, " "), "%d %d %d", &major, &minor, &patch); err != nil {
		return version + ".1"
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}

// StoreData persists a key/value pair under a program's ProgramData
// scope (§4.Q's storeData bridge method).
func (s *Store) StoreData(ctx context.Context, programName, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO program_data (program_name, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(program_name, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, programName, key, value, time.Now())
	if err != nil {
		return errs.Wrap(errs.StoreKind, "store program data", err)
	}
	return nil
}

// LoadData reads a previously stored key/value pair, returning "" if
// absent (§4.Q's loadData bridge method).
func (s *Store) LoadData(ctx context.Context, programName, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM program_data WHERE program_name = ? AND key = ?", programName, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errs.Wrap(errs.StoreKind, "load program data", err)
	}
	return value, nil
}

// Load resolves a file within a program's tree, returning its bytes,
// guessed MIME type, and (for text/html) the bridge-injected content —
// the custom URL scheme handler's core operation (§4.Q).
func (s *Store) Load(ctx context.Context, programName, filePath string) (content []byte, mime string, err error) {
	if err := validateProgramName(programName); err != nil {
		return nil, "", err
	}
	if err := validateFilePath(filePath); err != nil {
		return nil, "", err
	}
	if _, err := s.Get(ctx, programName); err != nil {
		return nil, "", err
	}

	full := filepath.Join(s.programDir(programName), filePath)
	data, readErr := os.ReadFile(full)
	if readErr != nil {
		return nil, "", errs.Wrap(errs.NotFoundKind, fmt.Sprintf("program file %s/%s not found", programName, filePath), readErr)
	}

	mime = guessMIME(filePath)
	if mime == "text/html" {
		return []byte(injectBridge(string(data))), mime, nil
	}
	return data, mime, nil
}
