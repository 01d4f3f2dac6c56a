package tools

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
	"github.com/ownai/ownai-core/internal/sandbox"
	"github.com/ownai/ownai-core/internal/store"
)

// Registry holds the {name -> compiled AST} cache described in §4.K; the
// DB is the source of truth and the cache is rebuilt lazily on first
// execute() after a process restart; update() replaces a tool's entry
// with the newly compiled program.
//
// Structural edits (register/update/delete) take the write lock;
// listing and executing take the read lock, and execute() takes the
// write lock briefly only to cache a program compiled on a cache miss.
type Registry struct {
	db         *sql.DB
	instanceID string
	sandbox    *sandbox.Sandbox

	mu    sync.RWMutex
	cache map[string]*goja.Program
}

// NewRegistry returns a tool registry scoped to one instance, sharing
// its sandbox with the static filesystem/self-programming tools.
func NewRegistry(s *store.Store, instanceID string, sb *sandbox.Sandbox) *Registry {
	return &Registry{
		db:         s.DB(),
		instanceID: instanceID,
		sandbox:    sb,
		cache:      make(map[string]*goja.Program),
	}
}

// Register compile-validates source and inserts a new tool at version
// 1.0.0, status active. Duplicate names fail.
func (r *Registry) Register(ctx context.Context, name, description, source, paramSchema string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prog, err := r.sandbox.Compile(source)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:              ids.New(),
		InstanceID:      r.instanceID,
		Name:            name,
		Description:     description,
		Version:         "1.0.0",
		Script:          source,
		ParameterSchema: paramSchema,
		Status:          StatusActive,
		CreatedAt:       time.Now(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tools (id, instance_id, name, description, version, script, parameter_schema, status, created_at, usage_count, success_count, failure_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0)
	`, rec.ID, rec.InstanceID, rec.Name, rec.Description, rec.Version, rec.Script, rec.ParameterSchema, string(rec.Status), rec.CreatedAt)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, fmt.Sprintf("register tool %q", name), err)
	}

	r.cache[name] = prog
	return rec, nil
}

// Update compile-validates new source and bumps the tool's minor
// version, replacing its cached AST. Updating a deprecated tool
// fails. Empty description/paramSchema leave the stored value unchanged.
func (r *Registry) Update(ctx context.Context, name, source, description, paramSchema string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.get(ctx, name)
	if err != nil {
		return nil, err
	}
	if rec.Status == StatusDeprecated {
		return nil, errs.New(errs.ValidationKind, fmt.Sprintf("tool %q is deprecated", name))
	}

	prog, compileErr := r.sandbox.Compile(source)
	version := ids.IncrementVersion(rec.Version)
	if compileErr != nil {
		return nil, compileErr
	}

	if description != "" {
		rec.Description = description
	}
	if paramSchema != "" {
		rec.ParameterSchema = paramSchema
	}
	rec.Script = source
	rec.Version = version

	_, err = r.db.ExecContext(ctx, `
		UPDATE tools SET description = ?, script = ?, parameter_schema = ?, version = ?
		WHERE instance_id = ? AND name = ?
	`, rec.Description, rec.Script, rec.ParameterSchema, rec.Version, r.instanceID, name)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, fmt.Sprintf("update tool %q", name), err)
	}

	delete(r.cache, name)
	r.cache[name] = prog
	return rec, nil
}

// Delete marks a tool deprecated and evicts it from the AST cache. It
// remains queryable by Get but can no longer be executed or updated.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE tools SET status = ? WHERE instance_id = ? AND name = ?",
		StatusDeprecated, r.instanceID, name)
	if err != nil {
		return errs.Wrap(errs.StoreKind, fmt.Sprintf("deprecate tool %q", name), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.New(errs.NotFoundKind, fmt.Sprintf("tool %q not found", name))
	}
	delete(r.cache, name)
	return nil
}

// Get returns a tool record by name regardless of status.
func (r *Registry) Get(ctx context.Context, name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(ctx, name)
}

func (r *Registry) get(ctx context.Context, name string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, instance_id, name, description, version, script, parameter_schema, status, created_at, last_used, usage_count, success_count, failure_count, parent_tool_id
		FROM tools WHERE instance_id = ? AND name = ?
	`, r.instanceID, name)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFoundKind, fmt.Sprintf("tool %q not found", name))
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns every tool with the given status, or every tool if status
// is empty.
func (r *Registry) List(ctx context.Context, status Status) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, instance_id, name, description, version, script, parameter_schema, status, created_at, last_used, usage_count, success_count, failure_count, parent_tool_id FROM tools WHERE instance_id = ?`
	args := []any{r.instanceID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "list tools", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Summaries returns (name, description) pairs for every active tool,
// the shape surfaced to the provider's tool list (§4.K summary()).
func (r *Registry) Summaries(ctx context.Context) ([]Summary, error) {
	records, err := r.List(ctx, StatusActive)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(records))
	for i, rec := range records {
		out[i] = Summary{Name: rec.Name, Description: rec.Description}
	}
	return out, nil
}

// Execute runs a tool by name against paramsJSON, logging a ToolExecution
// row and updating usage/success/failure counters regardless of outcome.
// Deprecated tools are rejected before execution.
func (r *Registry) Execute(ctx context.Context, name, paramsJSON string) (string, error) {
	r.mu.RLock()
	rec, err := r.get(ctx, name)
	if err != nil {
		r.mu.RUnlock()
		return "", err
	}
	if rec.Status == StatusDeprecated {
		r.mu.RUnlock()
		return "", errs.New(errs.ValidationKind, fmt.Sprintf("tool %q is deprecated", name))
	}

	prog, ok := r.cache[name]
	r.mu.RUnlock()

	if !ok {
		prog, err = r.sandbox.Compile(rec.Script)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.cache[name] = prog
		r.mu.Unlock()
	}

	start := time.Now()
	output, runErr := r.sandbox.Run(ctx, prog, paramsJSON)
	duration := time.Since(start)

	if err := r.logExecution(ctx, rec.ID, output, runErr, duration, paramsJSON); err != nil {
		return "", err
	}
	if runErr != nil {
		return "", runErr
	}
	return output, nil
}

func (r *Registry) logExecution(ctx context.Context, toolID, output string, runErr error, duration time.Duration, paramsJSON string) error {
	success := runErr == nil
	var errMsg string
	if runErr != nil {
		errMsg = runErr.Error()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tool_executions (id, tool_id, timestamp, success, duration_ms, error_message, input_params, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ids.New(), toolID, time.Now(), success, duration.Milliseconds(), errMsg, paramsJSON, output)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "log tool execution", err)
	}

	successDelta, failureDelta := 0, 0
	if success {
		successDelta = 1
	} else {
		failureDelta = 1
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE tools SET usage_count = usage_count + 1, success_count = success_count + ?, failure_count = failure_count + ?, last_used = ?
		WHERE id = ?
	`, successDelta, failureDelta, time.Now(), toolID)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "update tool usage stats", err)
	}
	return nil
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var status string
	var lastUsed sql.NullTime
	var parentToolID sql.NullString

	if err := row.Scan(&rec.ID, &rec.InstanceID, &rec.Name, &rec.Description, &rec.Version, &rec.Script, &rec.ParameterSchema, &status, &rec.CreatedAt, &lastUsed, &rec.UsageCount, &rec.SuccessCount, &rec.FailureCount, &parentToolID); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if lastUsed.Valid {
		rec.LastUsed = lastUsed.Time
	}
	rec.ParentToolID = parentToolID.String
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}
