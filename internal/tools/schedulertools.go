package tools

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/robfig/cron/v3"

	"github.com/ownai/ownai-core/internal/errs"
	"github.com/ownai/ownai-core/internal/ids"
)

// cronParser accepts the 5-field minimal form (min hour dom month dow) and
// the optional 6-field form with a leading seconds field.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ScheduledTask is a persisted cron-triggered prompt (spec §4.P).
type ScheduledTask struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CronExpression string `json:"cron_expression"`
	TaskPrompt     string `json:"task_prompt"`
	Enabled        bool   `json:"enabled"`
	Notify         bool   `json:"notify"`
}

// Registrar is the live scheduler seam: a create/delete tool call that
// also goes through Registrar takes effect in the running cron engine
// immediately, instead of only being picked up the next time the
// scheduler restarts and rereads the scheduled_tasks table. Nil is a
// valid Registrar — callers with no live scheduler (a one-shot CLI
// command, a test) get DB-only persistence exactly as before.
type Registrar interface {
	Register(task ScheduledTask) error
	Unregister(taskID string)
}

// CreateScheduledTaskTool registers a new cron-triggered task (spec §4.L,
// backing store shared with the scheduler, component P).
type CreateScheduledTaskTool struct {
	db         *sql.DB
	instanceID string
	registrar  Registrar
}

func NewCreateScheduledTaskTool(db *sql.DB, instanceID string, registrar Registrar) *CreateScheduledTaskTool {
	return &CreateScheduledTaskTool{db: db, instanceID: instanceID, registrar: registrar}
}

func (t *CreateScheduledTaskTool) Name() string        { return "create_scheduled_task" }
func (t *CreateScheduledTaskTool) Description() string { return "Register a cron-triggered scheduled task." }
func (t *CreateScheduledTaskTool) Schema() string {
	return objectSchema(map[string]any{
		"name":   stringProp("Task name."),
		"cron":   stringProp("Five-field cron expression."),
		"prompt": stringProp("Prompt to run when the task fires."),
		"notify": boolProp("Send a notification after the task runs (default: true)."),
	}, []string{"name", "cron", "prompt"})
}

func (t *CreateScheduledTaskTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		Name   string `json:"name"`
		Cron   string `json:"cron"`
		Prompt string `json:"prompt"`
		Notify *bool  `json:"notify"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.Name == "" || in.Cron == "" || in.Prompt == "" {
		return Err("name, cron, and prompt are required"), nil
	}
	if _, err := cronParser.Parse(in.Cron); err != nil {
		return Err("invalid cron expression: %v", err), nil
	}
	notify := true
	if in.Notify != nil {
		notify = *in.Notify
	}

	id := ids.New()
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (id, instance_id, name, cron_expression, task_prompt, enabled, notify, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, CURRENT_TIMESTAMP)
	`, id, t.instanceID, in.Name, in.Cron, in.Prompt, notify)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "create scheduled task", err)
	}

	if t.registrar != nil {
		task := ScheduledTask{ID: id, Name: in.Name, CronExpression: in.Cron, TaskPrompt: in.Prompt, Enabled: true, Notify: notify}
		if err := t.registrar.Register(task); err != nil {
			return Err("saved, but failed to schedule: %v", err), nil
		}
	}
	return &Result{Content: id}, nil
}

// ListScheduledTasksTool lists every scheduled task for the instance.
type ListScheduledTasksTool struct {
	db         *sql.DB
	instanceID string
}

func NewListScheduledTasksTool(db *sql.DB, instanceID string) *ListScheduledTasksTool {
	return &ListScheduledTasksTool{db: db, instanceID: instanceID}
}

func (t *ListScheduledTasksTool) Name() string        { return "list_scheduled_tasks" }
func (t *ListScheduledTasksTool) Description() string { return "List scheduled tasks." }
func (t *ListScheduledTasksTool) Schema() string      { return objectSchema(map[string]any{}, nil) }

func (t *ListScheduledTasksTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, name, cron_expression, task_prompt, enabled, notify FROM scheduled_tasks WHERE instance_id = ?
	`, t.instanceID)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "list scheduled tasks", err)
	}
	defer rows.Close()

	var tasks []ScheduledTask
	for rows.Next() {
		var task ScheduledTask
		var enabled, notify int
		if err := rows.Scan(&task.ID, &task.Name, &task.CronExpression, &task.TaskPrompt, &enabled, &notify); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan scheduled task", err)
		}
		task.Enabled = enabled != 0
		task.Notify = notify != 0
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "iterate scheduled tasks", err)
	}

	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	return &Result{Content: string(payload)}, nil
}

// DeleteScheduledTaskTool removes a scheduled task by id.
type DeleteScheduledTaskTool struct {
	db         *sql.DB
	instanceID string
	registrar  Registrar
}

func NewDeleteScheduledTaskTool(db *sql.DB, instanceID string, registrar Registrar) *DeleteScheduledTaskTool {
	return &DeleteScheduledTaskTool{db: db, instanceID: instanceID, registrar: registrar}
}

func (t *DeleteScheduledTaskTool) Name() string        { return "delete_scheduled_task" }
func (t *DeleteScheduledTaskTool) Description() string { return "Delete a scheduled task by id." }
func (t *DeleteScheduledTaskTool) Schema() string {
	return objectSchema(map[string]any{
		"id": stringProp("Scheduled task id."),
	}, []string{"id"})
}

func (t *DeleteScheduledTaskTool) Execute(ctx context.Context, paramsJSON string) (*Result, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeParams(paramsJSON, &in); err != nil {
		return Err("invalid parameters: %v", err), nil
	}
	if in.ID == "" {
		return Err("id is required"), nil
	}
	res, err := t.db.ExecContext(ctx, "DELETE FROM scheduled_tasks WHERE instance_id = ? AND id = ?", t.instanceID, in.ID)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "delete scheduled task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Err("scheduled task %q not found", in.ID), nil
	}
	if t.registrar != nil {
		t.registrar.Unregister(in.ID)
	}
	return &Result{Content: "deleted " + in.ID}, nil
}
