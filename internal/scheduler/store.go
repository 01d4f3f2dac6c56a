package scheduler

import (
	"context"
	"database/sql"
	"time"

	"github.com/ownai/ownai-core/internal/errs"
)

const maxResultChars = 2000

// LoadEnabledTasksFromDB returns every enabled scheduled task in one
// instance's database. Exported so a Backend implementation spanning
// several per-instance databases (one process, many instance stores) can
// reuse the scan logic per store rather than duplicating it.
func LoadEnabledTasksFromDB(ctx context.Context, db *sql.DB) ([]Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, instance_id, name, cron_expression, task_prompt, enabled, notify
		FROM scheduled_tasks WHERE enabled = 1
	`)
	if err != nil {
		return nil, errs.Wrap(errs.StoreKind, "load enabled scheduled tasks", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var enabled, notify int
		if err := rows.Scan(&t.ID, &t.InstanceID, &t.Name, &t.CronExpr, &t.Prompt, &enabled, &notify); err != nil {
			return nil, errs.Wrap(errs.StoreKind, "scan scheduled task", err)
		}
		t.Enabled = enabled != 0
		t.Notify = notify != 0
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StoreKind, "iterate scheduled tasks", err)
	}
	return tasks, nil
}

func recordResult(ctx context.Context, db *sql.DB, taskID, result string, at time.Time) error {
	if len(result) > maxResultChars {
		result = result[:maxResultChars]
	}
	_, err := db.ExecContext(ctx, `
		UPDATE scheduled_tasks SET last_result = ?, last_run = ? WHERE id = ?
	`, result, at, taskID)
	if err != nil {
		return errs.Wrap(errs.StoreKind, "record scheduled task result", err)
	}
	return nil
}
