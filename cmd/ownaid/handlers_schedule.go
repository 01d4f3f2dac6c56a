package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// runScheduleList prints every scheduled task row for an instance,
// enabled or not, unlike the scheduler's own startup query which only
// loads enabled tasks.
func runScheduleList(cmd *cobra.Command, instanceID string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	st, err := a.cache.StoreFor(cmd.Context(), instanceID)
	if err != nil {
		return err
	}

	rows, err := st.DB().QueryContext(cmd.Context(), `
		SELECT id, name, cron_expression, enabled, notify, last_run, last_result
		FROM scheduled_tasks WHERE instance_id = ?
	`, instanceID)
	if err != nil {
		return fmt.Errorf("query scheduled tasks: %w", err)
	}
	defer rows.Close()

	out := cmd.OutOrStdout()
	found := false
	for rows.Next() {
		var (
			id, name, cronExpr string
			enabled, notify    int
			lastRun            sql.NullTime
			lastResult         sql.NullString
		)
		if err := rows.Scan(&id, &name, &cronExpr, &enabled, &notify, &lastRun, &lastResult); err != nil {
			return fmt.Errorf("scan scheduled task: %w", err)
		}
		found = true

		status := "disabled"
		if enabled != 0 {
			status = "enabled"
		}
		fmt.Fprintf(out, "%s  %-20s  %-16s  %s\n", id, name, cronExpr, status)
		if lastRun.Valid {
			fmt.Fprintf(out, "    last run: %s\n", lastRun.Time.Format("2006-01-02 15:04:05"))
		}
		if lastResult.Valid && lastResult.String != "" {
			fmt.Fprintf(out, "    last result: %s\n", lastResult.String)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate scheduled tasks: %w", err)
	}
	if !found {
		fmt.Fprintln(out, "No scheduled tasks for this instance.")
	}
	return nil
}
