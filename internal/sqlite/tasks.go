package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const taskCols = "task_id, item_id, task_type_id, completed_at, cost, notes, details, state, created_at, updated_at"

// InsertTask records a completed task.
func (b *Backend) InsertTask(ctx context.Context, t *types.Task) error {
	if t.ItemID == "" || t.TaskTypeID == "" {
		return types.Validationf("task requires an item and a task type")
	}
	if t.CompletedAt.IsZero() {
		return types.Validationf("task requires a completion date")
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	details, err := encodeJSON(t.Details)
	if err != nil {
		return types.Validationf("task details are not serializable: %v", err)
	}
	if t.TaskID == "" {
		if t.TaskID, err = newID(); err != nil {
			return err
		}
	}
	var cost sql.NullFloat64
	if t.Cost != nil {
		cost = sql.NullFloat64{Float64: *t.Cost, Valid: true}
	}
	now := b.stamp()
	t.CompletedAt = types.DateOf(t.CompletedAt)
	t.State, t.CreatedAt, t.UpdatedAt = types.LifecycleActive, now, now

	_, err = db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.TaskID, t.ItemID, t.TaskTypeID, formatDate(t.CompletedAt), cost, t.Notes, details,
		t.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr("task "+t.TaskID, err)
	}
	return nil
}

// GetTask returns an active task.
func (b *Backend) GetTask(ctx context.Context, id string) (*types.Task, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, "SELECT "+taskCols+" FROM tasks"+activeOnly.where("task_id = ?"), id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return t, nil
}

// ListTasks returns an item's active tasks, most recent completion first.
func (b *Backend) ListTasks(ctx context.Context, itemID string) ([]*types.Task, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+taskCols+" FROM tasks"+activeOnly.where("item_id = ?")+
			" ORDER BY completed_at DESC, rowid DESC", itemID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// LastCompleted returns the latest completion date among active tasks for an
// item and task type.
func (b *Backend) LastCompleted(ctx context.Context, itemID, taskTypeID string) (time.Time, bool, error) {
	db, err := b.conn()
	if err != nil {
		return time.Time{}, false, err
	}
	var s string
	err = db.QueryRowContext(ctx,
		"SELECT completed_at FROM tasks"+activeOnly.where("item_id = ? AND task_type_id = ?")+
			" ORDER BY completed_at DESC LIMIT 1",
		itemID, taskTypeID,
	).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading task history: %w", err)
	}
	d, err := parseDate(s)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

// SoftDeleteTask marks a task deleted, removing it from the history used for
// due dates.
func (b *Backend) SoftDeleteTask(ctx context.Context, id string) error {
	return b.softDelete(ctx, "tasks", "task_id", id, "task")
}

func scanTask(s rowScanner) (*types.Task, error) {
	var (
		t         types.Task
		completed string
		cost      sql.NullFloat64
		details   sql.NullString
		st        stateTimes
	)
	dest := append([]any{&t.TaskID, &t.ItemID, &t.TaskTypeID, &completed, &cost, &t.Notes, &details}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	d, err := parseDate(completed)
	if err != nil {
		return nil, err
	}
	t.CompletedAt = d
	if cost.Valid {
		t.Cost = &cost.Float64
	}
	if err := decodeJSON(details, &t.Details); err != nil {
		return nil, fmt.Errorf("decoding task details: %w", err)
	}
	if err := st.apply(&t.State, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
