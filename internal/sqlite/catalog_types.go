package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const itemTypeCols = "item_type_id, name, description, state, created_at, updated_at"

// InsertItemType stores a new active item type. Names are unique,
// case-insensitively, among active item types.
func (b *Backend) InsertItemType(ctx context.Context, it *types.ItemType) error {
	if strings.TrimSpace(it.Name) == "" {
		return types.Validationf("item type name must not be empty")
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	if it.ItemTypeID == "" {
		if it.ItemTypeID, err = newID(); err != nil {
			return err
		}
	}
	now := b.stamp()
	it.State, it.CreatedAt, it.UpdatedAt = types.LifecycleActive, now, now

	_, err = db.ExecContext(ctx,
		"INSERT INTO item_types ("+itemTypeCols+") VALUES (?, ?, ?, ?, ?, ?)",
		it.ItemTypeID, it.Name, it.Description, it.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr(fmt.Sprintf("item type named %q", it.Name), err)
	}
	return nil
}

// GetItemType returns an active item type.
func (b *Backend) GetItemType(ctx context.Context, id string) (*types.ItemType, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+itemTypeCols+" FROM item_types"+activeOnly.where("item_type_id = ?"), id)
	it, err := scanItemType(row)
	if err != nil {
		return nil, notFound(err, "item type", id)
	}
	return it, nil
}

// ListItemTypes returns active item types ordered by name.
func (b *Backend) ListItemTypes(ctx context.Context) ([]*types.ItemType, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+itemTypeCols+" FROM item_types"+activeOnly.where("")+" ORDER BY lower(name)")
	if err != nil {
		return nil, fmt.Errorf("listing item types: %w", err)
	}
	defer rows.Close()

	var out []*types.ItemType
	for rows.Next() {
		it, err := scanItemType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item type: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SoftDeleteItemType marks an item type deleted.
func (b *Backend) SoftDeleteItemType(ctx context.Context, id string) error {
	return b.softDelete(ctx, "item_types", "item_type_id", id, "item type")
}

func scanItemType(s rowScanner) (*types.ItemType, error) {
	var it types.ItemType
	var st stateTimes
	dest := append([]any{&it.ItemTypeID, &it.Name, &it.Description}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := st.apply(&it.State, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

const taskTypeCols = "task_type_id, item_type_id, name, description, state, created_at, updated_at"

// InsertTaskType stores a new active task type. Names are unique per item
// type among active rows.
func (b *Backend) InsertTaskType(ctx context.Context, tt *types.TaskType) error {
	if strings.TrimSpace(tt.Name) == "" {
		return types.Validationf("task type name must not be empty")
	}
	if tt.ItemTypeID == "" {
		return types.Validationf("task type requires an item type")
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	if tt.TaskTypeID == "" {
		if tt.TaskTypeID, err = newID(); err != nil {
			return err
		}
	}
	now := b.stamp()
	tt.State, tt.CreatedAt, tt.UpdatedAt = types.LifecycleActive, now, now

	_, err = db.ExecContext(ctx,
		"INSERT INTO task_types ("+taskTypeCols+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		tt.TaskTypeID, tt.ItemTypeID, tt.Name, tt.Description, tt.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr(fmt.Sprintf("task type named %q", tt.Name), err)
	}
	return nil
}

// GetTaskType returns an active task type.
func (b *Backend) GetTaskType(ctx context.Context, id string) (*types.TaskType, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+taskTypeCols+" FROM task_types"+activeOnly.where("task_type_id = ?"), id)
	tt, err := scanTaskType(row)
	if err != nil {
		return nil, notFound(err, "task type", id)
	}
	return tt, nil
}

// ListTaskTypes returns active task types of an item type ordered by name.
// An empty itemTypeID lists every active task type.
func (b *Backend) ListTaskTypes(ctx context.Context, itemTypeID string) ([]*types.TaskType, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + taskTypeCols + " FROM task_types"
	var args []any
	if itemTypeID != "" {
		query += activeOnly.where("item_type_id = ?")
		args = append(args, itemTypeID)
	} else {
		query += activeOnly.where("")
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY lower(name), rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("listing task types: %w", err)
	}
	defer rows.Close()

	var out []*types.TaskType
	for rows.Next() {
		tt, err := scanTaskType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task type: %w", err)
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// SoftDeleteTaskType marks a task type deleted.
func (b *Backend) SoftDeleteTaskType(ctx context.Context, id string) error {
	return b.softDelete(ctx, "task_types", "task_type_id", id, "task type")
}

func scanTaskType(s rowScanner) (*types.TaskType, error) {
	var tt types.TaskType
	var st stateTimes
	dest := append([]any{&tt.TaskTypeID, &tt.ItemTypeID, &tt.Name, &tt.Description}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := st.apply(&tt.State, &tt.CreatedAt, &tt.UpdatedAt); err != nil {
		return nil, err
	}
	return &tt, nil
}
