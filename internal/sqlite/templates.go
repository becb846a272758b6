package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const templateCols = "template_id, item_type_id, task_type_id, time_interval_days, custom_interval_schema, state, created_at, updated_at"

// InsertTemplate stores a new active template. The partial unique index on
// (item_type_id, task_type_id) makes this a conditional insert: a second
// active template for the pair fails with types.ErrConflict.
func (b *Backend) InsertTemplate(ctx context.Context, t *types.MaintenanceTemplate) error {
	if t.TimeIntervalDays <= 0 {
		return types.Validationf("time interval must be positive, got %d", t.TimeIntervalDays)
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	schema, err := encodeJSON(t.Schema)
	if err != nil {
		return fmt.Errorf("encoding interval schema: %w", err)
	}
	if t.TemplateID == "" {
		if t.TemplateID, err = newID(); err != nil {
			return err
		}
	}
	now := b.stamp()
	t.State, t.CreatedAt, t.UpdatedAt = types.LifecycleActive, now, now

	_, err = db.ExecContext(ctx,
		"INSERT INTO maintenance_templates ("+templateCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.TemplateID, t.ItemTypeID, t.TaskTypeID, t.TimeIntervalDays, schema,
		t.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr("template for this item type and task type", err)
	}
	return nil
}

// GetTemplate returns an active template.
func (b *Backend) GetTemplate(ctx context.Context, id string) (*types.MaintenanceTemplate, error) {
	return b.getTemplate(ctx, activeOnly, id)
}

// AuditTemplate returns a template in any state.
func (b *Backend) AuditTemplate(ctx context.Context, id string) (*types.MaintenanceTemplate, error) {
	return b.getTemplate(ctx, allStates, id)
}

func (b *Backend) getTemplate(ctx context.Context, sc scope, id string) (*types.MaintenanceTemplate, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+templateCols+" FROM maintenance_templates"+sc.where("template_id = ?"), id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	return t, nil
}

// FindActiveTemplate returns the active template for an item type and task
// type pair.
func (b *Backend) FindActiveTemplate(ctx context.Context, itemTypeID, taskTypeID string) (*types.MaintenanceTemplate, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+templateCols+" FROM maintenance_templates"+
			activeOnly.where("item_type_id = ? AND task_type_id = ?"),
		itemTypeID, taskTypeID)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(err, "template for task type", taskTypeID)
	}
	return t, nil
}

// ListTemplates returns active templates in creation order. An empty
// itemTypeID lists templates of every item type.
func (b *Backend) ListTemplates(ctx context.Context, itemTypeID string) ([]*types.MaintenanceTemplate, error) {
	return b.listTemplates(ctx, activeOnly, itemTypeID)
}

// AuditTemplates returns templates in every state, in creation order.
func (b *Backend) AuditTemplates(ctx context.Context, itemTypeID string) ([]*types.MaintenanceTemplate, error) {
	return b.listTemplates(ctx, allStates, itemTypeID)
}

func (b *Backend) listTemplates(ctx context.Context, sc scope, itemTypeID string) ([]*types.MaintenanceTemplate, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + templateCols + " FROM maintenance_templates"
	var args []any
	if itemTypeID != "" {
		query += sc.where("item_type_id = ?")
		args = append(args, itemTypeID)
	} else {
		query += sc.where("")
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY created_at, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []*types.MaintenanceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SoftDeleteTemplate marks a template deleted. Plans instantiated from it
// are not touched.
func (b *Backend) SoftDeleteTemplate(ctx context.Context, id string) error {
	return b.softDelete(ctx, "maintenance_templates", "template_id", id, "template")
}

func scanTemplate(s rowScanner) (*types.MaintenanceTemplate, error) {
	var (
		t      types.MaintenanceTemplate
		schema sql.NullString
		st     stateTimes
	)
	dest := append([]any{&t.TemplateID, &t.ItemTypeID, &t.TaskTypeID, &t.TimeIntervalDays, &schema}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := decodeJSON(schema, &t.Schema); err != nil {
		return nil, fmt.Errorf("decoding interval schema: %w", err)
	}
	if err := st.apply(&t.State, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
