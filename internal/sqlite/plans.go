package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const planCols = "plan_id, item_id, task_type_id, template_id, time_interval_days, custom_interval_value, state, created_at, updated_at"

// InsertPlan stores a new active plan. A second active plan for the same
// (item_id, task_type_id) fails with types.ErrConflict, including when two
// callers race.
func (b *Backend) InsertPlan(ctx context.Context, p *types.ItemMaintenancePlan) error {
	if p.TimeIntervalDays <= 0 {
		return types.Validationf("time interval must be positive, got %d", p.TimeIntervalDays)
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	value, err := encodeJSON(p.CustomValue)
	if err != nil {
		return fmt.Errorf("encoding custom interval: %w", err)
	}
	if p.PlanID == "" {
		if p.PlanID, err = newID(); err != nil {
			return err
		}
	}
	now := b.stamp()
	p.State, p.CreatedAt, p.UpdatedAt = types.LifecycleActive, now, now

	_, err = db.ExecContext(ctx,
		"INSERT INTO item_maintenance_plans ("+planCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.PlanID, p.ItemID, p.TaskTypeID, p.TemplateID, p.TimeIntervalDays, value,
		p.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr("plan for this item and task type", err)
	}
	return nil
}

// GetPlan returns an active plan.
func (b *Backend) GetPlan(ctx context.Context, id string) (*types.ItemMaintenancePlan, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM item_maintenance_plans"+activeOnly.where("plan_id = ?"), id)
	p, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "plan", id)
	}
	return p, nil
}

// FindActivePlan returns the active plan for an item and task type.
func (b *Backend) FindActivePlan(ctx context.Context, itemID, taskTypeID string) (*types.ItemMaintenancePlan, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM item_maintenance_plans"+
			activeOnly.where("item_id = ? AND task_type_id = ?"),
		itemID, taskTypeID)
	p, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "plan for task type", taskTypeID)
	}
	return p, nil
}

// ListPlans returns active plans in creation order. An empty itemID lists
// plans of every item.
func (b *Backend) ListPlans(ctx context.Context, itemID string) ([]*types.ItemMaintenancePlan, error) {
	return b.listPlans(ctx, activeOnly, itemID)
}

// AuditPlans returns plans in every state, in creation order.
func (b *Backend) AuditPlans(ctx context.Context, itemID string) ([]*types.ItemMaintenancePlan, error) {
	return b.listPlans(ctx, allStates, itemID)
}

func (b *Backend) listPlans(ctx context.Context, sc scope, itemID string) ([]*types.ItemMaintenancePlan, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + planCols + " FROM item_maintenance_plans"
	var args []any
	if itemID != "" {
		query += sc.where("item_id = ?")
		args = append(args, itemID)
	} else {
		query += sc.where("")
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY created_at, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []*types.ItemMaintenancePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePlan rewrites the interval and custom value of an active plan and
// refreshes p.UpdatedAt.
func (b *Backend) UpdatePlan(ctx context.Context, p *types.ItemMaintenancePlan) error {
	if p.PlanID == "" {
		return types.ErrInvalidID
	}
	if p.TimeIntervalDays <= 0 {
		return types.Validationf("time interval must be positive, got %d", p.TimeIntervalDays)
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	value, err := encodeJSON(p.CustomValue)
	if err != nil {
		return fmt.Errorf("encoding custom interval: %w", err)
	}
	now := b.stamp()
	res, err := db.ExecContext(ctx,
		"UPDATE item_maintenance_plans SET time_interval_days = ?, custom_interval_value = ?, updated_at = ?"+
			activeOnly.where("plan_id = ?"),
		p.TimeIntervalDays, value, formatTime(now), p.PlanID,
	)
	if err != nil {
		return fmt.Errorf("updating plan %s: %w", p.PlanID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NotFoundf("plan %s", p.PlanID)
	}
	p.UpdatedAt = now
	return nil
}

// SoftDeletePlan marks a plan deleted.
func (b *Backend) SoftDeletePlan(ctx context.Context, id string) error {
	return b.softDelete(ctx, "item_maintenance_plans", "plan_id", id, "plan")
}

func scanPlan(s rowScanner) (*types.ItemMaintenancePlan, error) {
	var (
		p     types.ItemMaintenancePlan
		value sql.NullString
		st    stateTimes
	)
	dest := append([]any{&p.PlanID, &p.ItemID, &p.TaskTypeID, &p.TemplateID, &p.TimeIntervalDays, &value}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if err := decodeJSON(value, &p.CustomValue); err != nil {
		return nil, fmt.Errorf("decoding custom interval: %w", err)
	}
	if err := st.apply(&p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
