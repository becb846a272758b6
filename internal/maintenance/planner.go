package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// PlannerStore is the persistence Planner needs.
type PlannerStore interface {
	types.ItemStore
	types.TaskTypeStore
	types.TemplateStore
	types.PlanStore
}

// PlanRequest asks for a plan on one item and task type.
type PlanRequest struct {
	ItemID     string
	TaskTypeID string
	// IntervalOverride replaces the template's interval when set.
	IntervalOverride *int
	// CustomValue must be absent when the template has no schema and must
	// match the schema exactly otherwise.
	CustomValue map[string]any
}

// Planner instantiates and maintains item maintenance plans.
type Planner struct {
	store PlannerStore
	log   zerolog.Logger
}

// NewPlanner returns a Planner backed by store.
func NewPlanner(store PlannerStore, log zerolog.Logger) *Planner {
	return &Planner{store: store, log: log.With().Str("component", "planner").Logger()}
}

// InstantiatePlan creates the active plan for an item and task type from the
// active template of the item's type.
//
// Checks run in order and the first failure is returned: the item must be
// active (types.ErrNotFound), the task type must be active
// (types.ErrNotFound), a template must exist (types.ErrNotFound), no
// active plan may exist (types.ErrConflict), the effective interval must be
// positive (types.ErrValidation), and the custom value must match the
// template schema (*types.FieldError). The insert itself is conditional, so
// a caller that loses a race also gets types.ErrConflict.
func (p *Planner) InstantiatePlan(ctx context.Context, req PlanRequest) (*types.ItemMaintenancePlan, error) {
	item, err := p.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.GetTaskType(ctx, req.TaskTypeID); err != nil {
		return nil, err
	}
	tmpl, err := p.store.FindActiveTemplate(ctx, item.ItemTypeID, req.TaskTypeID)
	if err != nil {
		return nil, err
	}
	if existing, err := p.store.FindActivePlan(ctx, item.ItemID, req.TaskTypeID); err == nil {
		return nil, types.Conflictf("item %s already has active plan %s for this task type", item.ItemID, existing.PlanID)
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	days := tmpl.TimeIntervalDays
	if req.IntervalOverride != nil {
		days = *req.IntervalOverride
	}
	if days <= 0 {
		return nil, types.Validationf("time interval must be positive, got %d", days)
	}
	value, err := interval.Validate(tmpl.Schema, req.CustomValue)
	if err != nil {
		return nil, err
	}

	plan := &types.ItemMaintenancePlan{
		ItemID:           item.ItemID,
		TaskTypeID:       req.TaskTypeID,
		TemplateID:       tmpl.TemplateID,
		TimeIntervalDays: days,
		CustomValue:      value,
	}
	if err := p.store.InsertPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("instantiating plan for item %s: %w", item.ItemID, err)
	}
	p.log.Info().
		Str("plan_id", plan.PlanID).
		Str("item_id", plan.ItemID).
		Str("template_id", plan.TemplateID).
		Int("days", days).
		Bool("override", req.IntervalOverride != nil).
		Msg("plan instantiated")
	return plan, nil
}

// ListActivePlans returns an item's active plans in creation order.
func (p *Planner) ListActivePlans(ctx context.Context, itemID string) ([]*types.ItemMaintenancePlan, error) {
	if _, err := p.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return p.store.ListPlans(ctx, itemID)
}

// AuditPlans returns an item's plans in every state.
func (p *Planner) AuditPlans(ctx context.Context, itemID string) ([]*types.ItemMaintenancePlan, error) {
	return p.store.AuditPlans(ctx, itemID)
}

// UpdatePlan changes a plan's interval, custom value, or both. A nil
// argument keeps the current setting. A new custom value is validated
// against the schema of the plan's origin template, even if that template
// has since been deleted.
func (p *Planner) UpdatePlan(ctx context.Context, planID string, override *int, customValue map[string]any) (*types.ItemMaintenancePlan, error) {
	plan, err := p.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if override != nil {
		if *override <= 0 {
			return nil, types.Validationf("time interval must be positive, got %d", *override)
		}
		plan.TimeIntervalDays = *override
	}
	if customValue != nil {
		tmpl, err := p.store.AuditTemplate(ctx, plan.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("reading origin template: %w", err)
		}
		if !tmpl.State.IsActive() {
			p.log.Debug().Str("plan_id", plan.PlanID).Str("template_id", tmpl.TemplateID).
				Msg("origin template deleted, validating against its last schema")
		}
		value, err := interval.Validate(tmpl.Schema, customValue)
		if err != nil {
			return nil, err
		}
		plan.CustomValue = value
	}
	if err := p.store.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	p.log.Info().Str("plan_id", plan.PlanID).Int("days", plan.TimeIntervalDays).Msg("plan updated")
	return plan, nil
}

// SoftDeletePlan marks a plan deleted, freeing its item and task type pair.
func (p *Planner) SoftDeletePlan(ctx context.Context, planID string) error {
	if err := p.store.SoftDeletePlan(ctx, planID); err != nil {
		return err
	}
	p.log.Info().Str("plan_id", planID).Msg("plan deleted")
	return nil
}
