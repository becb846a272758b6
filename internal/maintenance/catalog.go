package maintenance

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// CatalogStore is the persistence Catalog needs.
type CatalogStore interface {
	types.ItemTypeStore
	types.TaskTypeStore
	types.TemplateStore
}

// TemplateSpec describes a template to create.
type TemplateSpec struct {
	ItemTypeID       string
	TaskTypeID       string
	TimeIntervalDays int
	// Schema is nil for templates without a custom interval.
	Schema types.IntervalSchema
}

// Catalog manages maintenance templates.
type Catalog struct {
	store CatalogStore
	log   zerolog.Logger
}

// NewCatalog returns a Catalog backed by store.
func NewCatalog(store CatalogStore, log zerolog.Logger) *Catalog {
	return &Catalog{store: store, log: log.With().Str("component", "catalog").Logger()}
}

// CreateTemplate stores a new active template for an item type and task type.
//
// It fails with types.ErrValidation when the interval is not positive, the
// schema is malformed, or the task type belongs to another item type; with
// types.ErrNotFound when either type is missing or deleted; and with
// types.ErrConflict when the pair already has an active template.
func (c *Catalog) CreateTemplate(ctx context.Context, spec TemplateSpec) (*types.MaintenanceTemplate, error) {
	if spec.TimeIntervalDays <= 0 {
		return nil, types.Validationf("time interval must be positive, got %d", spec.TimeIntervalDays)
	}
	schema, err := interval.ValidateSchema(spec.Schema)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetItemType(ctx, spec.ItemTypeID); err != nil {
		return nil, err
	}
	tt, err := c.store.GetTaskType(ctx, spec.TaskTypeID)
	if err != nil {
		return nil, err
	}
	if tt.ItemTypeID != spec.ItemTypeID {
		return nil, types.Validationf("task type %q belongs to another item type", tt.Name)
	}

	tmpl := &types.MaintenanceTemplate{
		ItemTypeID:       spec.ItemTypeID,
		TaskTypeID:       spec.TaskTypeID,
		TimeIntervalDays: spec.TimeIntervalDays,
		Schema:           schema,
	}
	if err := c.store.InsertTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("creating template for %q: %w", tt.Name, err)
	}
	c.log.Info().
		Str("template_id", tmpl.TemplateID).
		Str("task_type", tt.Name).
		Int("days", tmpl.TimeIntervalDays).
		Strs("fields", schema.Names()).
		Msg("template created")
	return tmpl, nil
}

// ListActiveTemplates returns the active templates of an item type in
// creation order.
func (c *Catalog) ListActiveTemplates(ctx context.Context, itemTypeID string) ([]*types.MaintenanceTemplate, error) {
	return c.store.ListTemplates(ctx, itemTypeID)
}

// GetTemplate returns an active template.
func (c *Catalog) GetTemplate(ctx context.Context, id string) (*types.MaintenanceTemplate, error) {
	return c.store.GetTemplate(ctx, id)
}

// AuditTemplates returns the templates of an item type in every state.
func (c *Catalog) AuditTemplates(ctx context.Context, itemTypeID string) ([]*types.MaintenanceTemplate, error) {
	return c.store.AuditTemplates(ctx, itemTypeID)
}

// SoftDeleteTemplate marks a template deleted. Plans created from it keep
// their fields and stay active. Deleting twice is not an error.
func (c *Catalog) SoftDeleteTemplate(ctx context.Context, id string) error {
	if err := c.store.SoftDeleteTemplate(ctx, id); err != nil {
		return err
	}
	c.log.Info().Str("template_id", id).Msg("template deleted")
	return nil
}
