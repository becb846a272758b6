package types

import (
	"context"
	"time"
)

// Repository contracts. Insert methods are atomic conditional inserts: when an
// active row already holds the unique key they return an error wrapping
// ErrConflict and leave the store unchanged. Get and List methods see active
// rows only; Audit methods are the sole way to read deleted rows. SoftDelete
// methods are idempotent and return ErrNotFound only for unknown IDs.

// ItemTypeStore persists item types.
type ItemTypeStore interface {
	InsertItemType(ctx context.Context, it *ItemType) error
	GetItemType(ctx context.Context, id string) (*ItemType, error)
	ListItemTypes(ctx context.Context) ([]*ItemType, error)
	SoftDeleteItemType(ctx context.Context, id string) error
}

// TaskTypeStore persists task types.
type TaskTypeStore interface {
	InsertTaskType(ctx context.Context, tt *TaskType) error
	GetTaskType(ctx context.Context, id string) (*TaskType, error)
	ListTaskTypes(ctx context.Context, itemTypeID string) ([]*TaskType, error)
	SoftDeleteTaskType(ctx context.Context, id string) error
}

// ItemStore persists items.
type ItemStore interface {
	// InsertItem stores the item and, in the same transaction, any forecast
	// references for it. Each reference's ItemID is set to the new item's.
	InsertItem(ctx context.Context, item *Item, refs ...*ForecastReference) error
	GetItem(ctx context.Context, id string) (*Item, error)
	// ListItems returns active items; an empty owner matches every item.
	ListItems(ctx context.Context, owner string) ([]*Item, error)
	SoftDeleteItem(ctx context.Context, id string) error
}

// TemplateStore persists maintenance templates.
type TemplateStore interface {
	InsertTemplate(ctx context.Context, t *MaintenanceTemplate) error
	GetTemplate(ctx context.Context, id string) (*MaintenanceTemplate, error)
	FindActiveTemplate(ctx context.Context, itemTypeID, taskTypeID string) (*MaintenanceTemplate, error)
	ListTemplates(ctx context.Context, itemTypeID string) ([]*MaintenanceTemplate, error)
	AuditTemplates(ctx context.Context, itemTypeID string) ([]*MaintenanceTemplate, error)
	// AuditTemplate reads a template regardless of its state.
	AuditTemplate(ctx context.Context, id string) (*MaintenanceTemplate, error)
	SoftDeleteTemplate(ctx context.Context, id string) error
}

// PlanStore persists item maintenance plans.
type PlanStore interface {
	InsertPlan(ctx context.Context, p *ItemMaintenancePlan) error
	GetPlan(ctx context.Context, id string) (*ItemMaintenancePlan, error)
	FindActivePlan(ctx context.Context, itemID, taskTypeID string) (*ItemMaintenancePlan, error)
	ListPlans(ctx context.Context, itemID string) ([]*ItemMaintenancePlan, error)
	AuditPlans(ctx context.Context, itemID string) ([]*ItemMaintenancePlan, error)
	// UpdatePlan rewrites the interval fields of an active plan.
	UpdatePlan(ctx context.Context, p *ItemMaintenancePlan) error
	SoftDeletePlan(ctx context.Context, id string) error
}

// TaskStore persists completed tasks.
type TaskStore interface {
	InsertTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	// ListTasks returns active tasks for the item, most recent completion first.
	ListTasks(ctx context.Context, itemID string) ([]*Task, error)
	// LastCompleted returns the most recent completion date for the pair;
	// ok is false when no active task exists.
	LastCompleted(ctx context.Context, itemID, taskTypeID string) (date time.Time, ok bool, err error)
	SoftDeleteTask(ctx context.Context, id string) error
}

// ForecastStore persists forecast references. Put overwrites any existing
// reference for the same item and measurement kind.
type ForecastStore interface {
	PutForecastReference(ctx context.Context, ref *ForecastReference) error
	GetForecastReference(ctx context.Context, itemID, kind string) (*ForecastReference, error)
	ListForecastReferences(ctx context.Context, itemID string) ([]*ForecastReference, error)
}

// Store aggregates every repository. The SQLite backend implements it.
type Store interface {
	ItemTypeStore
	TaskTypeStore
	ItemStore
	TemplateStore
	PlanStore
	TaskStore
	ForecastStore
}
