package types

import "time"

// MaintenanceTemplate is the item-type-level default schedule for a task type.
type MaintenanceTemplate struct {
	TemplateID       string         `json:"template_id"`
	ItemTypeID       string         `json:"item_type_id"`
	TaskTypeID       string         `json:"task_type_id"`
	TimeIntervalDays int            `json:"time_interval_days"`
	Schema           IntervalSchema `json:"custom_interval_schema,omitempty"`
	State            Lifecycle      `json:"state"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ItemMaintenancePlan is the per-item instantiation of a template.
type ItemMaintenancePlan struct {
	PlanID           string        `json:"plan_id"`
	ItemID           string        `json:"item_id"`
	TaskTypeID       string        `json:"task_type_id"`
	TemplateID       string        `json:"template_id"`
	TimeIntervalDays int           `json:"time_interval_days"`
	CustomValue      IntervalValue `json:"custom_interval_value,omitempty"`
	State            Lifecycle     `json:"state"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
