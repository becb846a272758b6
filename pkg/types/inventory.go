package types

import "time"

// ItemType classifies items, for example "Automobile".
type ItemType struct {
	ItemTypeID  string    `json:"item_type_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	State       Lifecycle `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskType classifies a recurring maintenance action, for example
// "Oil Change". Names are unique per item type among active rows.
type TaskType struct {
	TaskTypeID  string    `json:"task_type_id"`
	ItemTypeID  string    `json:"item_type_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	State       Lifecycle `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ForecastDetailsKey is the Item.Details key holding usage forecast
// references keyed by measurement kind.
const ForecastDetailsKey = "forecast"

// Item is a possession tracked for maintenance.
type Item struct {
	ItemID     string         `json:"item_id"`
	OwnerID    *string        `json:"owner_id,omitempty"`
	ItemTypeID string         `json:"item_type_id"`
	Name       string         `json:"name"`
	AcquiredAt *time.Time     `json:"acquired_at,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	State      Lifecycle      `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ScheduleAnchor returns the date a plan without history is scheduled from:
// the acquisition date, or the creation date when acquisition is unknown.
func (i *Item) ScheduleAnchor() time.Time {
	if i.AcquiredAt != nil {
		return DateOf(*i.AcquiredAt)
	}
	return DateOf(i.CreatedAt)
}

// Task is a completed maintenance event.
type Task struct {
	TaskID      string         `json:"task_id"`
	ItemID      string         `json:"item_id"`
	TaskTypeID  string         `json:"task_type_id"`
	CompletedAt time.Time      `json:"completed_at"`
	Cost        *float64       `json:"cost,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	State       Lifecycle      `json:"state"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
