package types

import "time"

// ForecastReference holds the two calibration points used to extrapolate
// usage for one item and measurement kind (for example "mileage").
type ForecastReference struct {
	ItemID               string    `json:"item_id"`
	MeasurementKind      string    `json:"measurement_kind"`
	StartDate            time.Time `json:"start_date"`
	StartMeasurement     float64   `json:"start_measurement"`
	ReferenceDate        time.Time `json:"reference_date"`
	ReferenceMeasurement float64   `json:"reference_measurement"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Due is the result of a due-date forecast for one plan.
type Due struct {
	PlanID        string     `json:"plan_id"`
	ItemID        string     `json:"item_id"`
	TaskTypeID    string     `json:"task_type_id"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
	NextDue       time.Time  `json:"next_due"`
	Overdue       bool       `json:"overdue"`
	DaysRemaining int        `json:"days_remaining"`
}
