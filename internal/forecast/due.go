package forecast

import (
	"time"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// NextDueDate computes when a time-based obligation falls due. With a
// completion on record the interval counts from it, otherwise from anchor
// (the item's acquisition date). The Due is overdue when the next due date
// is strictly before today. PlanID, ItemID, and TaskTypeID are left for the
// caller to fill.
func NextDueDate(intervalDays int, lastCompleted *time.Time, anchor, today time.Time) types.Due {
	from := types.DateOf(anchor)
	var last *time.Time
	if lastCompleted != nil {
		d := types.DateOf(*lastCompleted)
		from, last = d, &d
	}
	next := from.AddDate(0, 0, intervalDays)
	today = types.DateOf(today)
	return types.Due{
		LastCompleted: last,
		NextDue:       next,
		Overdue:       next.Before(today),
		DaysRemaining: types.DaysBetween(today, next),
	}
}
