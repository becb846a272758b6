package forecast

import (
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

var epoch = types.MustDate("2000-01-01")

func dateGen(label string) *rapid.Generator[time.Time] {
	return rapid.Custom(func(rt *rapid.T) time.Time {
		return epoch.AddDate(0, 0, rapid.IntRange(0, 20_000).Draw(rt, label))
	})
}

// Property: predicting on the reference date returns the reference
// measurement, and on the start date returns the start measurement.
func TestProperty_PredictionPassesThroughBothPoints(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := dateGen("start").Draw(rt, "start")
		span := rapid.IntRange(1, 5_000).Draw(rt, "span")
		startM := rapid.Float64Range(0, 1e6).Draw(rt, "startM")
		delta := rapid.Float64Range(0, 1e6).Draw(rt, "delta")
		ref := types.ForecastReference{
			ItemID:               "item",
			MeasurementKind:      "mileage",
			StartDate:            start,
			StartMeasurement:     startM,
			ReferenceDate:        start.AddDate(0, 0, span),
			ReferenceMeasurement: startM + delta,
		}

		atRef, err := PredictMeasurement(ref, ref.ReferenceDate)
		if err != nil {
			rt.Fatal(err)
		}
		if atRef != ref.ReferenceMeasurement {
			rt.Fatalf("at reference date: got %v, want %v", atRef, ref.ReferenceMeasurement)
		}
		atStart, err := PredictMeasurement(ref, ref.StartDate)
		if err != nil {
			rt.Fatal(err)
		}
		if math.Abs(atStart-ref.StartMeasurement) > 1e-6*math.Max(1, ref.ReferenceMeasurement) {
			rt.Fatalf("at start date: got %v, want %v", atStart, ref.StartMeasurement)
		}
	})
}

// Property: with non-decreasing usage, predictions never decrease over time.
func TestProperty_PredictionMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := dateGen("start").Draw(rt, "start")
		ref := types.ForecastReference{
			ItemID:               "item",
			MeasurementKind:      "hours",
			StartDate:            start,
			StartMeasurement:     0,
			ReferenceDate:        start.AddDate(0, 0, rapid.IntRange(1, 1_000).Draw(rt, "span")),
			ReferenceMeasurement: rapid.Float64Range(0, 1e5).Draw(rt, "refM"),
		}
		a := dateGen("a").Draw(rt, "a")
		b := a.AddDate(0, 0, rapid.IntRange(0, 1_000).Draw(rt, "gap"))

		pa, _ := PredictMeasurement(ref, a)
		pb, _ := PredictMeasurement(ref, b)
		if pb < pa {
			rt.Fatalf("prediction decreased: %v on %s, %v on %s", pa, a, pb, b)
		}
	})
}

// Property: the next due date is exactly interval days after the base date,
// and overdue agrees with DaysRemaining.
func TestProperty_NextDueDateArithmetic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		days := rapid.IntRange(1, 3_650).Draw(rt, "days")
		anchor := dateGen("anchor").Draw(rt, "anchor")
		today := dateGen("today").Draw(rt, "today")
		var last *time.Time
		base := anchor
		if rapid.Bool().Draw(rt, "hasLast") {
			l := dateGen("last").Draw(rt, "last")
			last, base = &l, l
		}

		got := NextDueDate(days, last, anchor, today)
		if n := types.DaysBetween(base, got.NextDue); n != days {
			rt.Fatalf("next due is %d days after base, want %d", n, days)
		}
		if got.Overdue != (got.DaysRemaining < 0) {
			rt.Fatalf("overdue=%v but days remaining=%d", got.Overdue, got.DaysRemaining)
		}
	})
}
