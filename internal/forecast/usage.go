// Package forecast holds the pure scheduling calculations: the calendar due
// date of a time-based plan and linear usage extrapolation from a forecast
// reference. Callers supply today's date; nothing here reads the clock.
package forecast

import (
	"math"
	"time"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// ValidateReference checks that a forecast reference names its item and
// measurement kind and describes a usable window (see ValidateWindow).
func ValidateReference(ref types.ForecastReference) error {
	if ref.ItemID == "" {
		return types.Validationf("forecast reference requires an item id")
	}
	if ref.MeasurementKind == "" {
		return types.Validationf("forecast reference requires a measurement kind")
	}
	return ValidateWindow(ref)
}

// ValidateWindow checks the calibration window alone: the start precedes
// the reference date, measurements do not decrease, and neither measurement
// is negative.
func ValidateWindow(ref types.ForecastReference) error {
	if !types.DateOf(ref.StartDate).Before(types.DateOf(ref.ReferenceDate)) {
		return types.Validationf("start date %s must be before reference date %s",
			ref.StartDate.Format(types.DateLayout), ref.ReferenceDate.Format(types.DateLayout))
	}
	for _, m := range []float64{ref.StartMeasurement, ref.ReferenceMeasurement} {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return types.Validationf("measurement %v is not a finite number", m)
		}
		if m < 0 {
			return types.Validationf("measurement %v must not be negative", m)
		}
	}
	if ref.StartMeasurement > ref.ReferenceMeasurement {
		return types.Validationf("start measurement %v exceeds reference measurement %v",
			ref.StartMeasurement, ref.ReferenceMeasurement)
	}
	return nil
}

// PredictMeasurement extrapolates the measurement on today from the
// constant daily rate observed between the reference's two points. Dates
// before the reference date project backwards. The result is not rounded.
func PredictMeasurement(ref types.ForecastReference, today time.Time) (float64, error) {
	rate, err := DailyRate(ref)
	if err != nil {
		return 0, err
	}
	curDays := types.DaysBetween(ref.ReferenceDate, today)
	return ref.ReferenceMeasurement + rate*float64(curDays), nil
}

// DailyRate returns the usage per day implied by the reference.
func DailyRate(ref types.ForecastReference) (float64, error) {
	refDays := types.DaysBetween(ref.StartDate, ref.ReferenceDate)
	if refDays == 0 {
		return 0, types.Validationf("reference window for %q is zero days, rate is undefined", ref.MeasurementKind)
	}
	return (ref.ReferenceMeasurement - ref.StartMeasurement) / float64(refDays), nil
}
