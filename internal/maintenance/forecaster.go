package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/upkeep/internal/forecast"
	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// ForecasterStore is the persistence Forecaster needs.
type ForecasterStore interface {
	types.ItemStore
	types.PlanStore
	types.TaskStore
	types.ForecastStore
}

// Forecaster answers due-date and usage questions. Results are computed on
// every call from the current store contents and never cached.
type Forecaster struct {
	store ForecasterStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewForecaster returns a Forecaster. A nil now uses time.Now.
func NewForecaster(store ForecasterStore, log zerolog.Logger, now func() time.Time) *Forecaster {
	if now == nil {
		now = time.Now
	}
	return &Forecaster{store: store, log: log.With().Str("component", "forecaster").Logger(), now: now}
}

func (f *Forecaster) today() time.Time { return types.DateOf(f.now()) }

// NextDueDate returns when the item's plan for a task type is next due.
// Without completed tasks the interval counts from the item's acquisition
// date, or its creation date when acquisition is unknown. Fails with
// types.ErrNotFound when the item or an active plan is missing.
func (f *Forecaster) NextDueDate(ctx context.Context, itemID, taskTypeID string) (types.Due, error) {
	item, err := f.store.GetItem(ctx, itemID)
	if err != nil {
		return types.Due{}, err
	}
	plan, err := f.store.FindActivePlan(ctx, itemID, taskTypeID)
	if err != nil {
		return types.Due{}, err
	}
	return f.due(ctx, item, plan)
}

func (f *Forecaster) due(ctx context.Context, item *types.Item, plan *types.ItemMaintenancePlan) (types.Due, error) {
	last, ok, err := f.store.LastCompleted(ctx, plan.ItemID, plan.TaskTypeID)
	if err != nil {
		return types.Due{}, err
	}
	var lastPtr *time.Time
	if ok {
		lastPtr = &last
	}
	d := forecast.NextDueDate(plan.TimeIntervalDays, lastPtr, item.ScheduleAnchor(), f.today())
	d.PlanID, d.ItemID, d.TaskTypeID = plan.PlanID, plan.ItemID, plan.TaskTypeID
	f.log.Debug().
		Str("plan_id", plan.PlanID).
		Time("next_due", d.NextDue).
		Bool("overdue", d.Overdue).
		Msg("due date computed")
	return d, nil
}

// Schedule returns the due entries for every active plan of an item, or of
// every active item when itemID is empty, soonest first. Plans whose item
// has been deleted are skipped.
func (f *Forecaster) Schedule(ctx context.Context, itemID string) ([]types.Due, error) {
	if itemID != "" {
		if _, err := f.store.GetItem(ctx, itemID); err != nil {
			return nil, err
		}
	}
	plans, err := f.store.ListPlans(ctx, itemID)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*types.Item)
	out := make([]types.Due, 0, len(plans))
	for _, plan := range plans {
		item, seen := items[plan.ItemID]
		if !seen {
			item, err = f.store.GetItem(ctx, plan.ItemID)
			if errors.Is(err, types.ErrNotFound) {
				items[plan.ItemID] = nil
				continue
			}
			if err != nil {
				return nil, err
			}
			items[plan.ItemID] = item
		}
		if item == nil {
			continue
		}
		d, err := f.due(ctx, item, plan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextDue.Before(out[j].NextDue) })
	return out, nil
}

// SetForecastReference validates and stores the usage reference for an item
// and measurement kind, replacing any earlier one. The kind is normalized
// like a custom interval field name.
func (f *Forecaster) SetForecastReference(ctx context.Context, ref types.ForecastReference) (*types.ForecastReference, error) {
	ref.MeasurementKind = interval.NormalizeField(ref.MeasurementKind)
	if err := forecast.ValidateReference(ref); err != nil {
		return nil, err
	}
	if _, err := f.store.GetItem(ctx, ref.ItemID); err != nil {
		return nil, err
	}
	if err := f.store.PutForecastReference(ctx, &ref); err != nil {
		return nil, fmt.Errorf("setting %s reference: %w", ref.MeasurementKind, err)
	}
	f.log.Info().
		Str("item_id", ref.ItemID).
		Str("kind", ref.MeasurementKind).
		Float64("reference_measurement", ref.ReferenceMeasurement).
		Msg("forecast reference set")
	return &ref, nil
}

// PredictMeasurement extrapolates today's value of a measurement kind.
func (f *Forecaster) PredictMeasurement(ctx context.Context, itemID, kind string) (float64, error) {
	return f.PredictMeasurementAt(ctx, itemID, kind, f.today())
}

// PredictMeasurementAt extrapolates the value of a measurement kind on date.
// Fails with types.ErrNotFound when the item or its reference is missing.
func (f *Forecaster) PredictMeasurementAt(ctx context.Context, itemID, kind string, date time.Time) (float64, error) {
	if _, err := f.store.GetItem(ctx, itemID); err != nil {
		return 0, err
	}
	ref, err := f.store.GetForecastReference(ctx, itemID, interval.NormalizeField(kind))
	if err != nil {
		return 0, err
	}
	return forecast.PredictMeasurement(*ref, date)
}

// ListForecastReferences returns an item's references ordered by kind.
func (f *Forecaster) ListForecastReferences(ctx context.Context, itemID string) ([]*types.ForecastReference, error) {
	if _, err := f.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return f.store.ListForecastReferences(ctx, itemID)
}
