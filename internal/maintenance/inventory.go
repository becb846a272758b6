package maintenance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/upkeep/internal/forecast"
	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// ItemSpec describes an item to create.
type ItemSpec struct {
	OwnerID    *string
	ItemTypeID string
	Name       string
	AcquiredAt *time.Time
	// Details is stored as given, except that a "forecast" entry is moved
	// into forecast references keyed by measurement kind and not kept on
	// the item.
	Details map[string]any
}

// TaskSpec describes a completed task to record.
type TaskSpec struct {
	ItemID      string
	TaskTypeID  string
	CompletedAt time.Time
	Cost        *float64
	Notes       string
	Details     map[string]any
}

// Inventory manages item types, task types, items, and task history.
type Inventory struct {
	store types.Store
	log   zerolog.Logger
}

// NewInventory returns an Inventory backed by store.
func NewInventory(store types.Store, log zerolog.Logger) *Inventory {
	return &Inventory{store: store, log: log.With().Str("component", "inventory").Logger()}
}

// CreateItemType stores a new item type. Names are unique among active item
// types, ignoring case.
func (inv *Inventory) CreateItemType(ctx context.Context, name, description string) (*types.ItemType, error) {
	it := &types.ItemType{Name: strings.TrimSpace(name), Description: description}
	if err := inv.store.InsertItemType(ctx, it); err != nil {
		return nil, err
	}
	inv.log.Info().Str("item_type_id", it.ItemTypeID).Str("name", it.Name).Msg("item type created")
	return it, nil
}

// GetItemType returns an active item type.
func (inv *Inventory) GetItemType(ctx context.Context, id string) (*types.ItemType, error) {
	return inv.store.GetItemType(ctx, id)
}

// FindItemType returns the active item type whose id or name matches ref.
func (inv *Inventory) FindItemType(ctx context.Context, ref string) (*types.ItemType, error) {
	list, err := inv.store.ListItemTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range list {
		if it.ItemTypeID == ref || strings.EqualFold(it.Name, strings.TrimSpace(ref)) {
			return it, nil
		}
	}
	return nil, types.NotFoundf("item type %q", ref)
}

// ListItemTypes returns active item types ordered by name.
func (inv *Inventory) ListItemTypes(ctx context.Context) ([]*types.ItemType, error) {
	return inv.store.ListItemTypes(ctx)
}

// SoftDeleteItemType marks an item type deleted.
func (inv *Inventory) SoftDeleteItemType(ctx context.Context, id string) error {
	return inv.store.SoftDeleteItemType(ctx, id)
}

// CreateTaskType stores a new task type under an active item type.
func (inv *Inventory) CreateTaskType(ctx context.Context, itemTypeID, name, description string) (*types.TaskType, error) {
	if _, err := inv.store.GetItemType(ctx, itemTypeID); err != nil {
		return nil, err
	}
	tt := &types.TaskType{ItemTypeID: itemTypeID, Name: strings.TrimSpace(name), Description: description}
	if err := inv.store.InsertTaskType(ctx, tt); err != nil {
		return nil, err
	}
	inv.log.Info().Str("task_type_id", tt.TaskTypeID).Str("name", tt.Name).Msg("task type created")
	return tt, nil
}

// FindTaskType returns the active task type of an item type whose id or
// name matches ref.
func (inv *Inventory) FindTaskType(ctx context.Context, itemTypeID, ref string) (*types.TaskType, error) {
	list, err := inv.store.ListTaskTypes(ctx, itemTypeID)
	if err != nil {
		return nil, err
	}
	for _, tt := range list {
		if tt.TaskTypeID == ref || strings.EqualFold(tt.Name, strings.TrimSpace(ref)) {
			return tt, nil
		}
	}
	return nil, types.NotFoundf("task type %q", ref)
}

// ListTaskTypes returns the active task types of an item type.
func (inv *Inventory) ListTaskTypes(ctx context.Context, itemTypeID string) ([]*types.TaskType, error) {
	return inv.store.ListTaskTypes(ctx, itemTypeID)
}

// SoftDeleteTaskType marks a task type deleted.
func (inv *Inventory) SoftDeleteTaskType(ctx context.Context, id string) error {
	return inv.store.SoftDeleteTaskType(ctx, id)
}

// CreateItem stores a new item of an active item type and imports any
// forecast references found under details["forecast"]. All references are
// validated before anything is written, and the item and its references
// are written together or not at all. The forecast store owns the imported
// references afterwards, so the returned item's details omit them.
func (inv *Inventory) CreateItem(ctx context.Context, spec ItemSpec) (*types.Item, error) {
	if _, err := inv.store.GetItemType(ctx, spec.ItemTypeID); err != nil {
		return nil, err
	}
	refs, err := ForecastReferencesFromDetails(spec.Details)
	if err != nil {
		return nil, err
	}
	item := &types.Item{
		OwnerID:    spec.OwnerID,
		ItemTypeID: spec.ItemTypeID,
		Name:       strings.TrimSpace(spec.Name),
		AcquiredAt: spec.AcquiredAt,
		Details:    withoutForecast(spec.Details),
	}
	ptrs := make([]*types.ForecastReference, len(refs))
	for i := range refs {
		ptrs[i] = &refs[i]
	}
	if err := inv.store.InsertItem(ctx, item, ptrs...); err != nil {
		return nil, err
	}
	inv.log.Info().
		Str("item_id", item.ItemID).
		Str("name", item.Name).
		Int("forecast_refs", len(refs)).
		Msg("item created")
	return item, nil
}

// withoutForecast copies details minus the forecast entry. It returns nil
// when nothing else is left.
func withoutForecast(details map[string]any) map[string]any {
	if _, ok := details[types.ForecastDetailsKey]; !ok {
		return details
	}
	out := make(map[string]any, len(details)-1)
	for k, v := range details {
		if k != types.ForecastDetailsKey {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// GetItem returns an active item.
func (inv *Inventory) GetItem(ctx context.Context, id string) (*types.Item, error) {
	return inv.store.GetItem(ctx, id)
}

// ListItems returns active items, optionally for a single owner.
func (inv *Inventory) ListItems(ctx context.Context, owner string) ([]*types.Item, error) {
	return inv.store.ListItems(ctx, owner)
}

// SoftDeleteItem marks an item deleted.
func (inv *Inventory) SoftDeleteItem(ctx context.Context, id string) error {
	if err := inv.store.SoftDeleteItem(ctx, id); err != nil {
		return err
	}
	inv.log.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

// RecordTask stores a completed task. The task type must belong to the
// item's type, the cost may not be negative, and details keys are
// normalized like custom interval fields.
func (inv *Inventory) RecordTask(ctx context.Context, spec TaskSpec) (*types.Task, error) {
	item, err := inv.store.GetItem(ctx, spec.ItemID)
	if err != nil {
		return nil, err
	}
	tt, err := inv.store.GetTaskType(ctx, spec.TaskTypeID)
	if err != nil {
		return nil, err
	}
	if tt.ItemTypeID != item.ItemTypeID {
		return nil, types.Validationf("task type %q does not apply to item %q", tt.Name, item.Name)
	}
	if spec.CompletedAt.IsZero() {
		return nil, types.Validationf("completion date is required")
	}
	if spec.Cost != nil && (*spec.Cost < 0 || math.IsNaN(*spec.Cost)) {
		return nil, types.Validationf("cost must not be negative, got %v", *spec.Cost)
	}
	details, err := normalizeDetails(spec.Details)
	if err != nil {
		return nil, err
	}

	task := &types.Task{
		ItemID:      item.ItemID,
		TaskTypeID:  tt.TaskTypeID,
		CompletedAt: spec.CompletedAt,
		Cost:        spec.Cost,
		Notes:       strings.TrimSpace(spec.Notes),
		Details:     details,
	}
	if err := inv.store.InsertTask(ctx, task); err != nil {
		return nil, err
	}
	inv.warnOnDetailMismatch(ctx, task)
	inv.log.Info().
		Str("task_id", task.TaskID).
		Str("item_id", task.ItemID).
		Str("task_type", tt.Name).
		Str("completed_at", task.CompletedAt.Format(types.DateLayout)).
		Msg("task recorded")
	return task, nil
}

// warnOnDetailMismatch logs when a task's details do not carry the fields of
// the plan's custom interval. It never fails the recording.
func (inv *Inventory) warnOnDetailMismatch(ctx context.Context, task *types.Task) {
	plan, err := inv.store.FindActivePlan(ctx, task.ItemID, task.TaskTypeID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			inv.log.Debug().Err(err).Msg("plan lookup for task details")
		}
		return
	}
	if len(plan.CustomValue) == 0 {
		return
	}
	var missing []string
	for field := range plan.CustomValue {
		if _, ok := task.Details[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		inv.log.Warn().
			Str("task_id", task.TaskID).
			Strs("missing", missing).
			Msg("task details lack custom interval fields of the plan")
	}
}

// ListTasks returns an item's active tasks, most recent first.
func (inv *Inventory) ListTasks(ctx context.Context, itemID string) ([]*types.Task, error) {
	if _, err := inv.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return inv.store.ListTasks(ctx, itemID)
}

// SoftDeleteTask marks a task deleted.
func (inv *Inventory) SoftDeleteTask(ctx context.Context, id string) error {
	if err := inv.store.SoftDeleteTask(ctx, id); err != nil {
		return err
	}
	inv.log.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

func normalizeDetails(details map[string]any) (map[string]any, error) {
	if len(details) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(details))
	for _, k := range keys {
		nk := interval.NormalizeField(k)
		if nk == "" {
			return nil, types.Validationf("task details key %q is blank", k)
		}
		if _, dup := out[nk]; dup {
			return nil, types.Validationf("task details key %q given more than once", nk)
		}
		out[nk] = details[k]
	}
	return out, nil
}

// ForecastReferencesFromDetails extracts forecast references from an item
// details map of the form
//
//	{"forecast": {"mileage": {"start_date": "2015-03-10", "start_measurement": 1000,
//	                          "reference_date": "2021-05-15", "reference_measurement": 59000}}}
//
// The returned references have no ItemID. A missing "forecast" entry yields
// no references.
func ForecastReferencesFromDetails(details map[string]any) ([]types.ForecastReference, error) {
	raw, ok := details[types.ForecastDetailsKey]
	if !ok || raw == nil {
		return nil, nil
	}
	byKind, ok := raw.(map[string]any)
	if !ok {
		return nil, types.Validationf("details.forecast must be a map of measurement kinds")
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	refs := make([]types.ForecastReference, 0, len(kinds))
	seen := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		fields, ok := byKind[kind].(map[string]any)
		if !ok {
			return nil, types.Validationf("forecast data for %q must be a map", kind)
		}
		ref := types.ForecastReference{MeasurementKind: interval.NormalizeField(kind)}
		var err error
		if ref.StartDate, err = detailDate(fields, kind, "start_date"); err != nil {
			return nil, err
		}
		if ref.ReferenceDate, err = detailDate(fields, kind, "reference_date"); err != nil {
			return nil, err
		}
		if ref.StartMeasurement, err = detailNumber(fields, kind, "start_measurement"); err != nil {
			return nil, err
		}
		if ref.ReferenceMeasurement, err = detailNumber(fields, kind, "reference_measurement"); err != nil {
			return nil, err
		}
		if ref.MeasurementKind == "" {
			return nil, types.Validationf("forecast measurement kind %q is blank", kind)
		}
		if _, dup := seen[ref.MeasurementKind]; dup {
			return nil, types.Validationf("forecast measurement kind %q given more than once", ref.MeasurementKind)
		}
		seen[ref.MeasurementKind] = struct{}{}
		if err := forecast.ValidateWindow(ref); err != nil {
			return nil, fmt.Errorf("forecast data for %q: %w", kind, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func detailDate(fields map[string]any, kind, name string) (time.Time, error) {
	switch v := fields[name].(type) {
	case string:
		return types.ParseDate(v)
	case time.Time:
		return types.DateOf(v), nil
	case nil:
		return time.Time{}, types.Validationf("forecast data for %q is missing %s", kind, name)
	default:
		return time.Time{}, types.Validationf("forecast %s for %q must be a YYYY-MM-DD date, got %T", name, kind, v)
	}
}

func detailNumber(fields map[string]any, kind, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, types.Validationf("forecast data for %q is missing %s", kind, name)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, types.Validationf("forecast %s for %q is not a number: %v", name, kind, err)
		}
		return f, nil
	default:
		return 0, types.Validationf("forecast %s for %q must be numeric, got %T", name, kind, raw)
	}
}
