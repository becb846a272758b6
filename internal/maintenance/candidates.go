package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// CandidateFilter selects which task types are offered when setting up
// plans for an item.
type CandidateFilter string

const (
	// FilterActivePlan offers templated task types the item has no active
	// plan for. This is the default.
	FilterActivePlan CandidateFilter = "active_plan"
	// FilterTemplate offers task types of the item's type that have no
	// active template yet.
	FilterTemplate CandidateFilter = "template"
)

// ParseCandidateFilter parses a filter name; empty input selects the default.
func ParseCandidateFilter(s string) (CandidateFilter, error) {
	switch CandidateFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterActivePlan:
		return FilterActivePlan, nil
	case FilterTemplate:
		return FilterTemplate, nil
	default:
		return "", fmt.Errorf("%w: %w %q (valid: %s, %s)",
			types.ErrValidation, types.ErrInvalidFilter, s, FilterActivePlan, FilterTemplate)
	}
}

// CandidateTaskTypes lists the task types selectable for an item under
// filter, ordered by name.
func (p *Planner) CandidateTaskTypes(ctx context.Context, itemID string, filter CandidateFilter) ([]*types.TaskType, error) {
	item, err := p.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	taskTypes, err := p.store.ListTaskTypes(ctx, item.ItemTypeID)
	if err != nil {
		return nil, err
	}
	templates, err := p.store.ListTemplates(ctx, item.ItemTypeID)
	if err != nil {
		return nil, err
	}
	templated := make(map[string]bool, len(templates))
	for _, t := range templates {
		templated[t.TaskTypeID] = true
	}

	var keep func(tt *types.TaskType) bool
	switch filter {
	case FilterActivePlan, "":
		plans, err := p.store.ListPlans(ctx, item.ItemID)
		if err != nil {
			return nil, err
		}
		planned := make(map[string]bool, len(plans))
		for _, pl := range plans {
			planned[pl.TaskTypeID] = true
		}
		keep = func(tt *types.TaskType) bool { return templated[tt.TaskTypeID] && !planned[tt.TaskTypeID] }
	case FilterTemplate:
		keep = func(tt *types.TaskType) bool { return !templated[tt.TaskTypeID] }
	default:
		return nil, fmt.Errorf("%w: %w %q", types.ErrValidation, types.ErrInvalidFilter, filter)
	}

	var out []*types.TaskType
	for _, tt := range taskTypes {
		if keep(tt) {
			out = append(out, tt)
		}
	}
	p.log.Debug().Str("item_id", itemID).Str("filter", string(filter)).Int("candidates", len(out)).Msg("candidate task types")
	return out, nil
}
