package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// parseOverride returns the --every value in days when the flag was given.
func parseOverride(cmd *cobra.Command, every string) (*int, error) {
	if !cmd.Flags().Changed("every") {
		return nil, nil
	}
	days, err := interval.ParseDays(every)
	if err != nil {
		return nil, err
	}
	return &days, nil
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"plans"},
		Short:   "Manage maintenance plans of items",
	}

	var (
		every  string
		values []string
	)
	create := &cobra.Command{
		Use:   "create <item-id> <task-type>",
		Short: "Create a plan from the template of the item's type",
		Long: `Create a plan for an item from the active template of its item type.

--every overrides the template interval. Custom interval values must supply
exactly the fields the template declares:

  upkeep plan create <item-id> "Oil Change" --value type=mileage --value value=5000 --value unit=miles`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, tt, err := a.resolveItemTask(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			override, err := parseOverride(cmd, every)
			if err != nil {
				return err
			}
			custom, err := parseAssignments(values, false)
			if err != nil {
				return err
			}
			plan, err := a.planner.InstantiatePlan(ctxOf(cmd), maintenance.PlanRequest{
				ItemID:           item.ItemID,
				TaskTypeID:       tt.TaskTypeID,
				IntervalOverride: override,
				CustomValue:      custom,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, plan, func(w io.Writer) {
				fmt.Fprintf(w, "Created plan %s: %s on %s every %d days (%s)\n",
					plan.PlanID, tt.Name, item.Name, plan.TimeIntervalDays, formatValue(plan.CustomValue))
			})
		},
	}
	create.Flags().StringVar(&every, "every", "", "override the template interval")
	create.Flags().StringArrayVar(&values, "value", nil, "custom interval field name=value (repeatable)")

	var all bool
	list := &cobra.Command{
		Use:   "list <item-id>",
		Short: "List the plans of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			var (
				plans []*types.ItemMaintenancePlan
				err   error
			)
			if all {
				plans, err = a.planner.AuditPlans(ctx, args[0])
			} else {
				plans, err = a.planner.ListActivePlans(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return a.emit(cmd, plans, func(w io.Writer) {
				names := a.taskTypeNames(cmd, "")
				header := []string{"ID", "TASK TYPE", "DAYS", "CUSTOM INTERVAL"}
				if all {
					header = append(header, "STATE")
				}
				tw := newTable(w, header...)
				for _, p := range plans {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s", p.PlanID, nameOr(names, p.TaskTypeID), p.TimeIntervalDays, formatValue(p.CustomValue))
					if all {
						fmt.Fprintf(tw, "\t%s", p.State)
					}
					fmt.Fprintln(tw)
				}
				tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include deleted plans")

	var (
		updEvery  string
		updValues []string
	)
	update := &cobra.Command{
		Use:   "update <plan-id>",
		Short: "Change a plan's interval or custom interval value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			override, err := parseOverride(cmd, updEvery)
			if err != nil {
				return err
			}
			custom, err := parseAssignments(updValues, false)
			if err != nil {
				return err
			}
			if override == nil && custom == nil {
				return usagef("nothing to update (use --every or --value)")
			}
			plan, err := a.planner.UpdatePlan(ctxOf(cmd), args[0], override, custom)
			if err != nil {
				return err
			}
			return a.emit(cmd, plan, func(w io.Writer) {
				fmt.Fprintf(w, "Updated plan %s: every %d days (%s)\n", plan.PlanID, plan.TimeIntervalDays, formatValue(plan.CustomValue))
			})
		},
	}
	update.Flags().StringVar(&updEvery, "every", "", "new interval")
	update.Flags().StringArrayVar(&updValues, "value", nil, "custom interval field name=value (repeatable)")

	del := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Soft-delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.planner.SoftDeletePlan(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted plan %s\n", args[0])
			})
		},
	}

	var filterFlag string
	candidates := &cobra.Command{
		Use:   "candidates <item-id>",
		Short: "List task types that can be planned for an item",
		Long: `List task types selectable for an item.

The filter defaults to listing.candidate_filter from the configuration:
  active_plan  templated task types without an active plan for the item
  template     task types of the item's type without an active template`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := a.cfg.CandidateFilter
			if cmd.Flags().Changed("filter") {
				var err error
				if filter, err = maintenance.ParseCandidateFilter(filterFlag); err != nil {
					return err
				}
			}
			list, err := a.planner.CandidateTaskTypes(ctxOf(cmd), args[0], filter)
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(w io.Writer) {
				tw := newTable(w, "ID", "NAME")
				for _, tt := range list {
					fmt.Fprintf(tw, "%s\t%s\n", tt.TaskTypeID, tt.Name)
				}
				tw.Flush()
			})
		},
	}
	candidates.Flags().StringVar(&filterFlag, "filter", "", "active_plan or template")

	cmd.AddCommand(create, list, update, del, candidates)
	return cmd
}
