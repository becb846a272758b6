package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// soonDays is the horizon within which a due task is highlighted.
const soonDays = 7

type dueStyles struct {
	overdue lipgloss.Style
	soon    lipgloss.Style
	later   lipgloss.Style
}

func newDueStyles(w io.Writer) dueStyles {
	r := lipgloss.NewRenderer(w)
	return dueStyles{
		overdue: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		soon:    r.NewStyle().Foreground(lipgloss.Color("226")),
		later:   r.NewStyle().Foreground(lipgloss.Color("46")),
	}
}

// status describes how far a due date is from today.
func (s dueStyles) status(d types.Due) string {
	switch {
	case d.Overdue:
		return s.overdue.Render(fmt.Sprintf("overdue by %s", plural(-d.DaysRemaining, "day")))
	case d.DaysRemaining == 0:
		return s.soon.Render("due today")
	case d.DaysRemaining <= soonDays:
		return s.soon.Render("in " + plural(d.DaysRemaining, "day"))
	default:
		return s.later.Render("in " + plural(d.DaysRemaining, "day"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func newDueCmd(a *app) *cobra.Command {
	var (
		asOf   string
		within int
	)
	cmd := &cobra.Command{
		Use:   "due [item-id [task-type]]",
		Short: "Show when maintenance is next due",
		Long: `Show next due dates, soonest first.

Without arguments every active plan is listed. With an item, only that item's
plans; with an item and a task type, that single plan.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			var today time.Time
			if asOf != "" {
				var err error
				if today, err = types.ParseDate(asOf); err != nil {
					return err
				}
			}
			f := a.forecaster(today)

			var entries []types.Due
			switch len(args) {
			case 2:
				item, tt, err := a.resolveItemTask(cmd, args[0], args[1])
				if err != nil {
					return err
				}
				d, err := f.NextDueDate(ctx, item.ItemID, tt.TaskTypeID)
				if err != nil {
					return err
				}
				entries = []types.Due{d}
			case 1:
				var err error
				if entries, err = f.Schedule(ctx, args[0]); err != nil {
					return err
				}
			default:
				var err error
				if entries, err = f.Schedule(ctx, ""); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("within") {
				kept := entries[:0]
				for _, d := range entries {
					if d.DaysRemaining <= within {
						kept = append(kept, d)
					}
				}
				entries = kept
			}

			return a.emit(cmd, entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "Nothing scheduled")
					return
				}
				items := a.itemNames(cmd)
				taskTypes := a.taskTypeNames(cmd, "")
				styles := newDueStyles(w)
				tw := newTable(w, "ITEM", "TASK", "LAST DONE", "NEXT DUE", "STATUS")
				for _, d := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						nameOr(items, d.ItemID), nameOr(taskTypes, d.TaskTypeID),
						formatDatePtr(d.LastCompleted), formatDate(d.NextDue), styles.status(d))
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "compute as of this date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&within, "within", 0, "only entries due within this many days (overdue included)")
	return cmd
}

func (a *app) itemNames(cmd *cobra.Command) map[string]string {
	names := make(map[string]string)
	items, err := a.inventory.ListItems(ctxOf(cmd), "")
	if err != nil {
		a.log.Debug().Err(err).Msg("item names")
		return names
	}
	for _, it := range items {
		names[it.ItemID] = it.Name
	}
	return names
}
