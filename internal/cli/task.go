package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Record and list completed maintenance",
	}

	var (
		date    string
		cost    float64
		notes   string
		details []string
	)
	record := &cobra.Command{
		Use:   "record <item-id> <task-type>",
		Short: "Record a completed task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, tt, err := a.resolveItemTask(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			completed := types.DateOf(a.now())
			if date != "" {
				if completed, err = types.ParseDate(date); err != nil {
					return err
				}
			}
			d, err := parseAssignments(details, true)
			if err != nil {
				return err
			}
			spec := maintenance.TaskSpec{
				ItemID:      item.ItemID,
				TaskTypeID:  tt.TaskTypeID,
				CompletedAt: completed,
				Notes:       notes,
				Details:     d,
			}
			if cmd.Flags().Changed("cost") {
				spec.Cost = &cost
			}
			task, err := a.inventory.RecordTask(ctxOf(cmd), spec)
			if err != nil {
				return err
			}
			return a.emit(cmd, task, func(w io.Writer) {
				fmt.Fprintf(w, "Recorded %s on %s for %s (%s)\n", tt.Name, formatDate(task.CompletedAt), item.Name, task.TaskID)
			})
		},
	}
	record.Flags().StringVar(&date, "date", "", "completion date (YYYY-MM-DD, default today)")
	record.Flags().Float64Var(&cost, "cost", 0, "cost of the task")
	record.Flags().StringVar(&notes, "notes", "", "free-form notes")
	record.Flags().StringArrayVar(&details, "detail", nil, "detail key=value (repeatable)")

	list := &cobra.Command{
		Use:   "list <item-id>",
		Short: "List completed tasks of an item, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.inventory.ListTasks(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, tasks, func(w io.Writer) {
				names := a.taskTypeNames(cmd, "")
				tw := newTable(w, "ID", "TASK TYPE", "COMPLETED", "COST", "NOTES")
				for _, t := range tasks {
					c := "-"
					if t.Cost != nil {
						c = strconv.FormatFloat(*t.Cost, 'f', 2, 64)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.TaskID, nameOr(names, t.TaskTypeID), formatDate(t.CompletedAt), c, t.Notes)
				}
				tw.Flush()
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Soft-delete a recorded task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.inventory.SoftDeleteTask(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted task %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(record, list, del)
	return cmd
}
