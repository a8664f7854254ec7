package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/scheduler"
	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/tables"
)

var assignmentCmd = &cobra.Command{
	Use:     "assignment",
	Aliases: []string{"a"},
	Short:   "Manage assignments",
}

var assignmentAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()
		f := cmd.Flags()

		coursePrefix, _ := f.GetString("course")
		courseID, err := resolveCourse(cmd, e, coursePrefix)
		if err != nil {
			return err
		}

		dueStr, _ := f.GetString("due")
		due, err := parseDay(dueStr, e.loc())
		if err != nil {
			return err
		}
		dueTime, _ := f.GetString("time")
		typ, _ := f.GetString("type")
		prio, _ := f.GetString("priority")
		hours, _ := f.GetFloat64("hours")
		desc, _ := f.GetString("description")

		a := &store.Assignment{
			Assignment: scheduler.Assignment{
				ID:       uuid.NewString(),
				CourseID: courseID,
				Title:    args[0],
				Due:      due,
				DueTime:  dueTime,
				Type:     scheduler.ParseAssignmentType(typ),
				Hours:    hours,
				Priority: scheduler.ParsePriority(prio),
			},
			Description: desc,
			CreatedAt:   e.now(),
		}
		if err := e.store.AssignmentRepo().Upsert(ctx, a); err != nil {
			return fmt.Errorf("add assignment: %w", err)
		}
		e.log.Info().Str("id", a.ID).Str("type", string(a.Type)).Msg("assignment added")
		fmt.Printf("Added %s %q due %s (%s)\n", a.Type, a.Title, a.Due.Format(time.DateOnly), a.ID[:8])
		return nil
	},
}

var assignmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var filter store.AssignmentFilter
		filter.IncludeCompleted, _ = cmd.Flags().GetBool("all")
		if p, _ := cmd.Flags().GetString("course"); p != "" {
			if filter.CourseID, err = resolveCourse(cmd, e, p); err != nil {
				return err
			}
		}

		list, err := e.store.AssignmentRepo().List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No assignments found.")
			return nil
		}
		fmt.Println(tables.Assignments(list))
		return nil
	},
}

var assignmentDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an assignment completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := resolveAssignment(cmd, e, args[0])
		if err != nil {
			return err
		}
		undo, _ := cmd.Flags().GetBool("undo")
		if err := e.store.AssignmentRepo().SetCompleted(cmd.Context(), id, !undo); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		if undo {
			fmt.Printf("Reopened %s\n", id[:min(8, len(id))])
		} else {
			fmt.Printf("Completed %s\n", id[:min(8, len(id))])
		}
		fmt.Println("Run `studiora schedule generate` to refresh the plan.")
		return nil
	},
}

var assignmentRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := resolveAssignment(cmd, e, args[0])
		if err != nil {
			return err
		}
		if err := e.store.AssignmentRepo().Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove assignment: %w", err)
		}
		fmt.Printf("Removed %s\n", id[:min(8, len(id))])
		return nil
	},
}

func resolveAssignment(cmd *cobra.Command, e *env, prefix string) (string, error) {
	list, err := e.store.AssignmentRepo().List(cmd.Context(), store.AssignmentFilter{IncludeCompleted: true})
	if err != nil {
		return "", fmt.Errorf("list assignments: %w", err)
	}
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return resolveID("assignment", prefix, ids)
}

func init() {
	f := assignmentAddCmd.Flags()
	f.StringP("course", "c", "", "Course id or unique prefix (required)")
	f.StringP("due", "d", "", "Due date as YYYY-MM-DD (required)")
	f.String("time", "23:59", "Due time as HH:MM")
	f.StringP("type", "t", "assignment", "Assignment type, e.g. reading, quiz, exam, clinical")
	f.StringP("priority", "p", "medium", "low, medium, high or urgent")
	f.Float64("hours", 0, "Estimated hours; 0 uses the type default")
	f.String("description", "", "Free-form notes")
	_ = assignmentAddCmd.MarkFlagRequired("course")
	_ = assignmentAddCmd.MarkFlagRequired("due")

	assignmentListCmd.Flags().Bool("all", false, "Include completed assignments")
	assignmentListCmd.Flags().StringP("course", "c", "", "Only this course")

	assignmentDoneCmd.Flags().Bool("undo", false, "Mark as not completed")

	assignmentCmd.AddCommand(assignmentAddCmd)
	assignmentCmd.AddCommand(assignmentListCmd)
	assignmentCmd.AddCommand(assignmentDoneCmd)
	assignmentCmd.AddCommand(assignmentRmCmd)
}
