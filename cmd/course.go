package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/store"
	"github.com/studiora/studiora/internal/ui/tables"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Manage courses",
}

var courseAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		c := &store.Course{ID: uuid.NewString(), Name: args[0]}
		c.Code, _ = cmd.Flags().GetString("code")
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetInt("priority")
			c.Priority = &p
		}
		if err := e.store.CourseRepo().Upsert(cmd.Context(), c); err != nil {
			return fmt.Errorf("add course: %w", err)
		}
		fmt.Printf("Added course %s (%s)\n", c.Name, c.ID[:8])
		return nil
	},
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		courses, err := e.store.CourseRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list courses: %w", err)
		}
		if len(courses) == 0 {
			fmt.Println("No courses yet. Add one with: studiora course add <name>")
			return nil
		}
		fmt.Println(tables.Courses(courses))
		return nil
	},
}

var courseRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a course and its assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := resolveCourse(cmd, e, args[0])
		if err != nil {
			return err
		}
		if err := e.store.CourseRepo().Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove course: %w", err)
		}
		fmt.Printf("Removed course %s\n", id[:min(8, len(id))])
		return nil
	},
}

func resolveCourse(cmd *cobra.Command, e *env, prefix string) (string, error) {
	courses, err := e.store.CourseRepo().List(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("list courses: %w", err)
	}
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return resolveID("course", prefix, ids)
}

func init() {
	courseAddCmd.Flags().String("code", "", "Course code, e.g. NURS 210")
	courseAddCmd.Flags().Int("priority", 0, "Tie-break priority; higher is scheduled first")

	courseCmd.AddCommand(courseAddCmd)
	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseRmCmd)
}
