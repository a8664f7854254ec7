package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/backup"
	"github.com/studiora/studiora/internal/logging"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import courses, assignments and settings",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var w io.Writer = cmd.OutOrStdout()
		out, _ := cmd.Flags().GetString("out")
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		if err := backup.Export(cmd.Context(), e.backupRepos(), w, e.now()); err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Printf("Backup written to %s\n", out)
		}
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a JSON backup",
	Long:  "Restore a JSON backup. Records with matching IDs are overwritten; nothing is deleted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup: %w", err)
			}
			defer f.Close()
			r = f
		}
		sum, err := backup.Import(cmd.Context(), e.backupRepos(), r, e.now(), logging.Component(e.log, "backup"))
		if err != nil {
			return err
		}
		fmt.Printf("Restored backup v%s: %d course(s), %d assignment(s), %d setting(s)\n",
			sum.Version, sum.Courses, sum.Assignments, sum.Settings)
		fmt.Println("Run `studiora schedule generate` to rebuild the plan.")
		return nil
	},
}

func (e *env) backupRepos() backup.Repos {
	return backup.Repos{
		Courses:     e.store.CourseRepo(),
		Assignments: e.store.AssignmentRepo(),
		Settings:    e.store.SettingsRepo(),
	}
}

func init() {
	backupExportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
}
