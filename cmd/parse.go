package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/llm"
	"github.com/studiora/studiora/internal/logging"
	"github.com/studiora/studiora/internal/syllabus"
	"github.com/studiora/studiora/internal/ui/tables"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Import assignments from a syllabus text file",
	Long: `Import assignments from a syllabus. The text is scanned for coursework
keywords and nearby dates; with --ai it is sent to a language model instead.
Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()
		f := cmd.Flags()

		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		coursePrefix, _ := f.GetString("course")
		courseID, err := resolveCourse(cmd, e, coursePrefix)
		if err != nil {
			return err
		}

		now := e.now()
		var drafts []syllabus.Draft
		if ai, _ := f.GetBool("ai"); ai {
			log := logging.Component(e.log, "llm")
			provider, err := llm.New(ctx, llm.ConfigFromEnv(e.cfg.LLM.Provider, e.cfg.LLM.Model), e.store.EventRepo(), log)
			if err != nil {
				return err
			}
			e.log.Info().Str("model", provider.ModelID()).Msg("parsing syllabus with model")
			parser := syllabus.NewLLMParser(provider, syllabus.DefaultConfig(), logging.Component(e.log, "syllabus"))
			if drafts, err = parser.Parse(ctx, text, now); err != nil {
				return err
			}
		} else {
			drafts = syllabus.ParseText(text, now)
		}
		if len(drafts) == 0 {
			return syllabus.ErrNoAssignments
		}

		assignments, err := syllabus.Normalize(drafts, courseID, now)
		if err != nil {
			return err
		}
		fmt.Println(tables.Assignments(assignments))

		if dry, _ := f.GetBool("dry-run"); dry {
			fmt.Printf("%d assignment(s) found; nothing saved.\n", len(assignments))
			return nil
		}
		repo := e.store.AssignmentRepo()
		var errs []error
		for i := range assignments {
			if err := repo.Upsert(ctx, &assignments[i]); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("save assignments: %w", err)
		}
		e.log.Info().Int("count", len(assignments)).Str("course", courseID).Msg("syllabus imported")
		fmt.Printf("Imported %d assignment(s).\n", len(assignments))
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func init() {
	parseCmd.Flags().StringP("course", "c", "", "Course id or unique prefix (required)")
	parseCmd.Flags().Bool("ai", false, "Extract with a language model (needs an API key)")
	parseCmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")
	_ = parseCmd.MarkFlagRequired("course")
}
