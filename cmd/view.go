package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/studiora/studiora/internal/app"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse the plan week by week",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd)
	},
}

// runView opens the store and launches the week view.
func runView(cmd *cobra.Command) error {
	e, err := setupEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	loc := e.loc()
	now := func() time.Time { return time.Now().In(loc) }
	return app.Run(cmd.Context(), app.New(e.store, loc, now))
}
