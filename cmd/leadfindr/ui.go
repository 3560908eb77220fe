package main

import (
	"github.com/spf13/cobra"

	"github.com/user/leadfindr/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive business browser",
	Long: `Open the terminal browser over your scored businesses. Filter by
website presence and HTTPS, page through results, and flip to a map
view that plots every located business colored by its DPI tier.

Scope flags pre-select a scan or city, same as 'businesses list'.`,
	RunE: runUI,
}

func init() {
	addFilterFlags(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}

	client, sess, err := buildClient()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	app := tui.NewApp(client, cfg, criteria)
	return app.Run()
}
