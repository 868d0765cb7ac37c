package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Merge and commit documents without querying the remote",
	Long: `Rewrites every category document from the locally stored repository
records, then commits and pushes the changes. No provider queries are
made, so this works offline.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, err := a.engine.UpdateDocuments(ctx)
	if report != nil {
		printReport(cmd, report)
	}
	return err
}
