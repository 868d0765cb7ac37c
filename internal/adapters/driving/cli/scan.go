package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/repokeeper/repokeeper/internal/core/domain"
)

var scanForce bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full synchronization cycle",
	Long: `Queries the remote account (or the cache, when fresh), classifies any
newly observed repositories, merges every category document and commits
and pushes the changes.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "bypass the cache and query the remote")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if scanForce {
		if _, err := a.engine.Detector().ListRepositories(ctx, true); err != nil {
			return err
		}
	}

	report, err := a.engine.ScanOnce(ctx)
	if report != nil {
		printReport(cmd, report)
	}
	return err
}

func printReport(cmd *cobra.Command, report *domain.SummaryReport) {
	cmd.Printf("Scan %s finished in %s\n", report.ID, report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond))
	if len(report.NewRepositories) > 0 {
		cmd.Printf("New repositories (%d):\n", len(report.NewRepositories))
		for _, name := range report.NewRepositories {
			cmd.Printf("  + %s\n", name)
		}
	}
	if len(report.ChangedDocuments) > 0 {
		cmd.Printf("Updated documents (%d):\n", len(report.ChangedDocuments))
		for _, path := range report.ChangedDocuments {
			cmd.Printf("  ~ %s\n", path)
		}
	} else {
		cmd.Println("All documents up to date")
	}
	for _, msg := range report.Errors {
		cmd.Printf("  ! %s\n", msg)
	}
}
