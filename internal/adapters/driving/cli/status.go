package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache age, pending files and the last error",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	status, err := a.engine.Status(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Account:     %s\n", a.cfg.Provider.Account)
	cmd.Printf("Categories:  %d\n", len(a.cfg.Categories))
	if status.CacheAge > 0 {
		cmd.Printf("Cache age:   %s\n", status.CacheAge.Round(time.Second))
	} else {
		cmd.Println("Cache age:   no listing cached")
	}
	if status.LastScan.IsZero() {
		cmd.Println("Last scan:   never")
	} else {
		cmd.Printf("Last scan:   %s\n", status.LastScan.Format(time.RFC3339))
	}
	if len(status.PendingFiles) > 0 {
		cmd.Printf("Pending commits (%d):\n", len(status.PendingFiles))
		for _, path := range status.PendingFiles {
			cmd.Printf("  %s\n", path)
		}
	} else {
		cmd.Println("Pending commits: none")
	}
	if status.LastError != "" {
		cmd.Printf("Last error:  %s\n", status.LastError)
	}
	return nil
}
