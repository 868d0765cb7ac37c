package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the synchronization engine until interrupted",
	Long: `Starts both engine loops: the periodic scan cycle (remote detection,
document merges, commit and push) and the file watch loop that commits
hand-edited documents after the debounce window. Stop with Ctrl+C; an
in-flight commit finishes before exit.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	cmd.Println("repokeeper running, press Ctrl+C to stop")
	if err := a.engine.RunForever(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("repokeeper stopped")
	return nil
}
