// Package cli provides the repokeeper command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repokeeper/repokeeper/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "repokeeper",
	Short: "Keep repository index documents in sync with your GitHub account",
	Long: `repokeeper watches a GitHub account for repositories, classifies them
into categories and keeps one index document per category up to date,
committing and pushing every change. Documents edited by hand are
detected and committed too, after a debounce window.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.repokeeper/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
