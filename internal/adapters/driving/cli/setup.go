package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/repokeeper/repokeeper/internal/adapters/driven/config/file"
	"github.com/repokeeper/repokeeper/internal/adapters/driven/provider/github"
)

var setupPrivate bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision one index repository per category on the provider",
	Long: `Creates a repository on the provider for every configured category that
names its own working tree. Repositories that already exist are left
untouched. Clone each created repository into its configured work tree
before running the engine.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupPrivate, "private", false, "create private repositories")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := configfile.Load(cfgPath)
	if err != nil {
		return err
	}
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	if err := provider.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("provider credentials: %w", err)
	}

	for i := range cfg.Categories {
		cat := &cfg.Categories[i]
		description := fmt.Sprintf("Repository index for %s", cat.Name)
		if cat.Label != "" {
			description = fmt.Sprintf("Repository index for %s", cat.Label)
		}

		created, err := provider.CreateRepository(ctx, cat.Name, description, setupPrivate)
		if err != nil {
			if alreadyExists(err) {
				cmd.Printf("  = %s already exists, skipping\n", cat.Name)
				continue
			}
			return fmt.Errorf("creating %s: %w", cat.Name, err)
		}
		cmd.Printf("  + created %s\n", created.FullName)
		cmd.Printf("    clone it into %s before running the engine\n", cat.WorkTree)
	}
	return nil
}

// alreadyExists recognises the 422 the API returns for duplicate names.
func alreadyExists(err error) bool {
	var apiErr *github.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 422
}
