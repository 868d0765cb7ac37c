// Command repokeeper keeps repository index documents in sync with a
// GitHub account.
package main

import (
	"os"

	"github.com/repokeeper/repokeeper/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
