package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/backendselect"
	"github.com/shopfront-dev/shopfront/internal/cli/config"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

// NewSelectBackendCmd creates the select-backend command
func NewSelectBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-backend [url-or-alias]",
		Short: "Select the backend to use for commands",
		Long: `Select the backend to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ shopfront select-backend                        # Interactive selection
  $ shopfront select-backend https://api.example.com # Select by URL
  $ shopfront select-backend production             # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectBackend(cmd, urlOrAlias)
		},
	}

	return cmd
}

func runSelectBackend(cmd *cobra.Command, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'shopfront init <backend-url>' to create a configuration file", err)
	}

	var backend *config.Backend

	if urlOrAlias != "" {
		backend, err = cfg.GetBackendByURLOrAlias(urlOrAlias)
		if err != nil {
			return err
		}
	} else {
		backend, err = backendselect.PromptBackendSelection(cfg)
		if err != nil {
			return err
		}
	}

	if err := userconfig.SetSelectedBackend(backend.URL); err != nil {
		return fmt.Errorf("failed to save selected backend: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected backend: %s (%s)\n", backend.Alias, backend.URL)
	return nil
}
