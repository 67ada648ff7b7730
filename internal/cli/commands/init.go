package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <backend-url>",
		Short: "Add a shopfront backend to ./shopfront.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Alias for the backend (default: production, then backend-N)")

	return cmd
}

func runInit(cmd *cobra.Command, backendURL, alias string) error {
	out := cmd.OutOrStdout()
	backendURL = strings.TrimRight(backendURL, "/")

	if err := config.ValidateBackendURL(backendURL); err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Backends: []config.Backend{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetBackendByURLOrAlias(backendURL); err == nil {
		fmt.Fprintf(out, "Backend %s already exists in %s\n", backendURL, config.ConfigFileName)
		return nil
	}

	if alias == "" {
		if len(cfg.Backends) == 0 {
			alias = "production"
		} else {
			alias = fmt.Sprintf("backend-%d", len(cfg.Backends)+1)
		}
	}
	if _, err := cfg.GetBackendByAlias(alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in %s", alias, config.ConfigFileName)
	}

	cfg.Backends = append(cfg.Backends, config.Backend{
		URL:   backendURL,
		Alias: alias,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with backend %s (%s)\n", config.ConfigFileName, backendURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added backend %s (%s) to ./%s\n", backendURL, alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext step:")
	fmt.Fprintln(out, "  Run 'shopfront login' to authenticate")

	return nil
}
