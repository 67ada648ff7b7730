package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the shopfront command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopfront",
		Short: "Shopfront - storefront and admin client",
		Long: `Shopfront CLI - Browse the catalog, keep a cart and manage products.

Sessions are stored per backend in the OS keychain (or a file, see
SHOPFRONT_TOKEN_STORE) and refreshed automatically when the access token expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shopfront version %s\n", version)
		},
	})

	commands.RegisterPersistentFlags(rootCmd)

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectBackendCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewStatusCmd(version))
	rootCmd.AddCommand(commands.NewProductsCmd())
	rootCmd.AddCommand(commands.NewProductTypesCmd())
	rootCmd.AddCommand(commands.NewCartCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
