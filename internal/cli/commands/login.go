package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopfront-dev/shopfront/internal/cli/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/config"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string
	var rememberMe bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a shopfront backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password, rememberMe)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SHOPFRONT_EMAIL, will prompt if not provided)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SHOPFRONT_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&rememberMe, "remember-me", false, "Ask the backend for a long-lived refresh token")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password string, rememberMe bool) error {
	out := cmd.OutOrStdout()

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv(config.EnvEmail)
	}
	if password == "" {
		password = os.Getenv(config.EnvPassword)
	}

	interactive := term.IsTerminal(int(syscall.Stdin))

	if email == "" {
		if !interactive {
			return fmt.Errorf("email is required (use --email flag or %s env var)", config.EnvEmail)
		}
		var err error
		email, err = promptEmail()
		if err != nil {
			return err
		}
	}

	if password == "" {
		if !interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", config.EnvPassword)
		}
		var err error
		password, err = readPassword(out)
		if err != nil {
			return err
		}
	}

	env, err := newEnvironment(out)
	if err != nil {
		return err
	}
	defer env.close()

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", env.backend.Alias, env.backend.URL)

	creds, err := env.session.Login(cmd.Context(), email, password, rememberMe)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("login failed (status %d): %s", authErr.StatusCode, authErr.Message)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s\n", creds.Email)
	if creds.IsAdmin {
		fmt.Fprintln(out, "  Role: Admin")
	}

	return nil
}

func promptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label: "Email",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("email is required")
			}
			return nil
		},
	}
	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return email, nil
}

func readPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(out) // New line after password input
	return string(bytePassword), nil
}
