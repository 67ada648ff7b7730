package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(io.Discard)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.session.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out from %s (%s)\n", env.backend.Alias, env.backend.URL)
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			out := cmd.OutOrStdout()
			info, ok := env.session.UserInfo()
			if !ok {
				fmt.Fprintf(out, "Not logged in to %s (%s)\n", env.backend.Alias, env.backend.URL)
				if _, hasRefresh := env.session.Tokens().RefreshToken(); hasRefresh && !env.session.Tokens().IsRefreshExpired() {
					fmt.Fprintln(out, "  Access token expired; it will be refreshed on the next request")
				}
				return nil
			}

			fmt.Fprintf(out, "Logged in to %s (%s)\n", env.backend.Alias, env.backend.URL)
			fmt.Fprintf(out, "  User:  %s\n", info.Email)
			fmt.Fprintf(out, "  ID:    %s\n", info.UserID)
			if info.IsAdmin {
				fmt.Fprintln(out, "  Role:  Admin")
			}
			if creds, ok := env.session.Tokens().Credentials(); ok {
				fmt.Fprintf(out, "  Until: %s\n", creds.AccessTokenExpiry.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
