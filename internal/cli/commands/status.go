package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/health"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
)

// NewStatusCmd creates the status command
func NewStatusCmd(cliVersion string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the selected backend and the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			out := cmd.OutOrStdout()
			tokens := env.session.Tokens()

			fmt.Fprintf(out, "Backend: %s (%s)\n", env.backend.Alias, env.backend.URL)

			status, err := health.Fetch(cmd.Context(), tokens.HTTPClient(), tokens.BaseURL())
			if err != nil {
				fmt.Fprintf(out, "  Status:  unreachable (%v)\n", err)
			} else {
				fmt.Fprintf(out, "  Status:  %s\n", status.Status)
				fmt.Fprintf(out, "  Version: %s\n", status.Version)
				health.PrintMismatchNotice(cmd.ErrOrStderr(), cliVersion, status)
			}

			if info, ok := env.session.UserInfo(); ok {
				fmt.Fprintf(out, "  Session: %s (%s)\n", info.Email, session.Authenticated)
			} else {
				fmt.Fprintln(out, "  Session: "+session.Anonymous.String())
			}
			return nil
		},
	}
}
