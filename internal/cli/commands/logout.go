package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			// No network call: the stored token is simply dropped
			if err := app.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "✓ Logged out")
			return nil
		},
	}
}
