package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.resolvedSession(cmd.Context())
			if err != nil {
				return err
			}

			state := sess.Snapshot()
			if !state.IsAuthenticated() {
				fmt.Fprintln(app.Out, "Not logged in.")
				fmt.Fprintln(app.Out, "\nSign in with: blogdeck login")
				return nil
			}

			user := state.User
			fmt.Fprintf(app.Out, "Logged in to %s as %s (@%s)\n", app.Config.API.BaseURL, user.Name, user.Username)
			fmt.Fprintf(app.Out, "  Email:  %s\n", user.Email)
			if !user.DateJoined.IsZero() {
				fmt.Fprintf(app.Out, "  Joined: %s\n", humanize.Time(user.DateJoined.Time))
			}
			if expiry, ok := sess.TokenExpiry(); ok {
				fmt.Fprintf(app.Out, "  Token:  expires %s\n", humanize.Time(expiry))
			}
			return nil
		},
	}
}
