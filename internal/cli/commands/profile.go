package commands

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
)

// NewProfileCmd creates the profile command
func NewProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show your profile, or another user's",
		Args:  cobra.MaximumNArgs(1),
	}

	own := app.protected(func(ctx context.Context, user *api.User, args []string) error {
		return showProfile(ctx, app, user, true)
	})

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return own(cmd, args)
		}

		sess, err := app.resolvedSession(cmd.Context())
		if err != nil {
			return err
		}

		user, err := app.client.GetUser(cmd.Context(), api.ID(args[0]))
		if err != nil {
			return app.apiError(err, "failed to load profile data")
		}

		state := sess.Snapshot()
		return showProfile(cmd.Context(), app, user, state.User != nil && state.User.ID == user.ID)
	}

	return cmd
}

func showProfile(ctx context.Context, app *App, user *api.User, own bool) error {
	fmt.Fprintf(app.Out, "%s (@%s)\n", user.Name, user.Username)
	if own {
		fmt.Fprintf(app.Out, "  Email:  %s\n", user.Email)
	}
	if !user.DateJoined.IsZero() {
		fmt.Fprintf(app.Out, "  Joined: %s\n", humanize.Time(user.DateJoined.Time))
	}

	posts, err := app.client.UserPosts(ctx, app.token(), user.ID)
	if err != nil {
		return app.apiError(err, "failed to load blog posts")
	}

	fmt.Fprintln(app.Out)
	if len(posts) == 0 {
		fmt.Fprintln(app.Out, "No posts yet.")
		return nil
	}
	printPosts(app.Out, posts)
	return nil
}
