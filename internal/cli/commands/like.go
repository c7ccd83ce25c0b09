package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
)

// NewLikeCmd creates the like command
func NewLikeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or take your like back",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		id := api.ID(args[0])

		if err := app.client.ToggleLike(ctx, app.token(), id); err != nil {
			return app.apiError(err, "failed to update like status")
		}

		blog, err := app.client.GetBlog(ctx, app.token(), id)
		if err != nil {
			// The like went through; only the summary is missing
			app.logger.Warn().Err(err).Msg("Failed to reload post")
			fmt.Fprintln(app.Out, "✓ Like status updated")
			return nil
		}

		if blog.LikedBy(user.Email) {
			fmt.Fprintf(app.Out, "♥ Liked %q (%d likes)\n", blog.Title, len(blog.Likes))
		} else {
			fmt.Fprintf(app.Out, "Removed your like from %q (%d likes)\n", blog.Title, len(blog.Likes))
		}
		return nil
	})

	return cmd
}
