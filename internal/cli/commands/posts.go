package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/richtext"
	"github.com/blogdeck/blogdeck/internal/session"
)

// NewPostsCmd creates the posts command group
func NewPostsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse blog posts",
	}

	cmd.AddCommand(newPostsListCmd(app))
	cmd.AddCommand(newPostsShowCmd(app))

	return cmd
}

func newPostsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its likes and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.resolvedSession(cmd.Context())
			if err != nil {
				return err
			}

			blog, err := app.fetchBlog(cmd.Context(), sess, api.ID(args[0]))
			if err != nil {
				return app.apiError(err, "failed to load blog post")
			}

			printBlog(app, blog, sess.Snapshot())
			return nil
		},
	}
}

// fetchBlog loads a post with the session token. A dead token does not hide
// a public post: the session ends and the post is fetched anonymously.
func (a *App) fetchBlog(ctx context.Context, sess *session.Session, id api.ID) (*api.BlogDetail, error) {
	token := sess.Token()
	blog, err := a.client.GetBlog(ctx, token, id)
	if err != nil && token != "" && session.IsAuthError(err) {
		a.logger.Warn().Err(err).Msg("Backend rejected the session, signing out")
		if logoutErr := sess.Logout(); logoutErr != nil {
			a.logger.Error().Err(logoutErr).Msg("Failed to clear stored token")
		}
		blog, err = a.client.GetBlog(ctx, "", id)
	}
	return blog, err
}

func printBlog(app *App, blog *api.BlogDetail, state session.State) {
	out := app.Out

	fmt.Fprintln(out, blog.Title)
	fmt.Fprintf(out, "by %s · %s\n", blog.Username, since(blog.CreatedAt))

	if len(blog.Tags) > 0 {
		labels := make([]string, 0, len(blog.Tags))
		for _, tag := range blog.Tags {
			labels = append(labels, tag.Label())
		}
		fmt.Fprintf(out, "Tags: %s\n", strings.Join(labels, ", "))
	}

	likes := fmt.Sprintf("♥ %d likes", len(blog.Likes))
	if state.User != nil && blog.LikedBy(state.User.Email) {
		likes += " (you liked this)"
	}
	fmt.Fprintf(out, "%s · %d comments\n", likes, blog.CommentCount)
	if blog.ImageURL != "" {
		fmt.Fprintf(out, "Image: %s\n", blog.ImageURL)
	}

	fmt.Fprintf(out, "\n%s\n", richtext.PlainText(blog.Content))

	if len(blog.Comments) == 0 {
		fmt.Fprintln(out, "\nNo comments yet.")
		return
	}
	fmt.Fprintln(out, "\nComments:")
	for _, comment := range blog.Comments {
		mine := ""
		if state.User != nil && comment.OwnedBy(state.User.Email) {
			mine = " (you)"
		}
		fmt.Fprintf(out, "  [%s] %s%s: %s\n", comment.CommentID, comment.Username, mine, comment.Text)
	}
}
