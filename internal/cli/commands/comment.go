package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/cli/prompt"
	"github.com/blogdeck/blogdeck/internal/forms"
)

// NewCommentCmd creates the comment command group
func NewCommentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add, edit or delete comments",
	}

	cmd.AddCommand(newCommentAddCmd(app))
	cmd.AddCommand(newCommentEditCmd(app))
	cmd.AddCommand(newCommentDeleteCmd(app))

	return cmd
}

func commentText(args []string) (string, error) {
	form := forms.Comment{Text: strings.Join(args, " ")}
	if err := forms.Validate(form); err != nil {
		return "", err
	}
	return strings.TrimSpace(form.Text), nil
}

func newCommentAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		text, err := commentText(args[1:])
		if err != nil {
			return err
		}

		if err := app.client.AddComment(ctx, app.token(), api.ID(args[0]), text); err != nil {
			return app.apiError(err, "failed to post comment")
		}

		fmt.Fprintln(app.Out, "✓ Comment added")
		return nil
	})

	return cmd
}

func newCommentEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <comment-id> <text>...",
		Short: "Change the text of one of your comments",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		text, err := commentText(args[1:])
		if err != nil {
			return err
		}

		if err := app.client.UpdateComment(ctx, app.token(), api.ID(args[0]), text); err != nil {
			return app.apiError(err, "failed to update comment")
		}

		fmt.Fprintln(app.Out, "✓ Comment updated")
		return nil
	})

	return cmd
}

func newCommentDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <comment-id>",
		Aliases: []string{"delete"},
		Short:   "Delete one of your comments",
		Args:    cobra.ExactArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		if !yes && app.interactive() && !prompt.Confirm("Delete comment "+args[0]) {
			fmt.Fprintln(app.Out, "Cancelled.")
			return nil
		}

		if err := app.client.DeleteComment(ctx, app.token(), api.ID(args[0])); err != nil {
			return app.apiError(err, "failed to delete comment")
		}

		fmt.Fprintln(app.Out, "✓ Comment deleted")
		return nil
	})
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
