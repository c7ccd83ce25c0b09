package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/forms"
	"github.com/blogdeck/blogdeck/internal/richtext"
)

// NewDraftsCmd creates the drafts command group
func NewDraftsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage posts saved locally with --draft",
	}

	cmd.AddCommand(newDraftsListCmd(app))
	cmd.AddCommand(newDraftsShowCmd(app))
	cmd.AddCommand(newDraftsDeleteCmd(app))
	cmd.AddCommand(newDraftsPublishCmd(app))
	cmd.AddCommand(newDraftsPruneCmd(app))

	return cmd
}

func newDraftsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List drafts, most recently saved first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Fprintln(app.Out, "No drafts found.")
				fmt.Fprintln(app.Out, "\nSave one with: blogdeck write --draft")
				return nil
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPOST\tSAVED")
			fmt.Fprintln(w, "──\t─────\t────\t─────")
			for _, d := range list {
				post := "new"
				if d.IsEdit() {
					post = d.PostID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, draftTitle(d.Title), post, humanize.Time(d.UpdatedAt))
			}
			w.Flush()

			return nil
		},
	}
}

func draftTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func newDraftsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Show a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}

			d, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(app.Out, draftTitle(d.Title))
			fmt.Fprintf(app.Out, "  ID:    %s\n", d.ID)
			if d.IsEdit() {
				fmt.Fprintf(app.Out, "  Edits: post %s\n", d.PostID)
			}
			if len(d.TagIDs) > 0 {
				fmt.Fprintf(app.Out, "  Tags:  %s\n", strings.Join(d.TagIDs, ", "))
			}
			if d.ImagePath != "" {
				fmt.Fprintf(app.Out, "  Image: %s\n", d.ImagePath)
			}
			fmt.Fprintf(app.Out, "  Saved: %s\n", humanize.Time(d.UpdatedAt))
			fmt.Fprintf(app.Out, "\n%s\n", richtext.PlainText(d.Content))
			return nil
		},
	}
}

func newDraftsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <draft-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a draft",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(app.Out, "✓ Draft deleted")
			return nil
		},
	}
}

func newDraftsPublishCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <draft-id>",
		Short: "Publish a draft and remove it",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		store, err := app.draftStore()
		if err != nil {
			return err
		}

		d, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		if err := store.Publish(ctx, d, app.client, app.token()); err != nil {
			var formErr *forms.Errors
			if errors.As(err, &formErr) {
				return fmt.Errorf("draft is incomplete: %w", err)
			}
			return app.apiError(err, "failed to publish draft")
		}

		if d.IsEdit() {
			fmt.Fprintf(app.Out, "✓ Post %s updated from draft\n", d.PostID)
		} else {
			fmt.Fprintln(app.Out, "✓ Draft published")
		}
		return nil
	})

	return cmd
}

func newDraftsPruneCmd(app *App) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete drafts that have not been saved for a while",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.draftStore()
			if err != nil {
				return err
			}

			age := olderThan
			if !cmd.Flags().Changed("older-than") {
				age = app.Config.Drafts.Retention
			}

			n, err := store.PruneOlderThan(cmd.Context(), age)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "Removed %s\n", english.Plural(int(n), "draft", "drafts"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age limit (defaults to BLOGDECK_DRAFTS_RETENTION)")

	return cmd
}
