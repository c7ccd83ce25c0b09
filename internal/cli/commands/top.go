package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topSections = []string{"liked", "commented", "users"}

// NewTopCmd creates the top command, the CLI version of the most-viewed page
func NewTopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "top [liked|commented|users]",
		Short:     "Show the most liked posts, most commented posts and top authors",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: topSections,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}

			sections := topSections
			if len(args) == 1 {
				sections = args
			}

			// A failing section does not hide the others
			var failed error
			for i, section := range sections {
				if i > 0 {
					fmt.Fprintln(app.Out)
				}
				if err := runTopSection(cmd, app, section); err != nil {
					fmt.Fprintf(app.Err, "Error: %v\n", err)
					failed = err
				}
			}
			return failed
		},
	}
}

func runTopSection(cmd *cobra.Command, app *App, section string) error {
	ctx := cmd.Context()

	switch section {
	case "liked":
		posts, err := app.client.TopLikedPosts(ctx)
		if err != nil {
			return app.apiError(err, "failed to load top liked posts")
		}
		fmt.Fprintln(app.Out, "Top liked posts:")
		printPosts(app.Out, posts)

	case "commented":
		posts, err := app.client.MostCommentedPosts(ctx)
		if err != nil {
			return app.apiError(err, "failed to load most commented posts")
		}
		fmt.Fprintln(app.Out, "Most commented posts:")
		printPosts(app.Out, posts)

	case "users":
		users, err := app.client.TopUsers(ctx)
		if err != nil {
			return app.apiError(err, "failed to load top authors")
		}
		fmt.Fprintln(app.Out, "Top authors:")
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tPOSTS\tLIKES")
		fmt.Fprintln(w, "──\t────────\t─────\t─────")
		for _, user := range users {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", user.UserID, user.Username, user.PostsCount, user.TotalLikes)
		}
		w.Flush()
	}

	return nil
}
