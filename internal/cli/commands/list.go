package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/cli/userconfig"
	"github.com/blogdeck/blogdeck/internal/feed"
)

// newPostsListCmd creates the posts ls command
func newPostsListCmd(app *App) *cobra.Command {
	var opts feed.Options
	var save bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List blog posts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}

			prefs, err := userconfig.Load(app.Config.Storage.DataDir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("sort") && prefs.FeedSort != "" {
				opts.Sort = prefs.FeedSort
			}
			if !cmd.Flags().Changed("size") && prefs.FeedPageSize > 0 {
				opts.PageSize = prefs.FeedPageSize
			}
			opts = opts.Normalize()

			if save {
				err := userconfig.Update(app.Config.Storage.DataDir, func(c *userconfig.UserConfig) {
					c.FeedSort = opts.Sort
					c.FeedPageSize = opts.PageSize
				})
				if err != nil {
					return err
				}
			}

			return runList(cmd, app, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "size", feed.DefaultPageSize, "Posts per page")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Only posts whose title contains this text")
	cmd.Flags().StringVar(&opts.Sort, "sort", feed.SortNewest, "Order: newest, likes or comments")
	cmd.Flags().BoolVar(&save, "save", false, "Remember --sort and --size for next time")

	return cmd
}

func runList(cmd *cobra.Command, app *App, opts feed.Options) error {
	posts, err := app.client.ListBlogs(cmd.Context())
	if err != nil {
		return app.apiError(err, "failed to load blogs")
	}

	page := feed.Paginate(posts, opts)
	if page.Total == 0 {
		fmt.Fprintln(app.Out, "No blogs available.")
		if opts.Query != "" {
			fmt.Fprintf(app.Out, "\nNothing matched %q.\n", opts.Query)
		}
		return nil
	}

	printPosts(app.Out, page.Items)
	fmt.Fprintf(app.Out, "\nPage %d of %d (%d posts)\n", page.Page, page.Pages, page.Total)
	if page.HasNext {
		fmt.Fprintf(app.Out, "Next page: blogdeck posts ls --page %d\n", page.NextPage())
	}

	return nil
}

// printPosts writes a post table
func printPosts(out io.Writer, posts []api.BlogSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLIKES\tCOMMENTS\tCREATED")
	fmt.Fprintln(w, "──\t─────\t─────\t────────\t───────")

	for _, post := range posts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			post.PostID,
			post.Title,
			post.Likes,
			post.Comments,
			since(post.CreatedAt),
		)
	}

	w.Flush()
}

func since(t api.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t.Time)
}
