package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewTagsCmd creates the tags command
func NewTagsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tags posts can carry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}

			tags, err := app.client.ListTags(cmd.Context())
			if err != nil {
				return app.apiError(err, "failed to load tags")
			}

			if len(tags) == 0 {
				fmt.Fprintln(app.Out, "No tags found.")
				return nil
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			fmt.Fprintln(w, "──\t────")
			for _, tag := range tags {
				fmt.Fprintf(w, "%s\t%s\n", tag.ID, tag.Label())
			}
			w.Flush()

			return nil
		},
	}
}
