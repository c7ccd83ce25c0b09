package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blogdeck",
		Short: "blogdeck - read and write the blog from your terminal",
		Long: `blogdeck CLI - Read, write and discuss posts on the blog.

Commands that change something ask you to sign in first. In a terminal you are
prompted for your credentials and the command carries on; in scripts run
'blogdeck login' beforehand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)
	rootCmd.SetIn(app.In)

	rootCmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL (or set BLOGDECK_API_URL)")
	rootCmd.PersistentFlags().StringVar(&app.TokenStore, "token-store", "", "Where the session token is kept: file, keyring or memory (or set BLOGDECK_TOKEN_STORE)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "blogdeck version %s\n", app.Version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewSignupCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewWhoamiCmd(app))
	rootCmd.AddCommand(commands.NewPostsCmd(app))
	rootCmd.AddCommand(commands.NewTopCmd(app))
	rootCmd.AddCommand(commands.NewTagsCmd(app))
	rootCmd.AddCommand(commands.NewWriteCmd(app))
	rootCmd.AddCommand(commands.NewEditCmd(app))
	rootCmd.AddCommand(commands.NewLikeCmd(app))
	rootCmd.AddCommand(commands.NewCommentCmd(app))
	rootCmd.AddCommand(commands.NewProfileCmd(app))
	rootCmd.AddCommand(commands.NewDraftsCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	app := commands.NewApp(version)
	defer app.Close()

	if err := NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
