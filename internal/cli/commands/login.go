package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/cli/prompt"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the blog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set BLOGDECK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set BLOGDECK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, app *App, email, password string) error {
	// Check for environment variables (useful for scripts)
	if email == "" {
		email = os.Getenv("BLOGDECK_EMAIL")
	}
	if password == "" {
		password = os.Getenv("BLOGDECK_PASSWORD")
	}

	if err := app.setup(); err != nil {
		return err
	}

	if email == "" {
		if !app.interactive() {
			return fmt.Errorf("email is required (use --email flag or BLOGDECK_EMAIL env var)")
		}
		var err error
		if password == "" {
			email, password, err = app.promptCredentials(app.lastEmail())
		} else {
			email, err = prompt.Email(app.lastEmail())
		}
		if err != nil {
			return err
		}
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !app.interactive() {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or BLOGDECK_PASSWORD env var)")
		}
		var err error
		if password, err = prompt.Password("Password", app.Err); err != nil {
			return err
		}
	}

	fmt.Fprintf(app.Out, "Logging in to %s...\n", app.Config.API.BaseURL)

	user, err := app.login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Out, "✓ Login successful!")
	fmt.Fprintf(app.Out, "  User: %s (%s)\n", user.Name, user.Email)

	return nil
}
