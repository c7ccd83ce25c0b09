package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/cli/prompt"
	"github.com/blogdeck/blogdeck/internal/forms"
)

type signupOptions struct {
	username string
	name     string
	email    string
	password string
	picture  string
}

// NewSignupCmd creates the signup command
func NewSignupCmd(app *App) *cobra.Command {
	var opts signupOptions

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account on the blog.

Signing up does not sign you in; run 'blogdeck login' afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "Username")
	cmd.Flags().StringVar(&opts.name, "name", "", "Full name")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&opts.picture, "picture", "", "Path to a profile picture")

	return cmd
}

func runSignup(cmd *cobra.Command, app *App, opts signupOptions) error {
	if err := app.setup(); err != nil {
		return err
	}

	form := forms.Signup{
		Username:        opts.username,
		Name:            opts.name,
		Email:           opts.email,
		Password:        opts.password,
		ConfirmPassword: opts.password,
	}

	if form.Password == "" && app.interactive() {
		var err error
		if form.Password, err = prompt.Password("Password", app.Err); err != nil {
			return err
		}
		if form.ConfirmPassword, err = prompt.Password("Confirm Password", app.Err); err != nil {
			return err
		}
	}

	if err := forms.Validate(form); err != nil {
		return err
	}

	if opts.picture != "" {
		f, err := os.Open(opts.picture)
		if err != nil {
			return fmt.Errorf("failed to open profile picture: %w", err)
		}
		defer f.Close()
		form.Picture = &api.Upload{FileName: filepath.Base(opts.picture), Data: f}
	}

	sess, err := app.resolvedSession(cmd.Context())
	if err != nil {
		return err
	}

	if _, err := sess.Signup(cmd.Context(), form.Request()); err != nil {
		var rejected *api.SignupRejectedError
		if errors.As(err, &rejected) {
			return fmt.Errorf("signup failed: %s", rejected.Message)
		}
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Fprintln(app.Out, "✓ Account created successfully!")
	fmt.Fprintln(app.Out, "\nSign in with: blogdeck login --email "+form.Request().Email)
	return nil
}
