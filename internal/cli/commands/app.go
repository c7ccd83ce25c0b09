package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/cli/prompt"
	"github.com/blogdeck/blogdeck/internal/cli/userconfig"
	"github.com/blogdeck/blogdeck/internal/config"
	"github.com/blogdeck/blogdeck/internal/drafts"
	"github.com/blogdeck/blogdeck/internal/forms"
	"github.com/blogdeck/blogdeck/internal/guard"
	"github.com/blogdeck/blogdeck/internal/logger"
	"github.com/blogdeck/blogdeck/internal/session"
	"github.com/blogdeck/blogdeck/internal/tokenstore"
)

// ErrNotAuthenticated is returned by protected commands when nobody is signed
// in and there is no terminal to ask for credentials
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'blogdeck login' first")

// App carries what every command needs. Anything left nil is built from the
// environment the first time a command asks for it.
type App struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	Version string

	// Set from the persistent flags
	APIURL     string
	TokenStore string

	Config *config.Config
	Tokens tokenstore.Store

	// Interactive reports whether prompts can be shown
	Interactive func() bool
	// PromptCredentials asks for an email and a password
	PromptCredentials func(defaultEmail string) (string, string, error)

	logger  zerolog.Logger
	client  *api.Client
	session *session.Session
	drafts  *drafts.Store
	ready   bool
}

// NewApp returns an App wired to the process's standard streams
func NewApp(version string) *App {
	return &App{
		Out:     os.Stdout,
		Err:     os.Stderr,
		In:      os.Stdin,
		Version: version,
	}
}

// setup builds the config, logger, client and session once
func (a *App) setup() error {
	if a.ready {
		return nil
	}

	if a.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// Keep command output clean unless asked otherwise
		if os.Getenv("LOG_LEVEL") == "" {
			cfg.Logging.Level = "warn"
		}
		if os.Getenv("LOG_FORMAT") == "" {
			cfg.Logging.Format = "console"
		}
		a.Config = cfg
	}

	if a.APIURL != "" {
		a.Config.API.BaseURL = strings.TrimRight(a.APIURL, "/")
	}
	if a.TokenStore != "" {
		a.Config.Storage.TokenStore = a.TokenStore
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}

	a.logger = logger.New(a.Config.Logging.Level, a.Config.Logging.Format, a.Err)

	if a.Tokens == nil {
		tokens, err := tokenstore.Open(a.Config.Storage.TokenStore, a.Config.Storage.DataDir)
		if err != nil {
			return err
		}
		a.Tokens = tokens
	}

	a.client = api.New(a.Config.API.BaseURL, a.Config.API.Timeout)
	a.session = session.New(a.client, a.Tokens, a.logger)
	a.ready = true
	return nil
}

// resolvedSession returns the session after the stored token was checked
func (a *App) resolvedSession(ctx context.Context) (*session.Session, error) {
	if err := a.setup(); err != nil {
		return nil, err
	}
	a.session.Resolve(ctx)
	return a.session, nil
}

// draftStore opens the local drafts database on first use
func (a *App) draftStore() (*drafts.Store, error) {
	if err := a.setup(); err != nil {
		return nil, err
	}
	if a.drafts != nil {
		return a.drafts, nil
	}
	store, err := drafts.Open(a.Config.Drafts.DatabasePath, a.logger)
	if err != nil {
		return nil, err
	}
	a.drafts = store
	return store, nil
}

// Close releases the drafts database if it was opened
func (a *App) Close() {
	if a.drafts != nil {
		if err := a.drafts.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close drafts database")
		}
		a.drafts = nil
	}
}

func (a *App) interactive() bool {
	if a.Interactive != nil {
		return a.Interactive()
	}
	return prompt.IsInteractive()
}

func (a *App) promptCredentials(defaultEmail string) (string, string, error) {
	if a.PromptCredentials != nil {
		return a.PromptCredentials(defaultEmail)
	}
	return prompt.Credentials(defaultEmail, a.Err)
}

// requireUser is the guard for protected commands. In a terminal a signed-out
// user is asked to sign in and the command carries on afterwards.
func (a *App) requireUser(ctx context.Context) (*api.User, error) {
	sess, err := a.resolvedSession(ctx)
	if err != nil {
		return nil, err
	}

	state := sess.Snapshot()
	switch guard.Decide(state) {
	case guard.Allow:
		return state.User, nil
	case guard.Pending:
		if err := sess.WaitResolved(ctx); err != nil {
			return nil, err
		}
		return a.requireUser(ctx)
	}

	if !a.interactive() {
		return nil, ErrNotAuthenticated
	}

	fmt.Fprintln(a.Err, "You need to sign in to continue.")
	email, password, err := a.promptCredentials(a.lastEmail())
	if err != nil {
		return nil, err
	}
	user, err := a.login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.Err, "✓ Signed in as %s\n\n", user.Username)
	return user, nil
}

// protected wraps a command body with the guard
func (a *App) protected(run func(ctx context.Context, user *api.User, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		user, err := a.requireUser(cmd.Context())
		if err != nil {
			return err
		}
		return run(cmd.Context(), user, args)
	}
}

func (a *App) login(ctx context.Context, email, password string) (*api.User, error) {
	if err := forms.Validate(forms.Login{Email: email, Password: password}); err != nil {
		return nil, err
	}

	sess, err := a.resolvedSession(ctx)
	if err != nil {
		return nil, err
	}

	user, err := sess.Login(ctx, email, password)
	if err != nil {
		return nil, a.loginError(err)
	}

	if err := userconfig.Update(a.Config.Storage.DataDir, func(c *userconfig.UserConfig) { c.LastEmail = email }); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to remember email")
	}
	return user, nil
}

// loginError never reveals whether the account exists
func (a *App) loginError(err error) error {
	var transportErr *api.TransportError
	switch {
	case errors.As(err, &transportErr):
		return fmt.Errorf("unable to reach the server at %s: %w", a.Config.API.BaseURL, err)
	case errors.Is(err, api.ErrAuthenticationFailed):
		return errors.New("login failed: invalid email or password")
	default:
		return fmt.Errorf("login failed: %w", err)
	}
}

func (a *App) lastEmail() string {
	cfg, err := userconfig.Load(a.Config.Storage.DataDir)
	if err != nil {
		return ""
	}
	return cfg.LastEmail
}

// apiError turns a failed backend call into a command error. A rejected
// token ends the session.
func (a *App) apiError(err error, action string) error {
	switch {
	case session.IsAuthError(err):
		if logoutErr := a.session.Logout(); logoutErr != nil {
			a.logger.Error().Err(logoutErr).Msg("Failed to clear stored token")
		}
		return fmt.Errorf("%s: your session has expired. Please run 'blogdeck login' again", action)
	case errors.Is(err, api.ErrNotFound):
		return fmt.Errorf("%s: not found", action)
	case errors.Is(err, api.ErrForbidden):
		return fmt.Errorf("%s: you do not have permission to do that", action)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

// token is the current session token, empty when signed out
func (a *App) token() string {
	if a.session == nil {
		return ""
	}
	return a.session.Token()
}
