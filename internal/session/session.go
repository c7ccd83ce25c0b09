// Package session owns the client's authentication state: which user, if any, the
// stored bearer token belongs to. One Session is built at process start and handed
// to every consumer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/tokenstore"
)

// Backend is the narrow API surface the session needs
type Backend interface {
	Me(ctx context.Context, token string) (*api.User, error)
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Signup(ctx context.Context, in api.SignupRequest) (*api.SignupResponse, error)
}

// State is an immutable snapshot of the session
type State struct {
	User      *api.User
	IsLoading bool
}

// IsAuthenticated is derived from the user; there is no separate flag
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Session is the process-wide authentication state container
type Session struct {
	backend Backend
	tokens  tokenstore.Store
	logger  zerolog.Logger

	mu      sync.RWMutex
	user    *api.User
	token   string
	loading bool
	// generation bumps on every login/logout so an in-flight resolution
	// can tell its result is stale
	generation uint64
	subs       map[uint64]chan State
	nextSub    uint64

	resolveOnce sync.Once
	done        chan struct{}
}

// New creates the session. It starts in the loading state until Resolve runs.
func New(backend Backend, tokens tokenstore.Store, logger zerolog.Logger) *Session {
	return &Session{
		backend: backend,
		tokens:  tokens,
		logger:  logger.With().Str("component", "session").Logger(),
		loading: true,
		subs:    make(map[uint64]chan State),
		done:    make(chan struct{}),
	}
}

// Resolve exchanges the stored token for the current user. Only the first call
// does any work; concurrent callers block until it finishes. It never fails:
// every error degrades to the anonymous state.
func (s *Session) Resolve(ctx context.Context) {
	s.resolveOnce.Do(func() {
		defer close(s.done)
		s.resolve(ctx)
	})
}

// Done is closed once resolution has finished
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) resolve(ctx context.Context) {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	token, ok, err := s.tokens.Get()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored token, continuing anonymously")
		s.finishResolve(generation, nil, "", false)
		return
	}
	if !ok {
		s.logger.Debug().Msg("No stored token")
		s.finishResolve(generation, nil, "", false)
		return
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled, not rejected: keep the token for the next run
			s.logger.Warn().Err(err).Msg("Session resolution cancelled")
			s.finishResolve(generation, nil, "", false)
			return
		}
		s.logger.Warn().Err(err).Msg("Stored token rejected, clearing session")
		s.finishResolve(generation, nil, "", true)
		return
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("Session resolved")
	s.finishResolve(generation, user, token, false)
}

func (s *Session) finishResolve(generation uint64, user *api.User, token string, clearToken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A login or logout happened while we were resolving; it wins.
	if s.generation == generation {
		if clearToken {
			if err := s.tokens.Clear(); err != nil {
				s.logger.Error().Err(err).Msg("Failed to clear rejected token")
			}
		}
		s.user = user
		s.token = token
	}
	s.loading = false
	s.publishLocked()
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	state := State{IsLoading: s.loading}
	if s.user != nil {
		user := *s.user
		state.User = &user
	}
	return state
}

// Token returns the bearer token of the authenticated user, or "" when anonymous
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenExpiry reads the exp claim when the token happens to be a JWT. The
// signature is not verified; the value is informational only.
func (s *Session) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Login authenticates, stores the token and publishes the user. On any error
// the session is left exactly as it was.
func (s *Session) Login(ctx context.Context, email, password string) (*api.User, error) {
	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := resp.User

	// The stored token and the published user change together
	s.mu.Lock()
	if err := s.tokens.Set(resp.AccessToken); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}
	s.generation++
	s.user = &user
	s.token = resp.AccessToken
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User logged in")

	out := user
	return &out, nil
}

// Signup creates an account without touching the session; the user logs in afterwards
func (s *Session) Signup(ctx context.Context, in api.SignupRequest) (*api.SignupResponse, error) {
	resp, err := s.backend.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", in.Username).Msg("Account created")
	return resp, nil
}

// Logout forgets the token and the user. It makes no network call and is idempotent.
func (s *Session) Logout() error {
	s.mu.Lock()
	clearErr := s.tokens.Clear()
	s.generation++
	changed := s.user != nil || s.token != ""
	s.user = nil
	s.token = ""
	if changed {
		s.publishLocked()
	}
	s.mu.Unlock()

	if clearErr != nil {
		return fmt.Errorf("failed to clear stored token: %w", clearErr)
	}
	return nil
}

// Subscribe returns a channel receiving the current state and every later
// change. Slow readers only ever see the latest state.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// WaitResolved blocks until resolution finished or ctx ends
func (s *Session) WaitResolved(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) publishLocked() {
	state := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- state:
		default:
			// Drop the stale pending value and replace it
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

// IsAuthError reports whether err means the caller must sign in again
func IsAuthError(err error) bool {
	return errors.Is(err, api.ErrAuthenticationFailed) || errors.Is(err, api.ErrSessionInvalid) || api.IsUnauthorized(err)
}
