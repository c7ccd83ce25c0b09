package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/testutil"
	"github.com/blogdeck/blogdeck/internal/tokenstore"
)

func TestSession_AgainstBackend(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("alice", "Alice", "alice@example.com", "hunter22")

	store := tokenstore.NewFileStore(t.TempDir())
	client := api.New(backend.URL(), 0)

	s := New(client, store, zerolog.Nop())
	s.Resolve(context.Background())
	assert.Equal(t, 0, backend.Hits("GET /me/"), "no token means no network call")

	_, err := s.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, api.ErrAuthenticationFailed)

	user, err := s.Login(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	exp, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.False(t, exp.IsZero())

	// A second process sharing the store picks the session up
	restarted := New(client, store, zerolog.Nop())
	restarted.Resolve(context.Background())
	state := restarted.Snapshot()
	require.NotNil(t, state.User)
	assert.Equal(t, "alice@example.com", state.User.Email)
	assert.Equal(t, 1, backend.Hits("GET /me/"))
}

func TestSession_RevokedTokenDowngrades(t *testing.T) {
	backend := testutil.NewBackend(t)
	id := backend.AddUser("alice", "Alice", "alice@example.com", "hunter22")

	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(backend.TokenFor(id)))
	backend.RevokeTokens()

	s := New(api.New(backend.URL(), 0), store, zerolog.Nop())
	s.Resolve(context.Background())

	assert.False(t, s.Snapshot().IsAuthenticated())
	_, ok, err := store.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ServerErrorDowngrades(t *testing.T) {
	backend := testutil.NewBackend(t)
	id := backend.AddUser("alice", "Alice", "alice@example.com", "hunter22")
	backend.FailMe(http.StatusInternalServerError)

	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Set(backend.TokenFor(id)))

	s := New(api.New(backend.URL(), 0), store, zerolog.Nop())
	s.Resolve(context.Background())

	state := s.Snapshot()
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.User)
}

func TestSession_SignupThenLogin(t *testing.T) {
	backend := testutil.NewBackend(t)
	s := New(api.New(backend.URL(), 0), tokenstore.NewMemoryStore(), zerolog.Nop())
	s.Resolve(context.Background())

	resp, err := s.Signup(context.Background(), api.SignupRequest{
		Username: "bob",
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", resp.Message)
	assert.Nil(t, s.Snapshot().User, "signup does not sign in")

	_, err = s.Signup(context.Background(), api.SignupRequest{Username: "bob2", Email: "bob@example.com", Password: "pw"})
	var rejected *api.SignupRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Email already registered", rejected.Message)

	_, err = s.Login(context.Background(), "bob@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, s.Snapshot().IsAuthenticated())
}
