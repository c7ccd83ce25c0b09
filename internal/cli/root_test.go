package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/blogdeck/internal/cli/commands"
	"github.com/blogdeck/blogdeck/internal/cli/userconfig"
	"github.com/blogdeck/blogdeck/internal/config"
	"github.com/blogdeck/blogdeck/internal/testutil"
	"github.com/blogdeck/blogdeck/internal/tokenstore"
)

type harness struct {
	t       *testing.T
	backend *testutil.Backend
	tokens  *tokenstore.MemoryStore
	dataDir string

	interactive   bool
	stdin         string
	email         string
	password      string
	prompted      int
	promptDefault string

	alice int
	bob   int
	tag   int
	post  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("BLOGDECK_EMAIL", "")
	t.Setenv("BLOGDECK_PASSWORD", "")

	backend := testutil.NewBackend(t)
	h := &harness{
		t:       t,
		backend: backend,
		tokens:  tokenstore.NewMemoryStore(),
		dataDir: t.TempDir(),
	}
	h.alice = backend.AddUser("alice", "Alice", "alice@example.com", "hunter22")
	h.bob = backend.AddUser("bob", "Bob", "bob@example.com", "swordfish")
	h.tag = backend.AddTag("go")
	h.post = backend.AddPost(h.alice, "Hello", "<p>Hi there</p><script>alert(1)</script>", h.tag)
	return h
}

func (h *harness) config() *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: h.backend.URL()},
		Web: config.WebConfig{ListenAddr: "127.0.0.1:0"},
		Storage: config.StorageConfig{
			DataDir:    h.dataDir,
			TokenStore: "memory",
		},
		Drafts: config.DraftsConfig{
			DatabasePath:  filepath.Join(h.dataDir, "drafts.sqlite"),
			Retention:     30 * 24 * time.Hour,
			PruneSchedule: "@daily",
		},
		Logging: config.LoggingConfig{Level: "error", Format: "console"},
	}
}

// run executes one CLI invocation; the token store outlives it
func (h *harness) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	app := &commands.App{
		Out:         &out,
		Err:         &errOut,
		In:          strings.NewReader(h.stdin),
		Version:     "test",
		Config:      h.config(),
		Tokens:      h.tokens,
		Interactive: func() bool { return h.interactive },
		PromptCredentials: func(defaultEmail string) (string, string, error) {
			h.prompted++
			h.promptDefault = defaultEmail
			return h.email, h.password, nil
		},
	}
	defer app.Close()

	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) login(email, password string) {
	h.t.Helper()
	_, _, err := h.run("login", "--email", email, "--password", password)
	require.NoError(h.t, err)
}

func (h *harness) storedToken() string {
	token, _, err := h.tokens.Get()
	require.NoError(h.t, err)
	return token
}

func id(n int) string {
	return strconv.Itoa(n)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("version")
	require.NoError(t, err)
	assert.Equal(t, "blogdeck version test\n", out)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "--email", "alice@example.com", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Login successful!")
	assert.Contains(t, out, "Alice (alice@example.com)")
	assert.NotEmpty(t, h.storedToken())

	prefs, err := userconfig.Load(h.dataDir)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", prefs.LastEmail)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "wrong password", args: []string{"--email", "alice@example.com", "--password", "nope"}, wantErr: "login failed: invalid email or password"},
		{name: "unknown account", args: []string{"--email", "carol@example.com", "--password", "hunter22"}, wantErr: "login failed: invalid email or password"},
		{name: "missing email", args: []string{"--password", "hunter22"}, wantErr: "email is required"},
		{name: "missing password", args: []string{"--email", "alice@example.com"}, wantErr: "password is required in non-interactive mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, _, err := h.run(append([]string{"login"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, h.storedToken())
		})
	}
}

func TestLogin_EnvCredentials(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BLOGDECK_EMAIL", "bob@example.com")
	t.Setenv("BLOGDECK_PASSWORD", "swordfish")

	out, _, err := h.run("login")
	require.NoError(t, err)
	assert.Contains(t, out, "Bob (bob@example.com)")
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
	assert.Equal(t, 0, h.backend.Hits("GET /me/"), "no token means no network call")

	h.login("alice@example.com", "hunter22")

	out, _, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "as Alice (@alice)")
	assert.Contains(t, out, "Token:  expires")

	out, _, err = h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out")
	assert.Empty(t, h.storedToken())

	out, _, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
}

func TestSignup(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("signup",
		"--username", "carol",
		"--name", "Carol",
		"--email", "carol@example.com",
		"--password", "pa55word",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Account created successfully!")
	assert.Empty(t, h.storedToken(), "signing up does not sign in")

	_, ok := h.backend.UserByEmail("carol@example.com")
	assert.True(t, ok)

	_, _, err = h.run("signup",
		"--username", "alice2",
		"--name", "Alice",
		"--email", "alice@example.com",
		"--password", "pa55word",
	)
	require.Error(t, err)
	assert.Equal(t, "signup failed: Email already registered", err.Error())
}

func TestSignup_InvalidForm(t *testing.T) {
	h := newHarness(t)
	picture := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(picture, []byte("png"), 0o600))

	_, _, err := h.run("signup",
		"--username", "carol",
		"--name", " ",
		"--email", "not-an-email",
		"--password", "pa55word",
		"--picture", picture,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name is required")
	assert.Contains(t, err.Error(), "valid email")
	assert.Equal(t, 0, h.backend.Hits("POST /signup/"))
}

func TestProtectedCommand_NonInteractive(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("like", id(h.post))
	require.ErrorIs(t, err, commands.ErrNotAuthenticated)
	assert.Equal(t, "not authenticated. Please run 'blogdeck login' first", err.Error())
	assert.Equal(t, 0, h.backend.Likes(h.post))
}

func TestProtectedCommand_PromptsThenResumes(t *testing.T) {
	h := newHarness(t)
	h.interactive = true
	h.email, h.password = "bob@example.com", "swordfish"

	out, errOut, err := h.run("like", id(h.post))
	require.NoError(t, err)
	assert.Equal(t, 1, h.prompted)
	assert.Contains(t, errOut, "You need to sign in to continue.")
	assert.Contains(t, errOut, "Signed in as bob")
	assert.Contains(t, out, `♥ Liked "Hello" (1 likes)`)
	assert.Equal(t, 1, h.backend.Likes(h.post))

	// The stored token carries over to the next invocation
	out, _, err = h.run("like", id(h.post))
	require.NoError(t, err)
	assert.Equal(t, 1, h.prompted)
	assert.Contains(t, out, `Removed your like from "Hello"`)
	assert.Equal(t, 0, h.backend.Likes(h.post))

	_, _, err = h.run("logout")
	require.NoError(t, err)
	h.email, h.password = "bob@example.com", "wrong"
	_, _, err = h.run("like", id(h.post))
	require.Error(t, err)
	assert.Equal(t, "bob@example.com", h.promptDefault, "the last email is offered again")
	assert.Equal(t, 0, h.backend.Likes(h.post))
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login("bob@example.com", "swordfish")

	token := h.storedToken()
	require.NotEmpty(t, token)

	// Revoked while the CLI was not running: the resolve drops it
	h.backend.RevokeTokens()
	_, _, err := h.run("like", id(h.post))
	require.ErrorIs(t, err, commands.ErrNotAuthenticated)
	assert.Empty(t, h.storedToken())
}

func TestPostsList(t *testing.T) {
	h := newHarness(t)
	second := h.backend.AddPost(h.bob, "Second post", "<p>More</p>")
	h.backend.Like(second, h.alice)

	out, _, err := h.run("posts", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Second post")
	assert.Contains(t, out, "Page 1 of 1 (2 posts)")
	assert.Less(t, strings.Index(out, "Second post"), strings.Index(out, "Hello"), "newest first")

	out, _, err = h.run("posts", "ls", "-q", "hello")
	require.NoError(t, err)
	assert.NotContains(t, out, "Second post")

	out, _, err = h.run("posts", "ls", "--size", "1", "--sort", "likes", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 1 of 2 (2 posts)")
	assert.Contains(t, out, "blogdeck posts ls --page 2")

	prefs, err := userconfig.Load(h.dataDir)
	require.NoError(t, err)
	assert.Equal(t, "likes", prefs.FeedSort)
	assert.Equal(t, 1, prefs.FeedPageSize)

	out, _, err = h.run("posts", "ls", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello", "saved preferences apply")
	assert.NotContains(t, out, "Second post")
}

func TestPostsShow(t *testing.T) {
	h := newHarness(t)
	h.backend.AddComment(h.post, h.bob, "First!")

	out, _, err := h.run("posts", "show", id(h.post))
	require.NoError(t, err)
	assert.Contains(t, out, "Hello\nby alice")
	assert.Contains(t, out, "Tags: go")
	assert.Contains(t, out, "Hi there")
	assert.NotContains(t, out, "alert(1)")
	assert.Contains(t, out, "bob: First!")

	_, _, err = h.run("posts", "show", "9999")
	require.Error(t, err)
	assert.Equal(t, "failed to load blog post: not found", err.Error())
}

func TestTopAndTags(t *testing.T) {
	h := newHarness(t)
	h.backend.Like(h.post, h.bob)

	out, _, err := h.run("top")
	require.NoError(t, err)
	assert.Contains(t, out, "Top liked posts:")
	assert.Contains(t, out, "Most commented posts:")
	assert.Contains(t, out, "Top authors:")
	assert.Contains(t, out, "alice")

	out, _, err = h.run("top", "users")
	require.NoError(t, err)
	assert.NotContains(t, out, "Top liked posts:")

	_, _, err = h.run("top", "everything")
	require.Error(t, err)

	out, _, err = h.run("tags")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "go")
}

func TestWrite(t *testing.T) {
	h := newHarness(t)
	h.login("alice@example.com", "hunter22")

	image := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))

	out, _, err := h.run("write", "--title", "New post", "--content", "<p>Body</p>", "--tag", id(h.tag), "--image", image)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Article published successfully!")
	assert.Equal(t, 2, h.backend.PostCount())

	uploads := h.backend.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "cover.png", uploads[0].FileName)

	_, _, err = h.run("write", "--title", "Empty", "--content", "<p> </p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Content is required")
	assert.Equal(t, 2, h.backend.PostCount())
}

func TestWrite_ContentFromStdin(t *testing.T) {
	h := newHarness(t)
	h.login("alice@example.com", "hunter22")
	h.stdin = "<p>Piped body</p>"

	_, _, err := h.run("write", "--title", "Piped", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, 2, h.backend.PostCount())
}

func TestEdit(t *testing.T) {
	h := newHarness(t)

	h.login("bob@example.com", "swordfish")
	_, _, err := h.run("edit", id(h.post), "--title", "Mine now")
	require.Error(t, err)
	assert.Equal(t, "you can only edit your own articles", err.Error())

	h.login("alice@example.com", "hunter22")
	out, _, err := h.run("edit", id(h.post), "--title", "Hello again")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Article updated successfully!")

	title, content, tags, ok := h.backend.Post(h.post)
	require.True(t, ok)
	assert.Equal(t, "Hello again", title)
	assert.Contains(t, content, "Hi there", "content is kept")
	assert.Equal(t, []int{h.tag}, tags, "tags are kept")
}

func TestDrafts(t *testing.T) {
	h := newHarness(t)
	h.login("alice@example.com", "hunter22")

	out, _, err := h.run("write", "--title", "Half done", "--content", "<p>Draft body</p>", "--draft")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Draft saved:")
	assert.Equal(t, 1, h.backend.PostCount(), "a draft is not published")

	out, _, err = h.run("drafts", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Half done")
	assert.Contains(t, out, "new")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	draftID := strings.Fields(lines[2])[0]

	out, _, err = h.run("drafts", "show", draftID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Draft body")

	out, _, err = h.run("drafts", "publish", draftID)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Draft published")
	assert.Equal(t, 2, h.backend.PostCount())

	out, _, err = h.run("drafts", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No drafts found.")
}

func TestDrafts_EditDraftAndIncomplete(t *testing.T) {
	h := newHarness(t)
	h.login("alice@example.com", "hunter22")

	_, _, err := h.run("edit", id(h.post), "--title", "Retitled", "--draft")
	require.NoError(t, err)
	title, _, _, _ := h.backend.Post(h.post)
	assert.Equal(t, "Hello", title, "saving a draft leaves the post alone")

	out, _, err := h.run("write", "--title", "No body yet", "--content", "", "--draft")
	require.NoError(t, err)
	incompleteID := strings.TrimSpace(strings.TrimPrefix(strings.Split(out, "\n")[0], "✓ Draft saved:"))

	_, _, err = h.run("drafts", "publish", incompleteID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft is incomplete")

	out, _, err = h.run("drafts", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, id(h.post), "edit drafts name their post")

	_, _, err = h.run("drafts", "rm", incompleteID)
	require.NoError(t, err)

	out, _, err = h.run("drafts", "prune", "--older-than", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 draft")
}

func TestComments(t *testing.T) {
	h := newHarness(t)
	h.login("bob@example.com", "swordfish")

	out, _, err := h.run("comment", "add", id(h.post), "Nice", "post")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Comment added")
	assert.Equal(t, []string{"Nice post"}, h.backend.Comments(h.post))

	_, _, err = h.run("comment", "add", id(h.post), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Comment cannot be empty")

	aliceComment := h.backend.AddComment(h.post, h.alice, "Thanks")
	_, _, err = h.run("comment", "edit", id(aliceComment), "Hijacked")
	require.Error(t, err)
	assert.Equal(t, "failed to update comment: you do not have permission to do that", err.Error())
	assert.NotEmpty(t, h.storedToken(), "a forbidden action keeps the session")

	out, _, err = h.run("posts", "show", id(h.post))
	require.NoError(t, err)
	var bobComment string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "bob (you):") {
			bobComment = strings.Trim(strings.Fields(line)[0], "[]")
		}
	}
	require.NotEmpty(t, bobComment)

	_, _, err = h.run("comment", "edit", bobComment, "Very", "nice")
	require.NoError(t, err)
	_, _, err = h.run("comment", "rm", bobComment)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thanks"}, h.backend.Comments(h.post))
}

func TestProfile(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("profile", id(h.alice))
	require.NoError(t, err)
	assert.Contains(t, out, "Alice (@alice)")
	assert.NotContains(t, out, "alice@example.com")
	assert.Contains(t, out, "Hello")

	_, _, err = h.run("profile")
	require.ErrorIs(t, err, commands.ErrNotAuthenticated)

	h.login("alice@example.com", "hunter22")
	out, _, err = h.run("profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Email:  alice@example.com")
}
