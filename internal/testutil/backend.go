// Package testutil provides an in-memory blogging backend served over real
// HTTP for tests of the client packages.
package testutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bearerPrefix = "Bearer "

var errInvalidToken = errors.New("invalid token")

type user struct {
	ID             int
	Username       string
	Name           string
	Email          string
	PasswordHash   []byte
	ProfilePicture string
	DateJoined     time.Time
}

type post struct {
	ID        int
	Title     string
	Content   string
	ImageURL  string
	AuthorID  int
	TagIDs    []int
	Likes     map[int]bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type comment struct {
	ID       int
	PostID   int
	AuthorID int
	Text     string
}

type tag struct {
	ID   int
	Name string
}

// Upload records a file received by the backend
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Size        int64
}

// Claims carried by issued tokens
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Backend is a fake blogging backend
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	secret   []byte
	users    map[int]*user
	posts    map[int]*post
	comments map[int]*comment
	tags     map[int]*tag
	nextID   int
	hits     map[string]int
	uploads  []Upload
	meStatus int
	clock    time.Time
}

// NewBackend starts a backend that is shut down when the test ends
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		secret:   []byte("test-secret"),
		users:    make(map[int]*user),
		posts:    make(map[int]*post),
		comments: make(map[int]*comment),
		tags:     make(map[int]*tag),
		hits:     make(map[string]int),
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend root
func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		b.mu.Lock()
		b.hits[c.Request.Method+" "+c.Request.URL.Path]++
		b.mu.Unlock()
		c.Next()
	})

	r.POST("/login/", b.login)
	r.POST("/signup/", b.signup)
	r.GET("/me/", b.requireAuth, b.me)

	r.GET("/list-tags/", b.listTags)
	r.GET("/blogs-list/", b.listPosts)
	r.GET("/blogs-list/top-liked-posts/", b.topLiked)
	r.GET("/blogs-list/most-commented-posts/", b.mostCommented)
	r.GET("/blogs-list/get-all-user/", b.topUsers)
	r.GET("/blogs-list/users/:id/", b.getUser)
	r.GET("/blogs-list/:id/", b.rejectBadToken, b.getPost)
	r.GET("/blogs-list/:id/user-posts/", b.rejectBadToken, b.userPosts)

	r.POST("/blogs-create/", b.requireAuth, b.createPost)
	r.PUT("/blogs-update/:id/", b.requireAuth, b.updatePost)
	r.POST("/like-post/:id", b.requireAuth, b.toggleLike)
	r.POST("/blogs/:id/comment/", b.requireAuth, b.addComment)
	r.PUT("/comments/:id/update/", b.requireAuth, b.updateComment)
	r.DELETE("/comments/:id/delete/", b.requireAuth, b.deleteComment)

	return r
}

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

func (b *Backend) tick() time.Time {
	b.clock = b.clock.Add(time.Minute)
	return b.clock
}

// AddUser registers a user and returns its id
func (b *Backend) AddUser(username, name, email, password string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := &user{ID: b.id(), Username: username, Name: name, Email: email, PasswordHash: hash, DateJoined: b.tick()}
	b.users[u.ID] = u
	return u.ID
}

// AddTag creates a tag and returns its id
func (b *Backend) AddTag(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &tag{ID: b.id(), Name: name}
	b.tags[t.ID] = t
	return t.ID
}

// AddPost creates a post by authorID and returns its id
func (b *Backend) AddPost(authorID int, title, content string, tagIDs ...int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.tick()
	p := &post{ID: b.id(), Title: title, Content: content, AuthorID: authorID, TagIDs: tagIDs, Likes: map[int]bool{}, CreatedAt: now, UpdatedAt: now}
	b.posts[p.ID] = p
	return p.ID
}

// AddComment creates a comment by authorID and returns its id
func (b *Backend) AddComment(postID, authorID int, text string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &comment{ID: b.id(), PostID: postID, AuthorID: authorID, Text: text}
	b.comments[c.ID] = c
	return c.ID
}

// Like records a like on a post
func (b *Backend) Like(postID, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posts[postID].Likes[userID] = true
}

// TokenFor issues a valid token for an existing user
func (b *Backend) TokenFor(userID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token, err := b.issueToken(b.users[userID])
	if err != nil {
		panic(err)
	}
	return token
}

// RevokeTokens invalidates every token issued so far
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.secret = append(b.secret, '!')
}

// FailMe makes /me/ answer with status regardless of the token; 0 restores it
func (b *Backend) FailMe(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meStatus = status
}

// Hits counts requests for "METHOD /path/"
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// Uploads lists received files in arrival order
func (b *Backend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

// Post returns a copy of the stored post
func (b *Backend) Post(id int) (title, content string, tagIDs []int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.posts[id]
	if !ok {
		return "", "", nil, false
	}
	return p.Title, p.Content, append([]int(nil), p.TagIDs...), true
}

// PostCount returns how many posts exist
func (b *Backend) PostCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posts)
}

// Likes returns how many likes a post has
func (b *Backend) Likes(postID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posts[postID].Likes)
}

// Comments returns the texts of a post's comments in creation order
func (b *Backend) Comments(postID int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int
	for _, c := range b.comments {
		if c.PostID == postID {
			ids = append(ids, c.ID)
		}
	}
	sort.Ints(ids)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.comments[id].Text)
	}
	return out
}

// UserByEmail returns the id of the user with email
func (b *Backend) UserByEmail(email string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.findByEmail(email)
	if u == nil {
		return 0, false
	}
	return u.ID, true
}

func (b *Backend) findByEmail(email string) *user {
	for _, u := range b.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (b *Backend) issueToken(u *user) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *Backend) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// requireAuth resolves the bearer token to a user stored under "user"
func (b *Backend) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, bearerPrefix)
	if header == "" || token == header || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	claims, err := b.validateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Given token not valid for any token type"})
		return
	}
	u, ok := b.users[claims.UserID]
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
		return
	}
	c.Set("user", u)
}

// rejectBadToken lets anonymous requests through but refuses an invalid token,
// even on public endpoints
func (b *Backend) rejectBadToken(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		return
	}
	b.requireAuth(c)
}

func currentUser(c *gin.Context) *user {
	return c.MustGet("user").(*user)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}
