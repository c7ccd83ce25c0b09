// Package server is the local web client: a gin application serving HTML
// pages and a small JSON session API to one person's browser.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/config"
	"github.com/blogdeck/blogdeck/internal/drafts"
	"github.com/blogdeck/blogdeck/internal/guard"
	"github.com/blogdeck/blogdeck/internal/session"
)

// BlogAPI is the part of the backend client the pages use
type BlogAPI interface {
	ListBlogs(ctx context.Context) ([]api.BlogSummary, error)
	GetBlog(ctx context.Context, token string, postID api.ID) (*api.BlogDetail, error)
	CreateBlog(ctx context.Context, token string, in api.ArticleRequest) error
	UpdateBlog(ctx context.Context, token string, postID api.ID, in api.ArticleRequest) error
	ToggleLike(ctx context.Context, token string, postID api.ID) error
	ListTags(ctx context.Context) ([]api.Tag, error)
	AddComment(ctx context.Context, token string, postID api.ID, text string) error
	UpdateComment(ctx context.Context, token string, commentID api.ID, text string) error
	DeleteComment(ctx context.Context, token string, commentID api.ID) error
	GetUser(ctx context.Context, userID api.ID) (*api.User, error)
	UserPosts(ctx context.Context, token string, userID api.ID) ([]api.BlogSummary, error)
	TopLikedPosts(ctx context.Context) ([]api.BlogSummary, error)
	MostCommentedPosts(ctx context.Context) ([]api.BlogSummary, error)
	TopUsers(ctx context.Context) ([]api.UserStats, error)
}

// Deps are the collaborators built by main
type Deps struct {
	Session *session.Session
	API     BlogAPI
	Drafts  *drafts.Store
	Version string
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	session   *session.Session
	api       BlogAPI
	drafts    *drafts.Store
	redirects *guard.Redirects
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, deps Deps) (*Server, error) {
	if deps.Session == nil || deps.API == nil {
		return nil, errors.New("server requires a session and an API client")
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		session:   deps.Session,
		api:       deps.API,
		drafts:    deps.Drafts,
		redirects: &guard.Redirects{},
		version:   deps.Version,
	}

	if err := server.setupRouter(); err != nil {
		return nil, err
	}

	return server, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() error {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	tmpl, err := loadTemplates()
	if err != nil {
		return err
	}
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.sameOriginMiddleware())
	s.router.MaxMultipartMemory = 8 << 20

	// Health check endpoint (no session required)
	s.router.GET("/health", s.healthCheck)

	// Public pages
	s.router.GET("/", s.homePage)
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", s.submitLogin)
	s.router.GET("/signup", s.signupPage)
	s.router.POST("/signup", s.submitSignup)
	s.router.POST("/logout", s.submitLogout)
	s.router.GET("/most-viewed", s.mostViewedPage)
	s.router.GET("/blogs/:id", s.blogPage)
	s.router.GET("/users/:id", s.userPage)

	// Protected pages
	protected := s.router.Group("/")
	protected.Use(s.requireSession())
	{
		protected.GET("/write", s.writePage)
		protected.POST("/write", s.submitWrite)
		protected.GET("/edit/:id", s.editPage)
		protected.POST("/edit/:id", s.submitEdit)
		protected.GET("/profile", s.profilePage)

		protected.POST("/blogs/:id/like", s.toggleLike)
		protected.POST("/blogs/:id/comments", s.addComment)
		protected.POST("/comments/:id/edit", s.editComment)
		protected.POST("/comments/:id/delete", s.deleteComment)

		protected.GET("/drafts", s.draftsPage)
		protected.POST("/drafts/:id/delete", s.deleteDraft)
		protected.POST("/drafts/:id/publish", s.publishDraft)
	}

	// JSON session API
	apiGroup := s.router.Group("/api")
	apiGroup.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Web.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	{
		apiGroup.GET("/session", s.getSession)
		apiGroup.GET("/session/events", s.sessionEvents)
		apiGroup.POST("/session/login", s.apiLogin)
		apiGroup.POST("/session/logout", s.apiLogout)
	}

	// Unknown routes go home
	s.router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})

	return nil
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	state := s.session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "blogdeck-web",
		"version":   s.version,
		"session":   guard.Decide(state).String(),
	})
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Web.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run resolves the session in the background and serves until ctx ends
func (s *Server) Run(ctx context.Context) error {
	srv := s.httpServer()

	// Pages requested before this finishes see the loading state
	go s.session.Resolve(ctx)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			s.logger.Error().Err(err).Msg("HTTP server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
