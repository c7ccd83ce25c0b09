package server

import (
	"errors"
	"net/http"
	"net/url"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogdeck/blogdeck/internal/guard"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

var ErrCrossOrigin = errors.New("cross-origin request rejected")

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// requestIDMiddleware tags every request with an id, reusing a valid incoming one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// sameOriginMiddleware rejects state-changing requests sent by other sites.
// Requests without Origin and Referer (curl, the CLI) pass.
func (s *Server) sameOriginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			if ref, err := url.Parse(c.GetHeader("Referer")); err == nil && ref.Host != "" {
				origin = ref.Scheme + "://" + ref.Host
			}
		}

		if origin != "" && !s.trustedOrigin(c, origin) {
			respondWithError(c, s.logger, http.StatusForbidden, ErrCrossOrigin, "Cross-origin request rejected")
			return
		}
		c.Next()
	}
}

func (s *Server) trustedOrigin(c *gin.Context, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == c.Request.Host {
		return true
	}
	return slices.Contains(s.config.Web.CORSOrigins, origin)
}

// requireSession guards protected pages. While the session is resolving the
// page is a loading indicator that reloads itself; signed-out visitors are
// sent to /login and come back after signing in.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch guard.Decide(s.session.Snapshot()) {
		case guard.Allow:
			c.Next()

		case guard.Pending:
			c.Header("Cache-Control", "no-store")
			if c.Request.Method != http.MethodGet {
				c.Header("Retry-After", "1")
				s.render(c, http.StatusServiceUnavailable, "loading.html", gin.H{"Title": "Loading"})
			} else {
				s.render(c, http.StatusOK, "loading.html", gin.H{"Title": "Loading", "Refresh": true})
			}
			c.Abort()

		case guard.Deny:
			s.captureTarget(c)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
		}
	}
}

// captureTarget remembers where the visitor was going. Form posts return
// to the page the form was on.
func (s *Server) captureTarget(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		s.redirects.Capture(c.Request.URL.RequestURI())
		return
	}
	referer := c.GetHeader("Referer")
	if referer == "" {
		return
	}
	ref, err := url.Parse(referer)
	if err != nil || (ref.Host != "" && ref.Host != c.Request.Host) {
		return
	}
	s.redirects.Capture(ref.RequestURI())
}
