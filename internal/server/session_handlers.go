package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/forms"
	"github.com/blogdeck/blogdeck/internal/session"
)

// SessionResponse is the JSON view of the session
type SessionResponse struct {
	User            *api.User `json:"user"`
	IsLoading       bool      `json:"isLoading"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

func sessionResponse(state session.State) SessionResponse {
	return SessionResponse{
		User:            state.User,
		IsLoading:       state.IsLoading,
		IsAuthenticated: state.IsAuthenticated(),
	}
}

func (s *Server) getSession(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, sessionResponse(s.session.Snapshot()))
}

// sessionEvents streams the session state as server-sent events
func (s *Server) sessionEvents(c *gin.Context) {
	// The stream outlives the server's write timeout
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug().Err(err).Msg("Could not clear write deadline for event stream")
	}

	updates, cancel := s.session.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-store")
	c.Stream(func(w io.Writer) bool {
		select {
		case state, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("session", sessionResponse(state))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) apiLogin(c *gin.Context) {
	var form forms.Login
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := forms.Validate(form); err != nil {
		var formErr *forms.Errors
		if errors.As(err, &formErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "fields": formErr.Fields})
			return
		}
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request")
		return
	}

	user, err := s.session.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		status, message := loginFailure(err)
		respondWithError(c, s.logger, status, err, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) apiLogout(c *gin.Context) {
	if err := s.session.Logout(); err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to sign out")
		return
	}
	c.Status(http.StatusNoContent)
}
