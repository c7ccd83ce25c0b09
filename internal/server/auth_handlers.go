package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/forms"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUnreachable        = "Unable to reach the server. Please try again."
	msgSignupSuccess      = "Account created successfully! You can now sign in."
)

func (s *Server) loginPage(c *gin.Context) {
	if s.session.Snapshot().IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.render(c, http.StatusOK, "login.html", gin.H{"Title": "Sign in", "Form": forms.Login{}})
}

func (s *Server) submitLogin(c *gin.Context) {
	var form forms.Login
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Sign in", "Form": form, "Error": "Invalid form submission"})
		return
	}

	if err := forms.Validate(form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Sign in", "Form": form, "Errors": err})
		return
	}

	if _, err := s.session.Login(c.Request.Context(), form.Email, form.Password); err != nil {
		status, message := loginFailure(err)
		if status != http.StatusUnauthorized {
			s.logger.Error().Err(err).Msg("Login failed")
		}
		s.render(c, status, "login.html", gin.H{"Title": "Sign in", "Form": form, "Error": message})
		return
	}

	c.Redirect(http.StatusSeeOther, s.redirects.Consume("/"))
}

// loginFailure never reveals whether the account exists
func loginFailure(err error) (int, string) {
	var transportErr *api.TransportError
	switch {
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, msgUnreachable
	case errors.Is(err, api.ErrAuthenticationFailed):
		return http.StatusUnauthorized, msgInvalidCredentials
	default:
		return http.StatusInternalServerError, msgInvalidCredentials
	}
}

func (s *Server) signupPage(c *gin.Context) {
	s.render(c, http.StatusOK, "signup.html", gin.H{"Title": "Create your account", "Form": forms.Signup{}})
}

func (s *Server) submitSignup(c *gin.Context) {
	var form forms.Signup
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "signup.html", gin.H{"Title": "Create your account", "Form": form, "Error": "Invalid form submission"})
		return
	}

	if err := forms.Validate(form); err != nil {
		s.render(c, http.StatusBadRequest, "signup.html", gin.H{"Title": "Create your account", "Form": form, "Errors": err})
		return
	}

	file, closeFile, err := formUpload(c, "profile_picture")
	if err != nil {
		s.render(c, http.StatusBadRequest, "signup.html", gin.H{"Title": "Create your account", "Form": form, "Error": "Could not read the profile picture"})
		return
	}
	defer closeFile()
	form.Picture = file

	if _, err := s.session.Signup(c.Request.Context(), form.Request()); err != nil {
		message := "Failed to create account"
		var rejected *api.SignupRejectedError
		var transportErr *api.TransportError
		switch {
		case errors.As(err, &rejected):
			message = rejected.Message
		case errors.As(err, &transportErr):
			message = msgUnreachable
		}
		s.logger.Warn().Err(err).Msg("Signup failed")
		s.render(c, http.StatusBadRequest, "signup.html", gin.H{"Title": "Create your account", "Form": form, "Error": message})
		return
	}

	// The account exists but nobody is signed in; head to the login page shortly
	s.render(c, http.StatusCreated, "signup.html", gin.H{
		"Title":      "Create your account",
		"Form":       forms.Signup{},
		"Success":    msgSignupSuccess,
		"RedirectTo": "/login",
	})
}

func (s *Server) submitLogout(c *gin.Context) {
	if err := s.session.Logout(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear stored token")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// formUpload returns the optional file posted under field
func formUpload(c *gin.Context, field string) (*api.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if header.Size == 0 {
		return nil, func() {}, nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &api.Upload{FileName: header.Filename, Data: f}, closer(f), nil
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}
