package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/feed"
	"github.com/blogdeck/blogdeck/internal/forms"
	"github.com/blogdeck/blogdeck/internal/richtext"
	"github.com/blogdeck/blogdeck/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"humanize": func(v any) string {
		var t time.Time
		switch ts := v.(type) {
		case api.Timestamp:
			t = ts.Time
		case time.Time:
			t = ts
		}
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"excerpt": func(content string) string {
		return richtext.Excerpt(content, richtext.ExcerptLength)
	},
	"sanitize": richtext.Sanitize,
	"hasTag": func(ids []string, id api.ID) bool {
		return slices.Contains(ids, id.String())
	},
	"pageURL": func(opts feed.Options, page int) string {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		if opts.Query != "" {
			q.Set("q", opts.Query)
		}
		if opts.Sort != "" && opts.Sort != feed.SortNewest {
			q.Set("sort", opts.Sort)
		}
		return "/?" + q.Encode()
	},
	"initial": func(name string) string {
		for _, r := range strings.TrimSpace(name) {
			return strings.ToUpper(string(r))
		}
		return "?"
	},
	"ownedBy": func(c api.Comment, state session.State) bool {
		return state.User != nil && c.OwnedBy(state.User.Email)
	},
	"fieldError": func(errs any, field string) string {
		if fe, ok := errs.(*forms.Errors); ok {
			return fe.Get(field)
		}
		return ""
	},
	"authorOf": func(b *api.BlogDetail, state session.State) bool {
		return state.User != nil && strings.EqualFold(b.User, state.User.Email)
	},
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// render adds the values every page needs and writes the template
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["State"] = s.session.Snapshot()
	data["Version"] = s.version
	data["Path"] = c.Request.URL.Path
	if _, ok := data["Title"]; !ok {
		data["Title"] = "blogdeck"
	}
	c.HTML(status, name, data)
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	s.render(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// handleAPIError turns a failed backend call into a response. A rejected
// token signs the user out and sends them to log in again.
func (s *Server) handleAPIError(c *gin.Context, err error, message string) {
	switch {
	case session.IsAuthError(err):
		s.logger.Warn().Err(err).Msg("Backend rejected the session, signing out")
		if logoutErr := s.session.Logout(); logoutErr != nil {
			s.logger.Error().Err(logoutErr).Msg("Failed to clear session")
		}
		s.captureTarget(c)
		c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, api.ErrNotFound):
		s.renderError(c, http.StatusNotFound, "The page you were looking for does not exist.")
	case errors.Is(err, api.ErrForbidden):
		s.renderError(c, http.StatusForbidden, "You do not have permission to do that.")
	default:
		s.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
		s.renderError(c, http.StatusBadGateway, message)
	}
}
