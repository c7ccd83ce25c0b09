package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/blogdeck/internal/drafts"
	"github.com/blogdeck/blogdeck/internal/forms"
)

const msgDraftsUnavailable = "Drafts are not available."

// saveDraft stores the posted article locally instead of publishing it
func (s *Server) saveDraft(c *gin.Context, form forms.Article, postID string) {
	if s.drafts == nil {
		s.renderError(c, http.StatusServiceUnavailable, msgDraftsUnavailable)
		return
	}
	ctx := c.Request.Context()

	draft := &drafts.Draft{}
	if draftID := c.PostForm("draft_id"); draftID != "" {
		existing, err := s.drafts.Get(ctx, draftID)
		if err != nil && !errors.Is(err, drafts.ErrNotFound) {
			s.logger.Error().Err(err).Msg("Failed to load draft")
			s.renderError(c, http.StatusInternalServerError, "Failed to save draft.")
			return
		}
		if existing != nil {
			draft = existing
		}
	}

	draft.Title = form.Title
	draft.Content = form.Content
	draft.TagIDs = form.TagIDs
	draft.PostID = postID

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Could not read the image.")
		return
	}
	defer closeImage()
	if image != nil {
		path, err := s.drafts.SaveImage(image.FileName, image.Data)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to store draft image")
			s.renderError(c, http.StatusInternalServerError, "Failed to save draft.")
			return
		}
		draft.ImagePath = path
	}

	if err := s.drafts.Save(ctx, draft); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save draft")
		s.renderError(c, http.StatusInternalServerError, "Failed to save draft.")
		return
	}

	c.Redirect(http.StatusSeeOther, "/drafts")
}

func (s *Server) draftsPage(c *gin.Context) {
	if s.drafts == nil {
		s.renderError(c, http.StatusServiceUnavailable, msgDraftsUnavailable)
		return
	}

	list, err := s.drafts.List(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list drafts")
		s.renderError(c, http.StatusInternalServerError, "Failed to load drafts.")
		return
	}

	s.render(c, http.StatusOK, "drafts.html", gin.H{"Title": "Drafts", "Drafts": list})
}

func (s *Server) deleteDraft(c *gin.Context) {
	if s.drafts == nil {
		s.renderError(c, http.StatusServiceUnavailable, msgDraftsUnavailable)
		return
	}

	if err := s.drafts.Delete(c.Request.Context(), c.Param("id")); err != nil && !errors.Is(err, drafts.ErrNotFound) {
		s.logger.Error().Err(err).Msg("Failed to delete draft")
		s.renderError(c, http.StatusInternalServerError, "Failed to delete draft.")
		return
	}
	c.Redirect(http.StatusSeeOther, "/drafts")
}

func (s *Server) publishDraft(c *gin.Context) {
	if s.drafts == nil {
		s.renderError(c, http.StatusServiceUnavailable, msgDraftsUnavailable)
		return
	}
	ctx := c.Request.Context()

	draft, err := s.drafts.Get(ctx, c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Draft not found.")
		return
	}

	if err := s.drafts.Publish(ctx, draft, s.api, s.session.Token()); err != nil {
		var formErr *forms.Errors
		if errors.As(err, &formErr) {
			list, _ := s.drafts.List(ctx)
			s.render(c, http.StatusBadRequest, "drafts.html", gin.H{
				"Title":  "Drafts",
				"Drafts": list,
				"Error":  "Draft is incomplete: " + formErr.Error(),
			})
			return
		}
		s.handleAPIError(c, err, "Failed to publish draft")
		return
	}

	if draft.IsEdit() {
		c.Redirect(http.StatusSeeOther, blogPath(draft.PostID))
		return
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}
