package drafts

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/forms"
)

// Publisher sends articles to the backend
type Publisher interface {
	CreateBlog(ctx context.Context, token string, in api.ArticleRequest) error
	UpdateBlog(ctx context.Context, token string, postID api.ID, in api.ArticleRequest) error
}

// Form returns the draft as an article form, without its image
func (d *Draft) Form() forms.Article {
	return forms.Article{Title: d.Title, Content: d.Content, TagIDs: d.TagIDs}
}

// Publish creates the post (or updates the one the draft edits) and removes
// the draft once the backend accepted it.
func (s *Store) Publish(ctx context.Context, d *Draft, p Publisher, token string) error {
	form := d.Form()
	if err := forms.Validate(form); err != nil {
		return err
	}

	if d.ImagePath != "" {
		f, err := os.Open(d.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to open draft image: %w", err)
		}
		defer f.Close()
		form.Image = &api.Upload{FileName: uploadName(d.ImagePath), Data: f}
	}

	var err error
	if d.IsEdit() {
		err = p.UpdateBlog(ctx, token, api.ID(d.PostID), form.Request())
	} else {
		err = p.CreateBlog(ctx, token, form.Request())
	}
	if err != nil {
		return err
	}

	s.logger.Info().Str("draft_id", d.ID).Str("post_id", d.PostID).Msg("Draft published")

	if err := s.Delete(ctx, d.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("published, but failed to remove draft: %w", err)
	}
	return nil
}
