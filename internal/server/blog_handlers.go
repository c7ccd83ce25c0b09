package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/feed"
	"github.com/blogdeck/blogdeck/internal/forms"
	"github.com/blogdeck/blogdeck/internal/session"
)

func blogPath(id string) string {
	return "/blogs/" + url.PathEscape(id)
}

func (s *Server) homePage(c *gin.Context) {
	var opts feed.Options
	if err := c.ShouldBindQuery(&opts); err != nil {
		opts = feed.Options{}
	}

	data := gin.H{"Title": "Blogs"}
	posts, err := s.api.ListBlogs(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch blogs")
		data["Error"] = "Failed to load blogs. Please try again later."
	}
	data["Feed"] = feed.Paginate(posts, opts)

	s.render(c, http.StatusOK, "home.html", data)
}

func (s *Server) blogPage(c *gin.Context) {
	s.showBlog(c, http.StatusOK, c.Param("id"), nil)
}

// showBlog renders the detail page, with extra values such as a comment error
func (s *Server) showBlog(c *gin.Context, status int, id string, extra gin.H) {
	ctx := c.Request.Context()
	token := s.session.Token()

	blog, err := s.api.GetBlog(ctx, token, api.ID(id))
	if err != nil && token != "" && session.IsAuthError(err) {
		// The page is public; drop the dead session and show it anonymously
		s.logger.Warn().Err(err).Msg("Backend rejected the session, signing out")
		if logoutErr := s.session.Logout(); logoutErr != nil {
			s.logger.Error().Err(logoutErr).Msg("Failed to clear session")
		}
		blog, err = s.api.GetBlog(ctx, "", api.ID(id))
	}
	if err != nil {
		s.handleAPIError(c, err, "Failed to load blog post. Please try again later.")
		return
	}

	state := s.session.Snapshot()
	data := gin.H{
		"Title": blog.Title,
		"Blog":  blog,
		"Liked": state.User != nil && blog.LikedBy(state.User.Email),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.render(c, status, "blog.html", data)
}

func (s *Server) toggleLike(c *gin.Context) {
	id := c.Param("id")
	if err := s.api.ToggleLike(c.Request.Context(), s.session.Token(), api.ID(id)); err != nil {
		s.handleAPIError(c, err, "Failed to update like status. Please try again.")
		return
	}
	c.Redirect(http.StatusSeeOther, blogPath(id))
}

func (s *Server) addComment(c *gin.Context) {
	id := c.Param("id")

	var form forms.Comment
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug().Err(err).Msg("Invalid comment form")
		s.showBlog(c, http.StatusBadRequest, id, gin.H{"CommentError": "Invalid form submission"})
		return
	}
	if err := forms.Validate(form); err != nil {
		s.showBlog(c, http.StatusBadRequest, id, gin.H{"CommentError": err.Error()})
		return
	}

	if err := s.api.AddComment(c.Request.Context(), s.session.Token(), api.ID(id), form.Text); err != nil {
		s.handleAPIError(c, err, "Failed to post comment. Please try again.")
		return
	}
	c.Redirect(http.StatusSeeOther, blogPath(id)+"#comments")
}

func (s *Server) editComment(c *gin.Context) {
	postID := c.PostForm("post_id")

	var form forms.Comment
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Debug().Err(err).Msg("Invalid comment form")
		s.showBlog(c, http.StatusBadRequest, postID, gin.H{"CommentError": "Invalid form submission"})
		return
	}
	if err := forms.Validate(form); err != nil {
		s.showBlog(c, http.StatusBadRequest, postID, gin.H{"CommentError": err.Error()})
		return
	}

	if err := s.api.UpdateComment(c.Request.Context(), s.session.Token(), api.ID(c.Param("id")), form.Text); err != nil {
		s.handleAPIError(c, err, "Failed to update comment. Please try again.")
		return
	}
	c.Redirect(http.StatusSeeOther, commentReturn(postID))
}

func (s *Server) deleteComment(c *gin.Context) {
	postID := c.PostForm("post_id")
	if err := s.api.DeleteComment(c.Request.Context(), s.session.Token(), api.ID(c.Param("id"))); err != nil {
		s.handleAPIError(c, err, "Failed to delete comment. Please try again.")
		return
	}
	c.Redirect(http.StatusSeeOther, commentReturn(postID))
}

func commentReturn(postID string) string {
	if postID == "" {
		return "/"
	}
	return blogPath(postID) + "#comments"
}

// articleData is what write.html needs
// invalidArticle re-renders the article form when the body could not be read
func (s *Server) invalidArticle(c *gin.Context, err error, data gin.H) {
	s.logger.Debug().Err(err).Msg("Invalid article form")
	data["Error"] = "Invalid form submission"
	s.render(c, http.StatusBadRequest, "write.html", data)
}

func (s *Server) articleData(c *gin.Context, title, action string, form forms.Article) gin.H {
	tags, err := s.api.ListTags(c.Request.Context())
	data := gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Tags":   tags,
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch tags")
		data["TagsError"] = "Tags are unavailable right now."
	}
	return data
}

func (s *Server) writePage(c *gin.Context) {
	data := s.articleData(c, "Write", "/write", forms.Article{})

	if draftID := c.Query("draft"); draftID != "" && s.drafts != nil {
		draft, err := s.drafts.Get(c.Request.Context(), draftID)
		if err != nil {
			s.renderError(c, http.StatusNotFound, "Draft not found.")
			return
		}
		if draft.IsEdit() {
			c.Redirect(http.StatusSeeOther, "/edit/"+url.PathEscape(draft.PostID)+"?draft="+url.QueryEscape(draft.ID))
			return
		}
		data["Form"] = draft.Form()
		data["Draft"] = draft
	}

	s.render(c, http.StatusOK, "write.html", data)
}

func (s *Server) submitWrite(c *gin.Context) {
	var form forms.Article
	if err := c.ShouldBind(&form); err != nil {
		s.invalidArticle(c, err, s.articleData(c, "Write", "/write", form))
		return
	}

	if c.PostForm("action") == "draft" {
		s.saveDraft(c, form, "")
		return
	}

	data := s.articleData(c, "Write", "/write", form)
	if err := forms.Validate(form); err != nil {
		data["Errors"] = err
		s.render(c, http.StatusBadRequest, "write.html", data)
		return
	}

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		data["Error"] = "Could not read the image"
		s.render(c, http.StatusBadRequest, "write.html", data)
		return
	}
	defer closeImage()
	form.Image = image

	if err := s.api.CreateBlog(c.Request.Context(), s.session.Token(), form.Request()); err != nil {
		if s.articleRejected(c, err, data, "Failed to create blog post") {
			return
		}
		s.handleAPIError(c, err, "Failed to create blog post")
		return
	}

	s.dropPublishedDraft(c)

	data = s.articleData(c, "Write", "/write", forms.Article{})
	data["Success"] = "Article published successfully!"
	s.render(c, http.StatusCreated, "write.html", data)
}

// articleRejected shows validation errors reported by the backend on the form
func (s *Server) articleRejected(c *gin.Context, err error, data gin.H, fallback string) bool {
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		return false
	}
	message := statusErr.Message
	if message == "" {
		message = fallback
	}
	data["Error"] = message
	s.render(c, http.StatusBadRequest, "write.html", data)
	return true
}

func (s *Server) dropPublishedDraft(c *gin.Context) {
	draftID := c.PostForm("draft_id")
	if draftID == "" || s.drafts == nil {
		return
	}
	if err := s.drafts.Delete(c.Request.Context(), draftID); err != nil {
		s.logger.Warn().Err(err).Str("draft_id", draftID).Msg("Failed to remove published draft")
	}
}

// loadOwnBlog fetches a post and checks the signed-in user wrote it
func (s *Server) loadOwnBlog(c *gin.Context, id string) (*api.BlogDetail, bool) {
	blog, err := s.api.GetBlog(c.Request.Context(), s.session.Token(), api.ID(id))
	if err != nil {
		s.handleAPIError(c, err, "Failed to load article data")
		return nil, false
	}

	state := s.session.Snapshot()
	if state.User == nil || !strings.EqualFold(blog.User, state.User.Email) {
		s.renderError(c, http.StatusForbidden, "You can only edit your own articles.")
		return nil, false
	}
	return blog, true
}

func (s *Server) editPage(c *gin.Context) {
	id := c.Param("id")
	blog, ok := s.loadOwnBlog(c, id)
	if !ok {
		return
	}

	form := forms.Article{Title: blog.Title, Content: blog.Content, TagIDs: blog.TagIDs()}
	data := s.articleData(c, "Edit", "/edit/"+url.PathEscape(id), form)
	data["Blog"] = blog

	if draftID := c.Query("draft"); draftID != "" && s.drafts != nil {
		if draft, err := s.drafts.Get(c.Request.Context(), draftID); err == nil && draft.PostID == id {
			data["Form"] = draft.Form()
			data["Draft"] = draft
		}
	}

	s.render(c, http.StatusOK, "write.html", data)
}

func (s *Server) submitEdit(c *gin.Context) {
	id := c.Param("id")
	blog, ok := s.loadOwnBlog(c, id)
	if !ok {
		return
	}

	var form forms.Article
	if err := c.ShouldBind(&form); err != nil {
		data := s.articleData(c, "Edit", "/edit/"+url.PathEscape(id), form)
		data["Blog"] = blog
		s.invalidArticle(c, err, data)
		return
	}

	if c.PostForm("action") == "draft" {
		s.saveDraft(c, form, id)
		return
	}

	data := s.articleData(c, "Edit", "/edit/"+url.PathEscape(id), form)
	data["Blog"] = blog
	if err := forms.Validate(form); err != nil {
		data["Errors"] = err
		s.render(c, http.StatusBadRequest, "write.html", data)
		return
	}

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		data["Error"] = "Could not read the image"
		s.render(c, http.StatusBadRequest, "write.html", data)
		return
	}
	defer closeImage()
	form.Image = image

	if err := s.api.UpdateBlog(c.Request.Context(), s.session.Token(), api.ID(id), form.Request()); err != nil {
		if s.articleRejected(c, err, data, "Failed to update blog post") {
			return
		}
		s.handleAPIError(c, err, "Failed to update blog post")
		return
	}

	s.dropPublishedDraft(c)

	data["Success"] = "Article updated successfully!"
	data["RedirectTo"] = blogPath(id)
	s.render(c, http.StatusOK, "write.html", data)
}

func (s *Server) mostViewedPage(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Title": "Most Viewed"}

	if liked, err := s.api.TopLikedPosts(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch top liked posts")
		data["LikedError"] = "Failed to load top liked posts."
	} else {
		data["Liked"] = liked
	}

	if commented, err := s.api.MostCommentedPosts(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch most commented posts")
		data["CommentedError"] = "Failed to load most commented posts."
	} else {
		data["Commented"] = commented
	}

	if users, err := s.api.TopUsers(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch top users")
		data["UsersError"] = "Failed to load top authors."
	} else {
		data["Users"] = users
	}

	s.render(c, http.StatusOK, "top.html", data)
}

func (s *Server) userPage(c *gin.Context) {
	ctx := c.Request.Context()
	id := api.ID(c.Param("id"))

	user, err := s.api.GetUser(ctx, id)
	if err != nil {
		s.handleAPIError(c, err, "Failed to load profile data. Please try again later.")
		return
	}

	state := s.session.Snapshot()
	data := gin.H{
		"Title":   user.Username,
		"Profile": user,
		"Own":     state.User != nil && state.User.ID == user.ID,
	}
	s.addUserPosts(c, data, id)
	s.render(c, http.StatusOK, "profile.html", data)
}

func (s *Server) profilePage(c *gin.Context) {
	user := s.session.Snapshot().User
	if user == nil {
		// Signed out between the guard and here
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	data := gin.H{
		"Title":   "Your profile",
		"Profile": user,
		"Own":     true,
	}
	s.addUserPosts(c, data, user.ID)
	s.render(c, http.StatusOK, "profile.html", data)
}

func (s *Server) addUserPosts(c *gin.Context, data gin.H, id api.ID) {
	posts, err := s.api.UserPosts(c.Request.Context(), s.session.Token(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("Failed to fetch user posts")
		data["PostsError"] = "Failed to load blog posts. Please try again later."
		return
	}
	data["Posts"] = posts
}
