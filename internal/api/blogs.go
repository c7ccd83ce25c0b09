package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListBlogs returns every published post
func (c *Client) ListBlogs(ctx context.Context) ([]BlogSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/blogs-list/", "", nil)
	if err != nil {
		return nil, err
	}

	var blogs []BlogSummary
	if err := c.call("list blogs", req, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// GetBlog returns one post with likes, comments and tags. token may be empty.
func (c *Client) GetBlog(ctx context.Context, token string, postID ID) (*BlogDetail, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/blogs-list/%s/", url.PathEscape(postID.String())), token, nil)
	if err != nil {
		return nil, err
	}

	var blog BlogDetail
	if err := c.call("get blog", req, &blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

// CreateBlog publishes a new post
func (c *Client) CreateBlog(ctx context.Context, token string, in ArticleRequest) error {
	return c.sendArticle(ctx, http.MethodPost, "/blogs-create/", token, "create blog post", in)
}

// UpdateBlog replaces an existing post
func (c *Client) UpdateBlog(ctx context.Context, token string, postID ID, in ArticleRequest) error {
	path := fmt.Sprintf("/blogs-update/%s/", url.PathEscape(postID.String()))
	return c.sendArticle(ctx, http.MethodPut, path, token, "update blog post", in)
}

func (c *Client) sendArticle(ctx context.Context, method, path, token, op string, in ArticleRequest) error {
	fields := []multipartField{
		{name: "title", value: in.Title},
		{name: "content", value: in.Content},
	}
	for _, tagID := range in.TagIDs {
		fields = append(fields, multipartField{name: "tags", value: tagID})
	}

	body, contentType, err := buildMultipart(fields, "image_url", in.Image)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	return c.call(op, req, nil)
}

// ToggleLike likes the post, or removes the like if already present
func (c *Client) ToggleLike(ctx context.Context, token string, postID ID) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/like-post/%s", url.PathEscape(postID.String())), token, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.call("toggle like", req, nil)
}

// ListTags returns every tag an article can carry
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/list-tags/", "", nil)
	if err != nil {
		return nil, err
	}

	var tags []Tag
	if err := c.call("list tags", req, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// TopLikedPosts returns the dashboard's most liked posts
func (c *Client) TopLikedPosts(ctx context.Context) ([]BlogSummary, error) {
	return c.listSummaries(ctx, "/blogs-list/top-liked-posts/", "list top liked posts")
}

// MostCommentedPosts returns the dashboard's most commented posts
func (c *Client) MostCommentedPosts(ctx context.Context) ([]BlogSummary, error) {
	return c.listSummaries(ctx, "/blogs-list/most-commented-posts/", "list most commented posts")
}

func (c *Client) listSummaries(ctx context.Context, path, op string) ([]BlogSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}

	var blogs []BlogSummary
	if err := c.call(op, req, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}
