package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type commentRequest struct {
	Text string `json:"text"`
}

// AddComment posts a comment on a blog post
func (c *Client) AddComment(ctx context.Context, token string, postID ID, text string) error {
	path := fmt.Sprintf("/blogs/%s/comment/", url.PathEscape(postID.String()))
	req, err := c.newJSONRequest(ctx, http.MethodPost, path, token, commentRequest{Text: text})
	if err != nil {
		return err
	}
	return c.call("submit comment", req, nil)
}

// UpdateComment replaces the text of the caller's own comment
func (c *Client) UpdateComment(ctx context.Context, token string, commentID ID, text string) error {
	path := fmt.Sprintf("/comments/%s/update/", url.PathEscape(commentID.String()))
	req, err := c.newJSONRequest(ctx, http.MethodPut, path, token, commentRequest{Text: text})
	if err != nil {
		return err
	}
	return c.call("update comment", req, nil)
}

// DeleteComment removes the caller's own comment
func (c *Client) DeleteComment(ctx context.Context, token string, commentID ID) error {
	path := fmt.Sprintf("/comments/%s/delete/", url.PathEscape(commentID.String()))
	req, err := c.newRequest(ctx, http.MethodDelete, path, token, nil)
	if err != nil {
		return err
	}
	return c.call("delete comment", req, nil)
}
