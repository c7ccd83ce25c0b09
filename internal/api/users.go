package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetUser returns another user's public profile
func (c *Client) GetUser(ctx context.Context, userID ID) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/blogs-list/users/%s/", url.PathEscape(userID.String())), "", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.call("load profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPosts returns the posts written by a user. token may be empty.
func (c *Client) UserPosts(ctx context.Context, token string, userID ID) ([]BlogSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/blogs-list/%s/user-posts/", url.PathEscape(userID.String())), token, nil)
	if err != nil {
		return nil, err
	}

	var blogs []BlogSummary
	if err := c.call("load user posts", req, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// TopUsers returns the dashboard's author leaderboard
func (c *Client) TopUsers(ctx context.Context) ([]UserStats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/blogs-list/get-all-user/", "", nil)
	if err != nil {
		return nil, err
	}

	var users []UserStats
	if err := c.call("list top users", req, &users); err != nil {
		return nil, err
	}
	return users, nil
}
