package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Me exchanges a bearer token for the current user.
// Any non-2xx answer is reported as ErrSessionInvalid.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/me/", token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send("resolve session", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w (status %d)", ErrSessionInvalid, resp.StatusCode)
	}

	var user User
	if err := decodeBody(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates the user and returns a bearer token with the user record
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/login/", "", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.send("login", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrAuthenticationFailed
	}

	var loginResp LoginResponse
	if err := decodeBody(resp, &loginResp); err != nil {
		return nil, err
	}
	if loginResp.AccessToken == "" {
		return nil, fmt.Errorf("failed to decode response: missing access_token")
	}

	return &loginResp, nil
}

// Signup creates an account. It never authenticates; callers log in afterwards.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (*SignupResponse, error) {
	body, contentType, err := buildMultipart([]multipartField{
		{name: "username", value: in.Username},
		{name: "name", value: in.Name},
		{name: "email", value: in.Email},
		{name: "password", value: in.Password},
	}, "profile_picture", in.ProfilePicture)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/signup/", "", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.send("signup", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		msg := readErrorMessage(resp)
		if msg == "" {
			msg = defaultSignupMessage
		}
		return nil, &SignupRejectedError{StatusCode: resp.StatusCode, Message: msg}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &SignupResponse{Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return out, nil
}
