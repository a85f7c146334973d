package api

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (Employee, error) {
	var emp Employee
	err := c.do(ctx, http.MethodPost, "/register", nil, req, nil, &emp)
	return emp, err
}

// Login exchanges form-encoded credentials for a bearer token. The caller
// (session manager) is responsible for persisting the token.
func (c *Client) Login(ctx context.Context, creds Credentials) (TokenResponse, error) {
	form := url.Values{
		"username": {creds.Email},
		"password": {creds.Password},
	}
	var token TokenResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, nil, form, &token)
	return token, err
}
