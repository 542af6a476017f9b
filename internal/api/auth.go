package api

import (
	"context"
	"net/http"
)

// VerifiedUser is what the backend reports for a valid token.
type VerifiedUser struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, "", &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &Error{Kind: KindAuth, Message: "login response did not include a token"}
	}
	return out.Token, nil
}

// Verify checks token against the backend. Callers bound it with ctx.
func (c *Client) Verify(ctx context.Context, token string) (*VerifiedUser, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	var out VerifiedUser
	if err := c.Do(ctx, http.MethodGet, "/api/auth/verify", nil, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
