package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/franz/score-librarian/internal/util"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair and stores it in the session
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required: %w", util.ErrValidation)
	}

	var tok tokenResponse
	err := c.do(ctx, &request{
		method: http.MethodPost,
		path:   "/auth/login/",
		body:   jsonBody(loginRequest{Username: username, Password: password}),
		anon:   true,
	}, &tok)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if tok.Access == "" {
		return fmt.Errorf("login failed: response carried no access token")
	}

	if err := c.session.Set(Tokens{Access: tok.Access, Refresh: tok.Refresh, Username: username}); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	c.notify(AuthLogin, nil)
	return nil
}

// Refresh obtains a new access token using the stored refresh token
func (c *Client) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	_, err := c.refresh(ctx)
	return err
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	tokens, err := c.session.Tokens()
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if tokens.Refresh == "" {
		return "", util.ErrNotAuthenticated
	}

	var tok tokenResponse
	err = c.do(ctx, &request{
		method: http.MethodPost,
		path:   "/auth/token/refresh/",
		body:   jsonBody(map[string]string{"refresh": tokens.Refresh}),
		anon:   true,
	}, &tok)
	if err != nil {
		c.notify(AuthRefresh, err)
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if tok.Access == "" {
		err := fmt.Errorf("token refresh failed: response carried no access token")
		c.notify(AuthRefresh, err)
		return "", err
	}

	// rotated refresh tokens replace the stored one
	if tok.Refresh != "" {
		tokens.Access, tokens.Refresh = tok.Access, tok.Refresh
		err = c.session.Set(tokens)
	} else {
		err = c.session.setAccess(tok.Access)
	}
	if err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	c.notify(AuthRefresh, nil)
	return tok.Access, nil
}

// Logout forgets the stored tokens. The backend keeps no session state.
func (c *Client) Logout() error {
	c.notify(AuthLogout, nil)
	return c.session.Clear()
}
