package api

import "context"

// TokenPair is the access/refresh pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account. The server stores only the salt and the
// argon2id verifier; the password itself never leaves the client.
func (c *Client) Register(ctx context.Context, username string, salt, verifier []byte) error {
	body := map[string]any{"username": username, "salt": salt, "verifier": verifier}
	return c.postJSON(ctx, "/api/auth/register", body, nil)
}

// Salt fetches the user's key-derivation salt.
func (c *Client) Salt(ctx context.Context, username string) ([]byte, error) {
	var resp struct {
		Salt []byte `json:"salt"`
	}
	if err := c.postJSON(ctx, "/api/auth/salt", map[string]any{"username": username}, &resp); err != nil {
		return nil, err
	}
	return resp.Salt, nil
}

// Login exchanges the verifier for a token pair and remembers the access
// token for subsequent calls.
func (c *Client) Login(ctx context.Context, username string, verifier []byte) (*TokenPair, error) {
	body := map[string]any{"username": username, "verifier": verifier}
	var pair TokenPair
	if err := c.postJSON(ctx, "/api/auth/login", body, &pair); err != nil {
		return nil, err
	}
	c.token = pair.AccessToken
	return &pair, nil
}

// Refresh rotates the refresh token and updates the stored access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]any{"refreshToken": refreshToken}
	var pair TokenPair
	if err := c.postJSON(ctx, "/api/auth/refresh", body, &pair); err != nil {
		return nil, err
	}
	c.token = pair.AccessToken
	return &pair, nil
}
