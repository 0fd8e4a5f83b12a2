package oauthsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP client for the token service. It speaks the four
// public endpoints and decodes their wire types.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// MagicLinkGrant exchanges a magic-link code for an access token.
func (c *Client) MagicLinkGrant(ctx context.Context, clientID, token string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type": {"custom:magic_link"},
		"client_id":  {clientID},
		"token":      {token},
	}
	return c.postTokenForm(ctx, form)
}

// RefreshGrant exchanges a refresh token for a rotated pair.
func (c *Client) RefreshGrant(ctx context.Context, clientID, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"refresh_token": {refreshToken},
	}
	return c.postTokenForm(ctx, form)
}

// AuthorizationCodeGrant redeems an authorization code.
func (c *Client) AuthorizationCodeGrant(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {clientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	if clientSecret != "" {
		form.Set("client_secret", clientSecret)
	}
	if codeVerifier != "" {
		form.Set("code_verifier", codeVerifier)
	}
	return c.postTokenForm(ctx, form)
}

// Introspect queries whether a token is active.
func (c *Client) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	form := url.Values{"token": {token}}

	resp, err := c.postForm(ctx, "/v1/oauth2/introspect", form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeOAuthError(resp)
	}

	var out IntrospectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}
	return &out, nil
}

// Revoke revokes an access or refresh token. Always succeeds for unknown
// tokens per RFC 7009.
func (c *Client) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}

	resp, err := c.postForm(ctx, "/v1/oauth2/revoke", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeOAuthError(resp)
	}
	return nil
}

// SendMagicLink requests a magic-link email. The response body is constant
// regardless of whether the email exists.
func (c *Client) SendMagicLink(ctx context.Context, email, clientID string) (*MessageResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "clientId": clientID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/auth/magic-link/send", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeOAuthError(resp)
	}

	var out MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	return &out, nil
}

func (c *Client) postTokenForm(ctx context.Context, form url.Values) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/v1/oauth2/token", form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeOAuthError(resp)
	}

	var out TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &out, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(req)
}

func decodeOAuthError(resp *http.Response) error {
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        body.Error,
		Description: body.ErrorDescription,
	}
}
