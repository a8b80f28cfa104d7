package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"wechat-cli/internal/accesstoken"
)

// DefaultBaseURL is the WeChat Official Account API host.
const DefaultBaseURL = "https://api.weixin.qq.com"

// defaultTimeout bounds every request to the platform, including token
// fetches, so a hung connection surfaces as a network error instead of
// blocking indefinitely.
const defaultTimeout = 30 * time.Second

// Error is an API-level error returned by the platform in a 200 response.
// Code and Message carry the platform's errcode/errmsg verbatim.
type Error struct {
	Code    int    `json:"errcode"`
	Message string `json:"errmsg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("wechat api error %d: %s", e.Code, e.Message)
}

// TokenProvider supplies a non-expired access token for outgoing calls.
type TokenProvider interface {
	Token(ctx context.Context) (accesstoken.Token, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, for tests or regional endpoints.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client wraps authenticated requests to the WeChat Official Account API.
// Every call obtains a valid token from the TokenProvider and attaches it as
// the access_token query parameter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
}

// NewClient creates a Client backed by the given token provider.
func NewClient(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFetcher returns the token-endpoint call used by the lifecycle manager.
// The endpoint deviates from OAuth2: a GET with query parameters, errors
// reported as 200 responses carrying errcode/errmsg.
func NewFetcher(baseURL string, httpClient *http.Client) accesstoken.FetchFunc {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return func(ctx context.Context, appID, appSecret string) (accesstoken.Token, error) {
		query := url.Values{}
		query.Set("grant_type", "client_credential")
		query.Set("appid", appID)
		query.Set("secret", appSecret)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/cgi-bin/token?"+query.Encode(), nil)
		if err != nil {
			return accesstoken.Token{}, err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return accesstoken.Token{}, fmt.Errorf("%w: %v", accesstoken.ErrNetwork, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return accesstoken.Token{}, fmt.Errorf("%w: %v", accesstoken.ErrNetwork, err)
		}

		var parsed struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
			Error
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return accesstoken.Token{}, fmt.Errorf("decoding token response: %w", err)
		}
		if parsed.Code != 0 {
			return accesstoken.Token{}, &Error{Code: parsed.Code, Message: parsed.Message}
		}
		if parsed.AccessToken == "" {
			return accesstoken.Token{}, fmt.Errorf("token response missing access_token")
		}

		return accesstoken.Token{
			AccessToken: parsed.AccessToken,
			ExpiresAt:   time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
		}, nil
	}
}

// authURL builds an endpoint URL with the current access token attached.
func (c *Client) authURL(ctx context.Context, path string, query url.Values) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	for key, values := range query {
		q[key] = values
	}
	q.Set("access_token", token.AccessToken)

	return c.baseURL + path + "?" + q.Encode(), nil
}

// do executes the request and decodes the response into out, surfacing
// platform errcode/errmsg as *Error.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", accesstoken.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", accesstoken.ErrNetwork, err)
	}

	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	if apiErr.Code != 0 {
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u, err := c.authURL(ctx, path, query)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, query url.Values, payload, out any) error {
	u, err := c.authURL(ctx, path, query)
	if err != nil {
		return err
	}

	// WeChat rejects escaped CJK, so marshal without HTML escaping.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}
