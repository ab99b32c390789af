package hospitalapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the bearer token attached to outgoing requests.
// It returns "" when no token is stored. tokenstore.Store satisfies it.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// Client is an HTTP client for the hospital backend API. The base URL
// comes from deployment configuration; paths are fixed.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens, when set, supplies the bearer token attached to every
	// request. Requests proceed without an Authorization header when no
	// token is stored.
	Tokens TokenSource
}

// NewClient creates a backend API client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Tokens: tokens,
	}
}

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request, attaching the bearer token when
// one is available.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, &RequestError{Op: "create request", Err: err}
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Tokens != nil {
		token, err := c.Tokens.Get(ctx)
		if err != nil {
			return nil, &RequestError{Op: "read token", Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "send request", Err: err}
	}

	return resp, nil
}
