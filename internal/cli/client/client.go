package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/cli/auth"
)

// RequestOptions describes one API call. Body is kept as bytes so a request
// can be replayed after a token refresh.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte

	// Anonymous requests carry no bearer token and are never refreshed.
	Anonymous bool
}

// Client represents an HTTP client for the shopfront backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *auth.TokenService
	logger     zerolog.Logger
}

// New creates a new API client sharing the token service's backend and transport
func New(tokens *auth.TokenService, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    tokens.BaseURL(),
		httpClient: tokens.HTTPClient(),
		tokens:     tokens,
		logger:     logger,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) Tokens() *auth.TokenService {
	return c.tokens
}

// Do sends a request to endpoint, attaching the stored access token. A 401
// answer with a refresh token available triggers one refresh and one retry;
// every other status is returned to the caller untouched.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (*http.Response, error) {
	var sent string
	if !opts.Anonymous {
		sent, _ = c.tokens.AccessToken()
	}

	resp, err := c.send(ctx, endpoint, opts, sent)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || opts.Anonymous {
		return resp, nil
	}
	if _, ok := c.tokens.RefreshToken(); !ok {
		return resp, nil
	}

	// Drain so the connection can be reused for the retry.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// Reuses the stored token if another request already rotated the session
	next, err := c.tokens.RefreshAfter(ctx, sent)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("endpoint", endpoint).Msg("Retrying request with refreshed token")
	return c.send(ctx, endpoint, opts, next)
}

func (c *Client) send(ctx context.Context, endpoint string, opts RequestOptions, accessToken string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &auth.NetworkError{Op: method + " " + endpoint, Err: err}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	return c.Do(ctx, endpoint, RequestOptions{Method: http.MethodGet})
}

func (c *Client) Post(ctx context.Context, endpoint string, data interface{}) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, data, false)
}

func (c *Client) Put(ctx context.Context, endpoint string, data interface{}) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPut, endpoint, data, false)
}

func (c *Client) Delete(ctx context.Context, endpoint string) (*http.Response, error) {
	return c.Do(ctx, endpoint, RequestOptions{Method: http.MethodDelete})
}

// PostAnonymous posts JSON without credentials, for endpoints such as login
func (c *Client) PostAnonymous(ctx context.Context, endpoint string, data interface{}) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, data, true)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint string, data interface{}, anonymous bool) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return c.Do(ctx, endpoint, RequestOptions{
		Method:    method,
		Header:    header,
		Body:      jsonData,
		Anonymous: anonymous,
	})
}
