package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ClientOption configures the HTTP client shared by the provider repositories.
type ClientOption func(*client)

// WithHTTPClient sets the transport used underneath the oauth2 client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *client) {
		if hc != nil {
			c.base = hc
		}
	}
}

// WithRateLimit throttles requests to rps per second. Non-positive values disable throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// client is a JSON-over-HTTP helper bound to one provider's base URL.
type client struct {
	provider models.Provider
	baseURL  string
	base     *http.Client
	limiter  *rate.Limiter
}

func newClient(provider models.Provider, baseURL string, opts ...ClientOption) *client {
	c := &client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		base:     http.DefaultClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the error envelope shared by the Spotify and YouTube APIs.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request and decodes a 2xx JSON response into out (when non-nil).
//
// Every failure is returned as a [*Failure] tagged with op.
func (c *client) do(ctx context.Context, token *oauth2.Token, op, method, path string, query url.Values, body, out any) error {
	if token == nil || !token.Valid() {
		return &Failure{Provider: c.provider, Op: op, StatusCode: http.StatusUnauthorized, Err: shared.ErrTokenExpired}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewFailure(c.provider, op, 0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return NewFailure(c.provider, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewFailure(c.provider, op, 0, err)
	}

	hc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.base), oauth2.StaticTokenSource(token))
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewFailure(c.provider, op, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewFailure(c.provider, op, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.failure(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewFailure(c.provider, op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *client) failure(op string, status int, data []byte) *Failure {
	f := &Failure{Provider: c.provider, Op: op, StatusCode: status}

	var envelope apiError
	if err := json.Unmarshal(data, &envelope); err == nil {
		f.Message = envelope.Error.Message
	}

	switch status {
	case http.StatusUnauthorized:
		f.Err = shared.ErrTokenExpired
	case http.StatusNotFound:
		f.Err = shared.ErrPlaylistNotFound
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		f.Err = shared.ErrServiceUnavailable
	default:
		f.Err = shared.ErrAPIRequest
	}
	return f
}
