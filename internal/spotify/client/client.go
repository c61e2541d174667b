package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	// Retry configuration for transient errors
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	// DefaultRate and DefaultBurst bound outgoing requests.
	DefaultRate  = 10
	DefaultBurst = 5
)

// ErrNotAuthenticated is returned when the client has no token source.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client is a Spotify Web API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	retryWait  time.Duration
	log        *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRateLimit sets the request rate (per second) and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New creates a client authenticated by tokens.
func New(tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		tokens:     tokens,
		limiter:    rate.NewLimiter(DefaultRate, DefaultBurst),
		retryWait:  baseRetryWait,
		log:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request to the Spotify API.
func (c *Client) Delete(ctx context.Context, path string, body any) error {
	return c.request(ctx, http.MethodDelete, path, body, nil)
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", ErrNotAuthenticated
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return tok.AccessToken, nil
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	token, err := c.token()
	if err != nil {
		return err
	}

	var jsonBody []byte
	if body != nil {
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	c.log.Debug("request", "method", method, "url", fullURL, "body", string(jsonBody))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1))
			c.log.Debug("retrying", "attempt", attempt, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if jsonBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		c.log.Debug("response", "status", resp.StatusCode, "url", fullURL)

		switch {
		case resp.StatusCode == http.StatusNoContent:
			return nil
		case resp.StatusCode == http.StatusAccepted:
			// the target device never acknowledged the command
			return newAPIError(resp.StatusCode, "Player command failed: device did not respond")
		case resp.StatusCode >= 500:
			lastErr = parseError(resp.StatusCode, respBody)
			c.log.Debug("server error, will retry", "err", lastErr)
			continue
		case resp.StatusCode >= 400:
			return parseError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

func newAPIError(status int, msg string) *APIError {
	e := &APIError{}
	e.ErrorInfo.Status = status
	e.ErrorInfo.Message = msg
	return e
}

func parseError(status int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorInfo.Message != "" {
		if apiErr.ErrorInfo.Status == 0 {
			apiErr.ErrorInfo.Status = status
		}
		return &apiErr
	}
	msg := http.StatusText(status)
	if len(body) > 0 {
		msg = string(body)
	}
	return newAPIError(status, msg)
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// Status returns the HTTP status of the error.
func (e *APIError) Status() int {
	return e.ErrorInfo.Status
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status()
	}
	return 0
}

// IsAlreadyPlayingError reports a 403 restriction, which the service
// returns when resuming playback that is already active.
func IsAlreadyPlayingError(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
