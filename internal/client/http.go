// Package client talks to the gobox backend over plain HTTP.
package client

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
)

const defaultTimeout = 10 * time.Second

// HTTPClient makes REST calls to the gobox backend.
type HTTPClient struct {
	baseURL string
	client  *resty.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8010").
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &HTTPClient{
		baseURL: baseURL,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", "gobox"),
	}
}

// BaseURL returns the target of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Health is the result of GET /health.
type Health struct {
	StatusCode int
	Message    string
	Latency    time.Duration
}

// Health fetches /health. A transport failure or a non-2xx status is a
// KindHealth error.
func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return nil, apperrors.New(apperrors.KindHealth, "GET /health", err)
	}
	h := &Health{
		StatusCode: resp.StatusCode(),
		Message:    strings.TrimSpace(resp.String()),
		Latency:    resp.Time(),
	}
	if !resp.IsSuccess() {
		return h, apperrors.Newf(apperrors.KindHealth, "GET /health", "%d %s", resp.StatusCode(), h.Message)
	}
	return h, nil
}

// HTTPBase derives the HTTP origin of a websocket endpoint: ws becomes
// http, wss becomes https, and the path and query are dropped.
func HTTPBase(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", apperrors.New(apperrors.KindConfig, "http base", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", apperrors.Newf(apperrors.KindConfig, "http base", "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", apperrors.Newf(apperrors.KindConfig, "http base", "missing host in %q", endpoint)
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}
