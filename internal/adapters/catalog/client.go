// Package catalog is the HTTP adapter for the external music catalog API,
// the slowest tier of the data cache.
package catalog

import (
	"net/http"
	"strings"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/ports"
	"github.com/ewilliams-labs/undertow/internal/logger"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// Client is an HTTP client for the catalog adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	log         *logger.Logger
}

// compile-time interface assertion
var _ ports.CatalogProvider = (*Client)(nil)

// Option tunes a Client.
type Option func(*Client)

// WithRetry overrides the retry count and base backoff.
func WithRetry(maxRetries int, baseBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if baseBackoff > 0 {
			c.baseBackoff = baseBackoff
		}
	}
}

// NewClient constructs a catalog client. The http.Client should already
// carry authentication (see NewOAuthHTTPClient).
func NewClient(httpClient *http.Client, baseURL string, log *logger.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
		log:         log.With("component", "catalog-adapter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
