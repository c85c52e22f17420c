package catalog

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// NewOAuthHTTPClient builds an http.Client that transparently acquires and
// refreshes a client-credentials token for the catalog API.
func NewOAuthHTTPClient(ctx context.Context, clientID, clientSecret, tokenURL string, timeout time.Duration) *http.Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	client := cfg.Client(ctx)
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}
