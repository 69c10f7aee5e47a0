package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultTimeout bounds one upstream call, including reading the body.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient builds the pooled client shared by every request a provider
// serves. Providers are single attempt, so retries are disabled and every
// upstream status is handed back to the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return newHTTPClient(timeout, nil)
}

func newHTTPClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.CheckRetry = noRetry
	c.Logger = nil
	c.HTTPClient.Timeout = timeout
	if transport != nil {
		c.HTTPClient.Transport = transport
	}
	// retryablehttp closes idle connections after every failed call, which
	// would drop the whole keep-alive pool on a single upstream timeout.
	c.HTTPClient.Transport = pooledTransport{c.HTTPClient.Transport}

	return c.StandardClient()
}

// pooledTransport exposes only RoundTrip, so CloseIdleConnections on the
// wrapping client is a no-op.
type pooledTransport struct {
	http.RoundTripper
}

func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	return false, ctx.Err()
}
