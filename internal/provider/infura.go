package provider

import (
	"context"
	"fmt"
	"net/http"
)

// InfuraProvider reaches Infura. Table entries are network subdomains,
// e.g. "mainnet" or "polygon-mainnet".
type InfuraProvider struct {
	base
}

// NewInfuraProvider creates a provider for Infura with the given chain table
func NewInfuraProvider(client *http.Client, projectID string, chains map[string]string) *InfuraProvider {
	return &InfuraProvider{base: newBase(KindInfura, client, projectID, chains)}
}

// Proxy forwards the request to https://{network}.infura.io/v3/{projectID}.
func (p *InfuraProvider) Proxy(ctx context.Context, method string, params QueryParams, _ http.Header, body []byte) (*http.Response, error) {
	return p.proxy(ctx, p, method, params, body)
}

func (p *InfuraProvider) buildURI(route string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", route, p.projectID)
}

func (p *InfuraProvider) checkRateLimit(resp *http.Response) (*http.Response, bool, error) {
	return statusRateLimited(resp)
}
