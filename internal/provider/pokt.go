package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buger/jsonparser"
)

// poktRateLimitCode is the JSON-RPC error code the Pokt portal uses when a
// request exceeds the relay quota.
const poktRateLimitCode = -32068

// PoktProvider reaches the Pokt gateway. Table entries are gateway subdomains,
// e.g. "eth-mainnet". Pokt answers throttled requests with HTTP 200 and a
// JSON-RPC error, so the body has to be inspected.
type PoktProvider struct {
	base
}

// NewPoktProvider creates a provider for the Pokt portal
func NewPoktProvider(client *http.Client, projectID string, chains map[string]string) *PoktProvider {
	return &PoktProvider{base: newBase(KindPokt, client, projectID, chains)}
}

// Proxy forwards the request to https://{chain}.gateway.pokt.network/v1/lb/{projectID}.
func (p *PoktProvider) Proxy(ctx context.Context, method string, params QueryParams, _ http.Header, body []byte) (*http.Response, error) {
	return p.proxy(ctx, p, method, params, body)
}

func (p *PoktProvider) buildURI(route string) string {
	return fmt.Sprintf("https://%s.gateway.pokt.network/v1/lb/%s", route, p.projectID)
}

func (p *PoktProvider) checkRateLimit(resp *http.Response) (*http.Response, bool, error) {
	data, replayed, err := ReplayBody(resp)
	if err != nil {
		return nil, false, err
	}
	if isPoktRateLimited(data) {
		return nil, true, nil
	}
	return replayed, false, nil
}

// isPoktRateLimited reports whether body is a JSON-RPC error envelope carrying
// the Pokt rate limit code. Anything that does not parse as a complete
// response object with an id is not rate limited.
func isPoktRateLimited(body []byte) bool {
	if !json.Valid(body) {
		return false
	}
	if _, _, _, err := jsonparser.Get(body, "id"); err != nil {
		return false
	}
	code, err := jsonparser.GetInt(body, "error", "code")
	if err != nil {
		return false
	}
	return code == poktRateLimitCode
}
