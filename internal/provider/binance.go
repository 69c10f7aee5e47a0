package provider

import (
	"context"
	"net/http"
)

// BinanceProvider reaches the public BNB Chain endpoints. Table entries are
// complete URLs and are used as they are.
type BinanceProvider struct {
	base
}

func NewBinanceProvider(client *http.Client, projectID string, chains map[string]string) *BinanceProvider {
	return &BinanceProvider{base: newBase(KindBinance, client, projectID, chains)}
}

func (p *BinanceProvider) Proxy(ctx context.Context, method string, params QueryParams, _ http.Header, body []byte) (*http.Response, error) {
	return p.proxy(ctx, p, method, params, body)
}

func (p *BinanceProvider) buildURI(route string) string {
	return route
}

func (p *BinanceProvider) checkRateLimit(resp *http.Response) (*http.Response, bool, error) {
	return statusRateLimited(resp)
}
