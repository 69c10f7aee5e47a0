package provider

import (
	"context"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/rpc-proxy/internal/otel"
)

// Selector picks one provider among those that support a chain. The
// candidates are never empty and are in registration order. Returning nil
// declines the chain.
type Selector interface {
	Select(chain ChainID, candidates []RPCProvider) RPCProvider
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(chain ChainID, candidates []RPCProvider) RPCProvider

func (f SelectorFunc) Select(chain ChainID, candidates []RPCProvider) RPCProvider {
	return f(chain, candidates)
}

// FirstMatch always picks the first registered provider that supports the chain.
var FirstMatch Selector = SelectorFunc(func(_ ChainID, candidates []RPCProvider) RPCProvider {
	return candidates[0]
})

// Registry dispatches requests to the configured providers. The provider set
// is fixed at construction, so a Registry is safe for concurrent use.
type Registry struct {
	providers []RPCProvider
	selector  Selector
}

// NewRegistry creates a registry over providers. A nil selector means FirstMatch.
func NewRegistry(selector Selector, providers ...RPCProvider) *Registry {
	if selector == nil {
		selector = FirstMatch
	}
	list := make([]RPCProvider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			list = append(list, p)
		}
	}
	return &Registry{providers: list, selector: selector}
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []RPCProvider {
	out := make([]RPCProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// SupportedChains returns the sorted union of every provider's chains.
func (r *Registry) SupportedChains() []ChainID {
	seen := make(map[ChainID]struct{})
	for _, p := range r.providers {
		for _, chain := range p.SupportedChains() {
			seen[chain] = struct{}{}
		}
	}
	chains := make([]ChainID, 0, len(seen))
	for chain := range seen {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// Select returns the provider that should serve chain.
func (r *Registry) Select(chain ChainID) (RPCProvider, error) {
	chain = chain.Normalize()

	var candidates []RPCProvider
	for _, p := range r.providers {
		if p.SupportsChain(chain) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, newError(ErrChainNotFound, "", chain, nil)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	p := r.selector.Select(chain, candidates)
	if p == nil {
		return nil, newError(ErrChainNotFound, "", chain, nil)
	}
	return p, nil
}

// Proxy selects a provider for params.ChainID and forwards the request to it.
// Errors are relayed unchanged.
func (r *Registry) Proxy(ctx context.Context, method string, params QueryParams, header http.Header, body []byte) (*http.Response, error) {
	ctx, span := otel.Tracer().Start(ctx, "provider.Proxy",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.chain_id", params.ChainID.String()),
			attribute.String("http.request.method", method),
		),
	)
	defer span.End()

	p, err := r.Select(params.ChainID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain not found")
		return nil, err
	}
	span.SetAttributes(attribute.String("rpc.provider", p.Kind().String()))

	resp, err := p.Proxy(ctx, method, params, header, body)
	if err != nil {
		desc := err.Error()
		if kind := KindOf(err); kind != nil {
			desc = kind.Error()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, desc)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}
