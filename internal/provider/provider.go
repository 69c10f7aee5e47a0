// Package provider normalizes heterogeneous upstream JSON-RPC vendors behind a
// single contract so the router can treat every vendor identically.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/sirupsen/logrus"
)

// Kind identifies an upstream vendor.
type Kind string

const (
	KindInfura  Kind = "infura"
	KindPokt    Kind = "pokt"
	KindBinance Kind = "binance"
)

// Kinds lists every known vendor.
var Kinds = []Kind{
	KindInfura,
	KindPokt,
	KindBinance,
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a configuration value into a Kind.
func ParseKind(value string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == value {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider kind: %q", value)
}

// RPCProvider is the contract every upstream vendor implements.
type RPCProvider interface {
	// Proxy issues exactly one upstream call for the chain in params and
	// returns the upstream response verbatim, unless the upstream signals
	// rate limiting, in which case it fails with ErrThrottled.
	Proxy(ctx context.Context, method string, params QueryParams, header http.Header, body []byte) (*http.Response, error)

	// SupportsChain reports whether the chain is in the provider's table.
	SupportsChain(chain ChainID) bool

	// SupportedChains returns every chain in the table, sorted.
	SupportedChains() []ChainID

	// Kind returns the vendor identity
	Kind() Kind

	// ProjectID returns the vendor account identifier
	ProjectID() string
}

// hooks are the two behaviours that differ between vendors.
type hooks interface {
	// buildURI turns the table entry for a chain into the upstream URI.
	buildURI(route string) string

	// checkRateLimit inspects the upstream response. It returns the response
	// to forward, which may be a replayed copy when the body had to be read.
	checkRateLimit(resp *http.Response) (*http.Response, bool, error)
}

// base holds the state shared by all vendors. It is immutable after
// construction and safe for concurrent use.
type base struct {
	kind       Kind
	httpClient *http.Client
	projectID  string
	chains     map[ChainID]string
}

func newBase(kind Kind, client *http.Client, projectID string, chains map[string]string) base {
	if client == nil {
		client = http.DefaultClient
	}
	table := make(map[ChainID]string, len(chains))
	for chain, route := range chains {
		table[ChainID(chain).Normalize()] = route
	}
	return base{
		kind:       kind,
		httpClient: client,
		projectID:  projectID,
		chains:     table,
	}
}

func (b *base) lookup(chain ChainID) (string, bool) {
	route, ok := b.chains[chain.Normalize()]
	return route, ok
}

func (b *base) SupportsChain(chain ChainID) bool {
	_, ok := b.lookup(chain)
	return ok
}

func (b *base) SupportedChains() []ChainID {
	chains := make([]ChainID, 0, len(b.chains))
	for chain := range b.chains {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) ProjectID() string {
	return b.projectID
}

// proxy is the call sequence every vendor shares.
func (b *base) proxy(ctx context.Context, h hooks, method string, params QueryParams, body []byte) (*http.Response, error) {
	chain := params.ChainID.Normalize()
	route, ok := b.lookup(chain)
	if !ok {
		return nil, newError(ErrChainNotFound, b.kind, chain, nil)
	}

	uri := h.buildURI(route)
	req, err := http.NewRequestWithContext(ctx, method, uri, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrRequestConstruction, b.kind, chain, err)
	}
	req.Header.Set("Content-Type", "application/json")

	log := logrus.WithFields(logrus.Fields{
		"provider": b.kind,
		"chain":    chain,
		"method":   method,
	})
	log.Debug("Forwarding request upstream")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, newError(ErrUpstreamTransport, b.kind, chain, err)
	}

	resp, limited, err := h.checkRateLimit(resp)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			perr.Provider, perr.Chain = b.kind, chain
			return nil, perr
		}
		return nil, newError(ErrUpstreamTransport, b.kind, chain, err)
	}
	if limited {
		log.Warn("Upstream rate limited request")
		return nil, newError(ErrThrottled, b.kind, chain, nil)
	}

	log.WithField("status", resp.StatusCode).Debug("Upstream responded")
	return resp, nil
}

// statusRateLimited is the status-only check used by vendors that signal
// throttling with HTTP 429. The body is left untouched unless the response is
// dropped.
func statusRateLimited(resp *http.Response) (*http.Response, bool, error) {
	if resp.StatusCode == http.StatusTooManyRequests {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, true, nil
	}
	return resp, false, nil
}
