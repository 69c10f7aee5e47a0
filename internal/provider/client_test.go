package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_SingleAttempt(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "down")
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	resp, err := client.Post(srv.URL, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNewHTTPClient_TooManyRequestsPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewBinanceProvider(NewHTTPClient(time.Second), "", map[string]string{"eip155:56": srv.URL})
	_, err := p.Proxy(context.Background(), http.MethodPost, NewQueryParams("eip155:56", ""), nil, []byte(rpcRequest))
	assert.True(t, errors.Is(err, ErrThrottled), "%v", err)
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewBinanceProvider(NewHTTPClient(50*time.Millisecond), "", map[string]string{"eip155:56": srv.URL})
	_, err := p.Proxy(context.Background(), http.MethodPost, NewQueryParams("eip155:56", ""), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstreamTransport), "%v", err)
	assert.False(t, errors.Is(err, ErrThrottled))
}

func TestProviders_EndToEnd(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":"0x10d4f"}`)
	}))
	defer srv.Close()

	reg := NewRegistry(nil, NewBinanceProvider(NewHTTPClient(time.Second), "", map[string]string{"eip155:56": srv.URL}))
	resp, err := reg.Proxy(context.Background(), http.MethodPost, NewQueryParams("EIP155:56", ""), nil, []byte(rpcRequest))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":"0x10d4f"}`, readBody(resp))
	assert.Equal(t, rpcRequest, gotBody)
}

func TestNewHTTPClient_KeepsIdlePoolOnFailure(t *testing.T) {
	transport := &idleCounter{}
	client := newHTTPClient(time.Second, transport)

	_, err := client.Post("http://upstream.invalid/rpc", "application/json", nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&transport.closes))
}

func TestRegistry_ConcurrentProxy(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits[r.Header.Get("X-Forwarded-Host")]++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	// one client shared by every provider
	client := newHTTPClient(5*time.Second, redirectTransport{target: target, next: srv.Client().Transport})
	reg := NewRegistry(nil,
		NewInfuraProvider(client, "abc", map[string]string{"eip155:1": "mainnet"}),
		NewPoktProvider(client, "xyz", map[string]string{"eip155:100": "poa-xdai"}),
		NewBinanceProvider(client, "", map[string]string{"eip155:56": srv.URL}),
	)
	chains := []string{"eip155:1", "eip155:100", "eip155:56"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"eth_blockNumber","params":[]}`, id)
			params := NewQueryParams(chains[id%len(chains)], "")

			resp, err := reg.Proxy(context.Background(), http.MethodPost, params, nil, []byte(body))
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, body, readBody(resp))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, n := range hits {
		total += n
	}
	assert.Equal(t, workers, total, "one upstream hit per call")
	assert.Equal(t, 17, hits["mainnet.infura.io"])
	assert.Equal(t, 17, hits["poa-xdai.gateway.pokt.network"])
	assert.Equal(t, 16, hits[target.Host])
}
