// Package server exposes the provider registry over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/yourorg/rpc-proxy/internal/otel"
	"github.com/yourorg/rpc-proxy/internal/provider"
)

const (
	version = "1.0.0"

	// maxRequestBody caps the JSON-RPC payload read from clients.
	maxRequestBody = 4 << 20
)

// Options configures the HTTP surface around the registry.
type Options struct {
	// Upper bound for one proxied call, including the upstream body
	Timeout time.Duration

	// Inbound rate limit, disabled when RateLimit is 0
	RateLimit rate.Limit
	Burst     int

	EnableMetrics bool
}

// Server routes inbound JSON-RPC requests to the provider registry.
type Server struct {
	registry *provider.Registry
	opts     Options
	limiter  *rate.Limiter
	metrics  *serverMetrics
	started  time.Time
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	registry        *prometheus.Registry
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	providerErrors  *prometheus.CounterVec
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_proxy_requests_total",
				Help: "Total number of proxied requests",
			},
			[]string{"chain_id", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpc_proxy_request_duration_seconds",
				Help:    "Proxied request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_proxy_errors_total",
				Help: "Total number of failed proxied requests by failure kind",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.providerErrors,
	)
	return m
}

// New creates a server over registry.
func New(registry *provider.Registry, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = provider.DefaultTimeout
	}

	s := &Server{
		registry: registry,
		opts:     opts,
		started:  time.Now(),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	if opts.EnableMetrics {
		s.metrics = newServerMetrics()
	}
	return s
}

// Router returns the HTTP handler for the server.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1", s.handleProxy).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// handleProxy forwards a JSON-RPC request to the provider serving ?chainId=.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.limiter != nil && !s.limiter.Allow() {
		s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
		s.observe("", http.StatusTooManyRequests, start)
		return
	}

	query := r.URL.Query()
	chainID := query.Get("chainId")
	if chainID == "" {
		s.errorResponse(w, http.StatusBadRequest, "Missing chainId query parameter")
		s.observe("", http.StatusBadRequest, start)
		return
	}
	params := provider.NewQueryParams(chainID, query.Get("projectId"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		s.observe("", http.StatusBadRequest, start)
		return
	}

	ctx, span := otel.Tracer().Start(r.Context(), "POST /v1")
	defer span.End()
	span.SetAttributes(attribute.String("rpc.chain_id", params.ChainID.String()))

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := s.registry.Proxy(ctx, r.Method, params, r.Header, body)
	if err != nil {
		otel.RecordError(ctx, err)
		status := StatusFor(err)
		if s.metrics != nil {
			s.metrics.providerErrors.WithLabelValues(kindLabel(err)).Inc()
		}
		logrus.WithFields(logrus.Fields{
			"chain":  params.ChainID,
			"status": status,
		}).Warnf("Proxy request failed: %v", err)
		s.errorResponse(w, status, errorMessage(err))

		// unknown chains are client input, keep them out of label values
		chainLabel := params.ChainID
		if status == http.StatusNotFound {
			chainLabel = ""
		}
		s.observe(chainLabel, status, start)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logrus.WithField("chain", params.ChainID).Warnf("Error relaying upstream body: %v", err)
	}
	s.observe(params.ChainID, resp.StatusCode, start)
}

// Hop-by-hop headers. These apply to the upstream connection only and are
// not relayed to the client.
// http://www.w3.org/Protocols/rfc2616/rfc2616-sec13.html
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// copyHeader relays the end-to-end headers of src into dst.
func copyHeader(dst, src http.Header) {
	skip := make(map[string]bool, len(hopHeaders))
	for _, h := range hopHeaders {
		skip[h] = true
	}
	// headers named in Connection are hop-by-hop as well
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				skip[http.CanonicalHeaderKey(name)] = true
			}
		}
	}

	for key, values := range src {
		if skip[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

func (s *Server) observe(chain provider.ChainID, status int, start time.Time) {
	if s.metrics == nil {
		return
	}
	code := strconv.Itoa(status)
	s.metrics.requestCounter.WithLabelValues(chain.String(), code).Inc()
	s.metrics.requestDuration.WithLabelValues(code).Observe(time.Since(start).Seconds())
}

// StatusFor maps a provider failure to the status returned to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrChainNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, provider.ErrUpstreamTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, provider.ErrChainNotFound):
		return "Chain not supported"
	case errors.Is(err, provider.ErrThrottled):
		return "Upstream provider is rate limiting requests"
	case errors.Is(err, provider.ErrUpstreamTransport):
		return "Upstream provider unavailable"
	default:
		return "Internal server error"
	}
}

func kindLabel(err error) string {
	switch provider.KindOf(err) {
	case provider.ErrChainNotFound:
		return "chain_not_found"
	case provider.ErrThrottled:
		return "throttled"
	case provider.ErrUpstreamTransport:
		return "upstream_transport"
	case provider.ErrRequestConstruction:
		return "request_construction"
	default:
		return "unknown"
	}
}

// ErrorResponse is the body returned for failed requests
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// errorResponse writes a JSON error body
func (s *Server) errorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		StatusCode: statusCode,
		Status:     "error",
		Error:      errorMsg,
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus reports the configured providers and the chains they serve
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	providers := make([]map[string]interface{}, 0)
	for _, p := range s.registry.Providers() {
		providers = append(providers, map[string]interface{}{
			"kind":   p.Kind(),
			"chains": p.SupportedChains(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "operational",
		"version":   version,
		"uptime":    time.Since(s.started).String(),
		"providers": providers,
		"chains":    s.registry.SupportedChains(),
	})
}
