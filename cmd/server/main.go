// Package main is the entry point for the RPC proxy, a reverse proxy that
// forwards JSON-RPC requests to the upstream vendor serving the requested chain.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/rpc-proxy/internal/config"
	"github.com/yourorg/rpc-proxy/internal/otel"
	"github.com/yourorg/rpc-proxy/internal/provider"
	"github.com/yourorg/rpc-proxy/internal/server"
)

// main is the entry point for the application
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg.LogFormat, cfg.LogLevel)

	shutdownTracer := otel.InitTracer(context.Background(), cfg.OtelEndpoint)
	defer shutdownTracer()

	// one pooled client per provider, shared by every request for the process lifetime
	providers := createProviders(cfg, func() *http.Client {
		return provider.NewHTTPClient(cfg.RequestTimeout)
	})
	if len(providers) == 0 {
		logrus.Fatal("No providers configured")
	}
	registry := provider.NewRegistry(provider.FirstMatch, providers...)

	srv := server.New(registry, server.Options{
		Timeout:       cfg.RequestTimeout,
		RateLimit:     rate.Limit(cfg.RateLimitRPS),
		Burst:         cfg.RateLimitBurst,
		EnableMetrics: cfg.EnableMetrics,
	})

	fields := logrus.Fields{
		"addr":           cfg.ListenAddr(),
		"timeout":        cfg.RequestTimeout,
		"provider_count": len(providers),
		"chain_count":    len(registry.SupportedChains()),
		"metrics":        cfg.EnableMetrics,
	}
	if ip, err := cfg.PublicIP(); err != nil {
		logrus.Warnf("Could not determine public ip: %v", err)
	} else {
		fields["public_ip"] = ip.String()
	}
	logrus.WithFields(fields).Info("Server initialized")

	start(cfg.ListenAddr(), srv.Router())
}

// start begins the HTTP server and sets up graceful shutdown
func start(addr string, handler http.Handler) {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
		return
	}

	logrus.Info("Server stopped")
}
