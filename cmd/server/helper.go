package main

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/rpc-proxy/internal/config"
	"github.com/yourorg/rpc-proxy/internal/provider"
)

// setupLogging configures the logging for the application
func setupLogging(format, level string) {
	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logrus.SetLevel(parseLevel(level))
	logrus.Debug("Logging configured")
}

// parseLevel maps a configured level name to a logrus level, defaulting to info
func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// createProviders builds the providers enabled by cfg, in dispatch priority order
func createProviders(cfg config.Config, newClient func() *http.Client) []provider.RPCProvider {
	var providers []provider.RPCProvider

	if cfg.InfuraProjectID != "" {
		providers = append(providers, provider.NewInfuraProvider(newClient(), cfg.InfuraProjectID, provider.DefaultInfuraChains()))
	} else {
		logrus.Warn("INFURA_PROJECT_ID not set, Infura disabled")
	}

	if cfg.PoktProjectID != "" {
		providers = append(providers, provider.NewPoktProvider(newClient(), cfg.PoktProjectID, provider.DefaultPoktChains()))
	} else {
		logrus.Warn("POKT_PROJECT_ID not set, Pokt disabled")
	}

	if cfg.EnableBinance {
		providers = append(providers, provider.NewBinanceProvider(newClient(), cfg.BinanceProjectID, provider.DefaultBinanceChains()))
	}

	for _, p := range providers {
		logrus.WithFields(logrus.Fields{
			"provider": p.Kind(),
			"chains":   len(p.SupportedChains()),
		}).Info("Provider registered")
	}
	return providers
}
