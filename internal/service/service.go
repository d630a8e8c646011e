// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/walletview"
	"github.com/blinklabs-io/walletview/internal/config"
	"github.com/blinklabs-io/walletview/wallet"
)

// NewProvider builds the wallet provider named by the config. A fixture file
// takes precedence over a bridge URL.
func NewProvider(
	cfg *config.Config,
	logger *slog.Logger,
) (wallet.Provider, error) {
	switch {
	case cfg.Provider.Fixture != "":
		p, err := wallet.LoadFixture(cfg.Provider.Fixture)
		if err != nil {
			return nil, err
		}
		return p, nil
	case cfg.Provider.URL != "":
		p, err := wallet.NewHTTPProvider(wallet.HTTPProviderConfig{
			Logger:     logger,
			BaseURL:    cfg.Provider.URL,
			Name:       cfg.Provider.Name,
			Timeout:    cfg.ProviderTimeoutDuration(),
			MaxRetries: cfg.Provider.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, config.ErrNoProvider
	}
}

// Options builds the walletview options shared by every command
func Options(
	cfg *config.Config,
	logger *slog.Logger,
	provider wallet.Provider,
) []walletview.ConfigOptionFunc {
	return []walletview.ConfigOptionFunc{
		walletview.WithLogger(logger),
		walletview.WithNetwork(cfg.Network),
		walletview.WithProvider(provider),
		walletview.WithShutdownTimeout(cfg.ShutdownTimeoutDuration()),
		walletview.WithTracing(cfg.Tracing),
		walletview.WithTracingStdout(cfg.TracingStdout),
	}
}

// Run serves the REST API and metrics until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "service")
	// The API can run without a wallet, serving only the stateless decoders
	var provider wallet.Provider
	if cfg.HasProvider() {
		var err error
		provider, err = NewProvider(cfg, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn(
			"no wallet provider configured, wallet endpoints are disabled",
			"component", "service",
		)
	}
	shutdownTimeout := cfg.ShutdownTimeoutDuration()
	opts := Options(cfg, logger, provider)
	opts = append(
		opts,
		walletview.WithApiListenAddress(
			fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
		),
		// Enable metrics with default prometheus registry
		walletview.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	if provider != nil {
		opts = append(
			opts,
			walletview.WithWatchInterval(cfg.WatchIntervalDuration()),
		)
	}
	w, err := walletview.New(walletview.NewConfig(opts...))
	if err != nil {
		return err
	}

	metricsServer := newMetricsServer(cfg)
	metricsErr := make(chan error, 1)
	if metricsServer != nil {
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "service",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf(
					"failed to start metrics listener: %w",
					err,
				)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- w.Run(signalCtx)
	}()

	select {
	case err := <-metricsErr:
		logger.Error(err.Error(), "component", "service")
		signalCtxStop()
		if stopErr := w.Stop(); stopErr != nil {
			logger.Error("shutdown errors occurred", "error", stopErr)
		}
		<-errChan
		return err
	case err := <-errChan:
		shutdownMetrics()
		if signalCtx.Err() != nil {
			logger.Info("signal received, shutdown complete")
		}
		if err != nil {
			logger.Error("service error", "error", err)
			return err
		}
		return nil
	}
}

// newMetricsServer returns nil when the metrics port is disabled
func newMetricsServer(cfg *config.Config) *http.Server {
	if cfg.MetricsPort == 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	// pprof registers on the default mux
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	return &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
