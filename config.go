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

package walletview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/wallet"
)

// mainnetMagic is the network magic for Cardano mainnet. Every other network
// uses the testnet address network id.
const mainnetMagic = 764824073

const (
	addressNetworkTestnet uint8 = 0
	addressNetworkMainnet uint8 = 1
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	codec            codec.Provider
	provider         wallet.Provider
	network          string
	apiListenAddress string
	networkMagic     uint32
	shutdownTimeout  time.Duration
	watchInterval    time.Duration
	tracing          bool
	tracingStdout    bool
}

// configPopulateNetworkMagic uses the named network (if specified) to determine the network magic value (if not specified)
func (w *Walletview) configPopulateNetworkMagic() error {
	if w.config.networkMagic == 0 && w.config.network != "" {
		tmpNetwork, ok := ouroboros.NetworkByName(w.config.network)
		if !ok {
			return fmt.Errorf("unknown network name: %s", w.config.network)
		}
		w.config.networkMagic = tmpNetwork.NetworkMagic
	}
	return nil
}

func (w *Walletview) configValidate() error {
	if w.config.networkMagic == 0 {
		return fmt.Errorf(
			"invalid network magic value: %d",
			w.config.networkMagic,
		)
	}
	if w.config.watchInterval > 0 &&
		w.config.watchInterval < wallet.MinWatchInterval {
		return fmt.Errorf(
			"watch interval %s is below the minimum of %s",
			w.config.watchInterval,
			wallet.MinWatchInterval,
		)
	}
	if w.config.watchInterval > 0 && w.config.provider == nil {
		return errors.New("watching the balance requires a wallet provider")
	}
	return nil
}

// addressNetwork returns the address network id matching the configured
// network magic
func (c *Config) addressNetwork() uint8 {
	if c.networkMagic == mainnetMagic {
		return addressNetworkMainnet
	}
	return addressNetworkTestnet
}

// ConfigOptionFunc is a type that represents functions that modify the Walletview config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new walletview config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithNetwork specifies the named network to operate on. This will automatically set the appropriate network magic value
func WithNetwork(network string) ConfigOptionFunc {
	return func(c *Config) {
		c.network = network
	}
}

// WithNetworkMagic specifies the network magic value to use. This will override any named network specified
func WithNetworkMagic(networkMagic uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.networkMagic = networkMagic
	}
}

// WithProvider specifies the wallet to connect to. Without one, only the stateless endpoints are useful
func WithProvider(provider wallet.Provider) ConfigOptionFunc {
	return func(c *Config) {
		c.provider = provider
	}
}

// WithCodec specifies the hash and bech32 backend. The default is codec.New()
func WithCodec(provider codec.Provider) ConfigOptionFunc {
	return func(c *Config) {
		c.codec = provider
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. By default, metrics are not enabled
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithApiListenAddress specifies the listen address for the REST API. An empty value (the default) disables it
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithWatchInterval enables balance polling at the given interval while running. Zero (the default) disables it
func WithWatchInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.watchInterval = interval
	}
}
