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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "walletview.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultWatchInterval   = "10s"
	DefaultProviderTimeout = "10s"

	// mainnetMagic is the network magic for Cardano mainnet, used to
	// determine the address network
	mainnetMagic = 764824073

	addressNetworkTestnet uint8 = 0
	addressNetworkMainnet uint8 = 1
)

// ErrNoProvider is returned when neither a fixture nor a bridge URL is set
var ErrNoProvider = errors.New("no wallet provider configured")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

// ProviderConfig selects the wallet backend. Fixture takes precedence over
// URL.
type ProviderConfig struct {
	Fixture    string `yaml:"fixture"`
	URL        string `yaml:"url"        envconfig:"URL"`
	Name       string `yaml:"name"`
	Timeout    string `yaml:"timeout"`
	MaxRetries uint   `yaml:"maxRetries" split_words:"true"`
}

type Config struct {
	Provider        ProviderConfig `yaml:"provider"`
	Network         string         `yaml:"network"`
	BindAddr        string         `yaml:"bindAddr"        split_words:"true"`
	ShutdownTimeout string         `yaml:"shutdownTimeout" split_words:"true"`
	WatchInterval   string         `yaml:"watchInterval"   split_words:"true"`
	ApiPort         uint           `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint           `yaml:"metricsPort"     split_words:"true"`
	Tracing         bool           `yaml:"tracing"`
	TracingStdout   bool           `yaml:"tracingStdout"   split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		Network:         "mainnet",
		BindAddr:        "0.0.0.0",
		ApiPort:         8090,
		MetricsPort:     12799,
		ShutdownTimeout: DefaultShutdownTimeout,
		WatchInterval:   DefaultWatchInterval,
		Provider: ProviderConfig{
			Timeout: DefaultProviderTimeout,
		},
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	globalConfig = defaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.walletview/walletview.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".walletview", "walletview.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/walletview/walletview.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/walletview/walletview.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if !tempCfg.Config.IsZero() {
			// Overlay config section values onto existing defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process environment variables
	if err := envconfig.Process("walletview", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks the network name and duration strings
func (c *Config) Validate() error {
	if _, err := c.NetworkId(); err != nil {
		return err
	}
	for name, val := range map[string]string{
		"shutdownTimeout":  c.ShutdownTimeout,
		"watchInterval":    c.WatchInterval,
		"provider.timeout": c.Provider.Timeout,
	} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, val, err)
		}
	}
	return nil
}

// NetworkId returns the address network id for the named network
func (c *Config) NetworkId() (uint8, error) {
	network, ok := ouroboros.NetworkByName(c.Network)
	if !ok {
		return 0, fmt.Errorf("unknown network: %s", c.Network)
	}
	if network.NetworkMagic == mainnetMagic {
		return addressNetworkMainnet, nil
	}
	return addressNetworkTestnet, nil
}

func parseDuration(val string, def string) time.Duration {
	if val == "" {
		val = def
	}
	// Validate has already checked the format
	d, _ := time.ParseDuration(val)
	return d
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, DefaultShutdownTimeout)
}

func (c *Config) WatchIntervalDuration() time.Duration {
	return parseDuration(c.WatchInterval, DefaultWatchInterval)
}

func (c *Config) ProviderTimeoutDuration() time.Duration {
	return parseDuration(c.Provider.Timeout, DefaultProviderTimeout)
}

// HasProvider reports whether a wallet backend is configured
func (c *Config) HasProvider() bool {
	return c.Provider.Fixture != "" || c.Provider.URL != ""
}
