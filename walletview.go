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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/api"
	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/event"
	"github.com/blinklabs-io/walletview/wallet"
)

const defaultShutdownTimeout = 30 * time.Second

// Walletview ties a wallet provider to the decoders, the event bus and the
// optional REST API
type Walletview struct {
	config         Config
	eventBus       *event.EventBus
	tracerProvider trace.TracerProvider
	client         *wallet.Client
	session        *wallet.Session
	apiServer      *api.Server
	shutdownFuncs  []func(context.Context) error
	done           chan struct{}
	shutdownOnce   sync.Once
	mu             sync.Mutex
}

func New(cfg Config) (*Walletview, error) {
	if cfg.codec == nil {
		cfg.codec = codec.New()
	}
	w := &Walletview{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := w.configPopulateNetworkMagic(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := w.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	// Configure tracing
	w.tracerProvider = otel.GetTracerProvider()
	if w.config.tracing {
		if err := w.setupTracing(); err != nil {
			return nil, err
		}
	}
	w.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	network := w.config.addressNetwork()
	client, err := wallet.New(wallet.Config{
		Logger:         cfg.logger,
		PromRegistry:   cfg.promRegistry,
		TracerProvider: w.tracerProvider,
		EventBus:       w.eventBus,
		Network:        &network,
		Codec:          cfg.codec,
	})
	if err != nil {
		return nil, errors.Join(err, w.Stop())
	}
	w.client = client
	return w, nil
}

// EventBus returns the bus wallet events are published on
func (w *Walletview) EventBus() *event.EventBus {
	return w.eventBus
}

// Client returns the wallet client, for callers that manage their own
// sessions
func (w *Walletview) Client() *wallet.Client {
	return w.client
}

// Session returns the connected session, or nil before Connect
func (w *Walletview) Session() *wallet.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// Connect enables the configured wallet provider. It is a no-op when a
// session already exists.
func (w *Walletview) Connect(ctx context.Context) (*wallet.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session != nil {
		return w.session, nil
	}
	session, err := w.client.Connect(ctx, w.config.provider)
	if err != nil {
		return nil, err
	}
	w.session = session
	return session, nil
}

// Run connects the wallet (if one is configured), starts the API server and
// balance watcher as configured, and blocks until ctx is done or Stop is
// called.
func (w *Walletview) Run(ctx context.Context) error {
	var session *wallet.Session
	if w.config.provider != nil {
		var err error
		session, err = w.Connect(ctx)
		if err != nil {
			return errors.Join(
				fmt.Errorf("failed to connect wallet: %w", err),
				w.Stop(),
			)
		}
	}
	if w.config.apiListenAddress != "" {
		if err := w.startApi(ctx, session); err != nil {
			return errors.Join(err, w.Stop())
		}
	}
	errChan := make(chan error, 1)
	if session != nil && w.config.watchInterval > 0 {
		w.startWatch(session, errChan)
	}

	select {
	case <-ctx.Done():
		return w.Stop()
	case <-w.done:
		return nil
	case err := <-errChan:
		w.config.logger.Error(
			"balance watch stopped",
			"component", "walletview",
			"error", err,
		)
		return errors.Join(err, w.Stop())
	}
}

func (w *Walletview) startApi(ctx context.Context, session *wallet.Session) error {
	var backend api.Backend
	if session != nil {
		backend = session
	}
	apiServer, err := api.New(
		api.Config{
			Fingerprinter:   asset.NewFingerprinter(w.config.codec),
			AddressCodec:    address.NewCodec(w.config.codec),
			EventBus:        w.eventBus,
			ListenAddress:   w.config.apiListenAddress,
			ShutdownTimeout: w.shutdownTimeout(),
		},
		backend,
		w.config.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	w.mu.Lock()
	w.apiServer = apiServer
	w.shutdownFuncs = append(w.shutdownFuncs, apiServer.Stop)
	w.mu.Unlock()
	return nil
}

func (w *Walletview) startWatch(session *wallet.Session, errChan chan<- error) {
	watchCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.Watch(watchCtx, w.config.watchInterval); err != nil &&
			watchCtx.Err() == nil {
			errChan <- err
		}
	}()
	w.mu.Lock()
	w.shutdownFuncs = append(w.shutdownFuncs, func(context.Context) error {
		cancel()
		wg.Wait()
		return nil
	})
	w.mu.Unlock()
}

// ApiAddr returns the bound API address, or an empty string when the API is
// not running
func (w *Walletview) ApiAddr() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.apiServer == nil {
		return ""
	}
	addr := w.apiServer.Addr()
	if addr == nil {
		return ""
	}
	return addr.String()
}

func (w *Walletview) shutdownTimeout() time.Duration {
	if w.config.shutdownTimeout > 0 {
		return w.config.shutdownTimeout
	}
	return defaultShutdownTimeout
}

func (w *Walletview) Stop() error {
	var err error
	w.shutdownOnce.Do(func() {
		err = w.shutdown()
	})
	return err
}

func (w *Walletview) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		w.shutdownTimeout(),
	)
	defer cancel()

	var err error
	w.config.logger.Debug("starting graceful shutdown", "component", "walletview")

	w.mu.Lock()
	funcs := w.shutdownFuncs
	w.shutdownFuncs = nil
	session := w.session
	w.mu.Unlock()

	// Registered in start order, run in reverse so the watcher stops before
	// the API server and tracing are torn down
	for i := len(funcs) - 1; i >= 0; i-- {
		if fnErr := funcs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	if session != nil {
		session.Close()
	}
	if w.eventBus != nil {
		w.eventBus.Stop()
	}

	w.config.logger.Debug("graceful shutdown complete", "component", "walletview")
	close(w.done)
	return err
}
