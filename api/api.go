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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package api serves a connected wallet and the stateless decoders over a
// JSON REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/event"
)

const (
	DefaultListenAddress   = ":8090"
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds the server settings and the decoders used by the stateless
// endpoints
type Config struct {
	Fingerprinter   *asset.Fingerprinter
	AddressCodec    *address.Codec
	EventBus        *event.EventBus
	ListenAddress   string
	ShutdownTimeout time.Duration
}

// Server is the wallet REST API server
type Server struct {
	config     Config
	logger     *slog.Logger
	backend    Backend
	httpServer *http.Server
	listener   net.Listener
	closing    chan struct{}
	mu         sync.Mutex
}

// New creates a server. backend may be nil, in which case the wallet
// endpoints answer 503.
func New(
	cfg Config,
	backend Backend,
	logger *slog.Logger,
) (*Server, error) {
	if cfg.Fingerprinter == nil || cfg.AddressCodec == nil {
		return nil, errors.New("api: fingerprinter and address codec are required")
	}
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{
		config:  cfg,
		logger:  logger.With("component", "api"),
		backend: backend,
	}, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v0/wallet/balance", s.handleBalance)
	mux.HandleFunc("GET /api/v0/wallet/balance/raw", s.handleRawBalance)
	mux.HandleFunc("GET /api/v0/wallet/addresses/used", s.handleUsedAddresses)
	mux.HandleFunc("GET /api/v0/wallet/addresses/unused", s.handleUnusedAddresses)
	mux.HandleFunc("GET /api/v0/wallet/addresses/change", s.handleChangeAddress)
	mux.HandleFunc("GET /api/v0/wallet/utxos", s.handleUtxos)
	mux.HandleFunc(
		"GET /api/v0/assets/{policy}/fingerprint",
		s.handleFingerprint,
	)
	mux.HandleFunc(
		"GET /api/v0/assets/{policy}/{name}/fingerprint",
		s.handleFingerprint,
	)
	mux.HandleFunc("GET /api/v0/addresses/{address}", s.handleAddress)
	mux.HandleFunc("GET /api/v0/events", s.handleEvents)
	return s.withRequestId(mux)
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when ctx is cancelled.
func (s *Server) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr: s.config.ListenAddress,
		// Use h2c so we can serve HTTP/2 without TLS
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.closing = make(chan struct{})
	s.mu.Unlock()

	ln, err := s.listen(server)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}

	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		running := s.httpServer == server
		s.mu.Unlock()
		if !running {
			return
		}
		s.logger.Debug("context cancelled, shutting down API server")
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.ShutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil when not running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server and closes event streams
func (s *Server) Stop(
	ctx context.Context,
) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	closing := s.closing
	s.closing = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	// Hijacked websocket connections are not tracked by Shutdown
	close(closing)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

// listen binds the socket first so port conflicts are reported by Start,
// then serves in a background goroutine.
func (s *Server) listen(server *http.Server) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return ln, nil
}

func (s *Server) closingCh() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
