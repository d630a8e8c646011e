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

package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/event"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/utxo"
)

const tracerName = "github.com/blinklabs-io/walletview/wallet"

type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	EventBus       *event.EventBus
	// Network, when set, is the address network id the wallet is expected
	// to use. Addresses on another network are logged.
	Network *uint8
	// Codec is the hash and bech32 backend shared by the resolver and the
	// address codec
	Codec codec.Provider
}

// Client holds the decoders and instrumentation shared by every Session
type Client struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	eventBus  *event.EventBus
	metrics   *walletMetrics
	resolver  *balance.Resolver
	addresses *address.Codec
	network   *uint8
}

func New(cfg Config) (*Client, error) {
	if cfg.Codec == nil {
		return nil, errors.New("wallet: codec provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	c := &Client{
		logger:   cfg.Logger.With("component", "wallet"),
		tracer:   cfg.TracerProvider.Tracer(tracerName),
		eventBus: cfg.EventBus,
		resolver: balance.NewResolver(
			asset.NewFingerprinter(cfg.Codec),
		),
		addresses: address.NewCodec(cfg.Codec),
		network:   cfg.Network,
	}
	if cfg.PromRegistry != nil {
		c.initMetrics(cfg.PromRegistry)
	}
	return c, nil
}

// Connect enables the wallet if needed and returns a Session. Fails with
// ErrRejected when the wallet declines.
func (c *Client) Connect(ctx context.Context, p Provider) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrNotConnected)
	}
	ctx, span := c.tracer.Start(
		ctx,
		"wallet.enable",
		trace.WithAttributes(attribute.String("wallet.provider", p.Name())),
	)
	defer span.End()
	start := time.Now()
	alreadyEnabled, err := c.enable(ctx, p)
	c.observe("enable", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn(
			"wallet connection failed",
			"provider", p.Name(),
			"error", err,
		)
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.sessions.Inc()
	}
	c.publish(
		event.WalletConnectedEventType,
		event.WalletConnectedEvent{
			Provider:       p.Name(),
			AlreadyEnabled: alreadyEnabled,
		},
	)
	c.logger.Info(
		"wallet connected",
		"provider", p.Name(),
		"already_enabled", alreadyEnabled,
	)
	return &Session{client: c, provider: p}, nil
}

func (c *Client) enable(ctx context.Context, p Provider) (bool, error) {
	enabled, err := p.IsEnabled(ctx)
	if err != nil {
		return false, providerErr("isEnabled", err)
	}
	if enabled {
		return true, nil
	}
	ok, err := p.Enable(ctx)
	if err != nil {
		return false, providerErr("enable", err)
	}
	if !ok {
		return false, fmt.Errorf(
			"%w: %s declined the connection",
			ErrRejected,
			p.Name(),
		)
	}
	return false, nil
}

func (c *Client) publish(eventType event.EventType, data any) {
	if c.eventBus == nil {
		return
	}
	c.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

// Resolver returns the balance resolver used by sessions
func (c *Client) Resolver() *balance.Resolver {
	return c.resolver
}

// AddressCodec returns the address codec used by sessions
func (c *Client) AddressCodec() *address.Codec {
	return c.addresses
}

func (c *Client) encodeAddress(addrHex string) (string, error) {
	addr, err := address.DecodeHex(addrHex)
	if err != nil {
		return "", err
	}
	text, err := c.addresses.Encode(addr)
	if err != nil {
		return "", err
	}
	if c.network != nil && addr.Network != *c.network {
		c.logger.Warn(
			"wallet address is on an unexpected network",
			"address", text,
			"network", addr.Network,
			"expected", *c.network,
		)
	}
	return text, nil
}

// providerErr keeps rejections recognisable and tags everything else as a
// provider failure
func providerErr(method string, err error) error {
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrNotConnected) {
		return fmt.Errorf("%s: %w", method, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrProvider, method, err)
}

// Session is a connected wallet. Holding one is proof that the connection
// handshake completed.
type Session struct {
	client   *Client
	provider Provider
	closed   atomic.Bool
}

// Provider returns the wallet name
func (s *Session) Provider() string {
	return s.provider.Name()
}

// Close ends the session. Later calls fail with ErrNotConnected.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.client.logger.Info("wallet session closed", "provider", s.Provider())
	}
}

func (s *Session) do(
	ctx context.Context,
	method string,
	fn func(ctx context.Context) error,
) error {
	if s.closed.Load() {
		return fmt.Errorf("%s: %w: session closed", method, ErrNotConnected)
	}
	ctx, span := s.client.tracer.Start(
		ctx,
		"wallet."+method,
		trace.WithAttributes(
			attribute.String("wallet.provider", s.provider.Name()),
		),
	)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	s.client.observe(method, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.client.logger.Debug(
			"wallet request failed",
			"provider", s.provider.Name(),
			"method", method,
			"error", err,
		)
	}
	return err
}

// RawBalance returns the hex-encoded CBOR value exactly as the wallet sent it
func (s *Session) RawBalance(ctx context.Context) (string, error) {
	var ret string
	err := s.do(ctx, "getBalance", func(ctx context.Context) error {
		var err error
		ret, err = s.provider.GetBalance(ctx)
		if err != nil {
			return providerErr("getBalance", err)
		}
		return nil
	})
	return ret, err
}

// Balance fetches and resolves the wallet balance
func (s *Session) Balance(ctx context.Context) (balance.Balance, error) {
	var ret balance.Balance
	err := s.do(ctx, "getBalance", func(ctx context.Context) error {
		raw, err := s.provider.GetBalance(ctx)
		if err != nil {
			return providerErr("getBalance", err)
		}
		ret, err = s.client.resolver.ResolveHex(raw)
		if err != nil {
			return fmt.Errorf("resolving balance: %w", err)
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("wallet.lovelace", strconv.FormatUint(ret.Coin, 10)),
			attribute.Int("wallet.assets", len(ret.Tokens)),
		)
		return nil
	})
	if err != nil {
		return balance.Balance{}, err
	}
	if s.client.metrics != nil {
		s.client.metrics.lovelace.Set(float64(ret.Coin))
		s.client.metrics.assets.Set(float64(len(ret.Tokens)))
	}
	s.client.publish(
		event.BalanceResolvedEventType,
		event.BalanceResolvedEvent{
			Lovelace:   ret.Coin,
			AssetCount: len(ret.Tokens),
		},
	)
	return ret, nil
}

// UsedAddresses returns the wallet's used addresses in bech32 form
func (s *Session) UsedAddresses(ctx context.Context) ([]string, error) {
	return s.addressList(ctx, "getUsedAddresses", "used", s.provider.GetUsedAddresses)
}

// UnusedAddresses returns the wallet's unused addresses in bech32 form
func (s *Session) UnusedAddresses(ctx context.Context) ([]string, error) {
	return s.addressList(ctx, "getUnusedAddresses", "unused", s.provider.GetUnusedAddresses)
}

func (s *Session) addressList(
	ctx context.Context,
	method string,
	kind string,
	fetch func(context.Context) ([]string, error),
) ([]string, error) {
	var ret []string
	err := s.do(ctx, method, func(ctx context.Context) error {
		raw, err := fetch(ctx)
		if err != nil {
			return providerErr(method, err)
		}
		ret = make([]string, 0, len(raw))
		for i, addrHex := range raw {
			text, err := s.client.encodeAddress(addrHex)
			if err != nil {
				return fmt.Errorf("%s address %d: %w", kind, i, err)
			}
			ret = append(ret, text)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.client.publish(
		event.AddressesResolvedEventType,
		event.AddressesResolvedEvent{Kind: kind, Addresses: ret},
	)
	return ret, nil
}

// ChangeAddress returns the wallet's change address in bech32 form
func (s *Session) ChangeAddress(ctx context.Context) (string, error) {
	var ret string
	err := s.do(ctx, "getChangeAddress", func(ctx context.Context) error {
		raw, err := s.provider.GetChangeAddress(ctx)
		if err != nil {
			return providerErr("getChangeAddress", err)
		}
		ret, err = s.client.encodeAddress(raw)
		if err != nil {
			return fmt.Errorf("change address: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.client.publish(
		event.AddressesResolvedEventType,
		event.AddressesResolvedEvent{Kind: "change", Addresses: []string{ret}},
	)
	return ret, nil
}

// Utxos returns the wallet's decoded unspent outputs
func (s *Session) Utxos(ctx context.Context) ([]utxo.Utxo, error) {
	var ret []utxo.Utxo
	err := s.do(ctx, "getUtxos", func(ctx context.Context) error {
		raw, err := s.provider.GetUtxos(ctx)
		if err != nil {
			return providerErr("getUtxos", err)
		}
		ret = make([]utxo.Utxo, 0, len(raw))
		for i, utxoHex := range raw {
			u, err := utxo.DecodeHex(utxoHex)
			if err != nil {
				return fmt.Errorf("utxo %d: %w", i, err)
			}
			ret = append(ret, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.client.publish(
		event.UtxosResolvedEventType,
		event.UtxosResolvedEvent{Count: len(ret)},
	)
	return ret, nil
}

// SignTx passes a hex-encoded transaction to the wallet and returns the
// hex-encoded witness set. Neither payload is interpreted.
func (s *Session) SignTx(
	ctx context.Context,
	txHex string,
	partialSign bool,
) (string, error) {
	if _, err := hexutil.Decode(txHex); err != nil {
		return "", fmt.Errorf("transaction: %w", err)
	}
	var ret string
	err := s.do(ctx, "signTx", func(ctx context.Context) error {
		var err error
		ret, err = s.provider.SignTx(ctx, txHex, partialSign)
		if err != nil {
			return providerErr("signTx", err)
		}
		if _, err := hexutil.Decode(ret); err != nil {
			return fmt.Errorf("witness set: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ret, nil
}
