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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	DefaultHTTPTimeout    = 10 * time.Second
	DefaultHTTPMaxRetries = 3

	requestIdHeader = "X-Request-Id"
	maxResponseSize = 4 << 20
)

var errMalformedBridgeResponse = errors.New("malformed bridge response")

type HTTPProviderConfig struct {
	Client *http.Client
	Logger *slog.Logger
	// BaseURL is the bridge endpoint; each CIP-30 method is POSTed to
	// BaseURL/<method>
	BaseURL    string
	Name       string
	Timeout    time.Duration
	MaxRetries uint
}

// HTTPProvider talks to a wallet through a JSON bridge, typically a page
// running next to the browser extension. Requests are
// {"id": "<uuid>", "params": [...]} and responses are
// {"id": "<uuid>", "result": ..., "error": {"code": n, "info": "..."}}.
type HTTPProvider struct {
	client     *http.Client
	logger     *slog.Logger
	baseURL    string
	name       string
	maxRetries uint
}

func NewHTTPProvider(cfg HTTPProviderConfig) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("wallet bridge URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Name == "" {
		cfg.Name = "bridge"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultHTTPMaxRetries
	}
	return &HTTPProvider{
		client:     cfg.Client,
		logger:     cfg.Logger.With("component", "wallet-bridge"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		name:       cfg.Name,
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (p *HTTPProvider) Name() string {
	return p.name
}

// call invokes method on the bridge and returns the raw "result" member
func (p *HTTPProvider) call(
	ctx context.Context,
	method string,
	params ...any,
) (gjson.Result, error) {
	if params == nil {
		params = []any{}
	}
	reqId := uuid.NewString()
	body, err := json.Marshal(
		map[string]any{"id": reqId, "params": params},
	)
	if err != nil {
		return gjson.Result{}, err
	}
	logger := p.logger.With("method", method, "request_id", reqId)
	attempt := 0
	op := func() (gjson.Result, error) {
		attempt++
		ret, err := p.post(ctx, method, reqId, body)
		if err != nil {
			logger.Debug("bridge request failed", "attempt", attempt, "error", err)
		}
		return ret, err
	}
	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(p.maxRetries),
	)
}

func (p *HTTPProvider) post(
	ctx context.Context,
	method string,
	reqId string,
	body []byte,
) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/"+method,
		bytes.NewReader(body),
	)
	if err != nil {
		return gjson.Result{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIdHeader, reqId)
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, backoff.Permanent(ctx.Err())
		}
		return gjson.Result{}, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode >= http.StatusInternalServerError &&
		!gjson.GetBytes(respBody, "error").Exists() {
		return gjson.Result{}, fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, backoff.Permanent(
			fmt.Errorf(
				"%w: status %d, invalid JSON",
				errMalformedBridgeResponse,
				resp.StatusCode,
			),
		)
	}
	parsed := gjson.ParseBytes(respBody)
	if apiErr := parsed.Get("error"); apiErr.Exists() && apiErr.Type != gjson.Null {
		return gjson.Result{}, backoff.Permanent(&APIError{
			Code: int(apiErr.Get("code").Int()),
			Info: apiErr.Get("info").String(),
			Sign: method == "signTx" && apiErr.Get("code").Int() > 0,
		})
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, backoff.Permanent(
			fmt.Errorf("bridge returned status %d", resp.StatusCode),
		)
	}
	if id := parsed.Get("id"); id.Exists() && id.String() != reqId {
		return gjson.Result{}, backoff.Permanent(
			fmt.Errorf("%w: response id %q does not match request", errMalformedBridgeResponse, id.String()),
		)
	}
	result := parsed.Get("result")
	if !result.Exists() {
		return gjson.Result{}, backoff.Permanent(
			fmt.Errorf("%w: no result", errMalformedBridgeResponse),
		)
	}
	return result, nil
}

func (p *HTTPProvider) callBool(ctx context.Context, method string) (bool, error) {
	result, err := p.call(ctx, method)
	if err != nil {
		return false, err
	}
	if !result.IsBool() {
		return false, fmt.Errorf("%w: %s result is not a boolean", errMalformedBridgeResponse, method)
	}
	return result.Bool(), nil
}

func (p *HTTPProvider) callString(ctx context.Context, method string, params ...any) (string, error) {
	result, err := p.call(ctx, method, params...)
	if err != nil {
		return "", err
	}
	if result.Type != gjson.String {
		return "", fmt.Errorf("%w: %s result is not a string", errMalformedBridgeResponse, method)
	}
	return result.String(), nil
}

func (p *HTTPProvider) callStrings(ctx context.Context, method string) ([]string, error) {
	result, err := p.call(ctx, method)
	if err != nil {
		return nil, err
	}
	// CIP-30 getUtxos returns null when the wallet holds nothing
	if result.Type == gjson.Null {
		return []string{}, nil
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: %s result is not an array", errMalformedBridgeResponse, method)
	}
	items := result.Array()
	ret := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%w: %s item %d is not a string", errMalformedBridgeResponse, method, i)
		}
		ret = append(ret, item.String())
	}
	return ret, nil
}

func (p *HTTPProvider) IsEnabled(ctx context.Context) (bool, error) {
	return p.callBool(ctx, "isEnabled")
}

func (p *HTTPProvider) Enable(ctx context.Context) (bool, error) {
	ok, err := p.callBool(ctx, "enable")
	if errors.Is(err, ErrRejected) {
		return false, nil
	}
	return ok, err
}

func (p *HTTPProvider) GetUsedAddresses(ctx context.Context) ([]string, error) {
	return p.callStrings(ctx, "getUsedAddresses")
}

func (p *HTTPProvider) GetUnusedAddresses(ctx context.Context) ([]string, error) {
	return p.callStrings(ctx, "getUnusedAddresses")
}

func (p *HTTPProvider) GetChangeAddress(ctx context.Context) (string, error) {
	return p.callString(ctx, "getChangeAddress")
}

func (p *HTTPProvider) GetUtxos(ctx context.Context) ([]string, error) {
	return p.callStrings(ctx, "getUtxos")
}

func (p *HTTPProvider) GetBalance(ctx context.Context) (string, error) {
	return p.callString(ctx, "getBalance")
}

func (p *HTTPProvider) SignTx(
	ctx context.Context,
	txHex string,
	partialSign bool,
) (string, error) {
	return p.callString(ctx, "signTx", txHex, partialSign)
}
