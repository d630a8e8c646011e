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

package wallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/walletview/wallet"
)

type bridgeRequest struct {
	Id     string `json:"id"`
	Params []any  `json:"params"`
}

// newBridge serves CIP-30 methods from results, keyed by method name. A
// string value starting with "error:" is sent as a raw error object.
func newBridge(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req bridgeRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, req.Id, r.Header.Get("X-Request-Id"))
		method := strings.TrimPrefix(r.URL.Path, "/")
		result, ok := results[method]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if errObj, isErr := strings.CutPrefix(result, "error:"); isErr {
			_, _ = w.Write([]byte(`{"id":"` + req.Id + `","error":` + errObj + `}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + req.Id + `","result":` + result + `}`))
	}))
}

func newTestHTTPProvider(t *testing.T, url string) *wallet.HTTPProvider {
	t.Helper()
	p, err := wallet.NewHTTPProvider(wallet.HTTPProviderConfig{
		BaseURL:    url + "/",
		MaxRetries: 2,
	})
	require.NoError(t, err)
	return p
}

func TestHTTPProviderSession(t *testing.T) {
	srv := newBridge(t, map[string]string{
		"isEnabled":          `false`,
		"enable":             `true`,
		"getBalance":         `"` + testBalanceHex + `"`,
		"getUsedAddresses":   `["` + testAddrHex + `"]`,
		"getUnusedAddresses": `[]`,
		"getChangeAddress":   `"` + testEntHex + `"`,
		"getUtxos":           `null`,
		"signTx":             `"a0"`,
	})
	defer srv.Close()

	c := newTestClient(t, wallet.Config{})
	s, err := c.Connect(context.Background(), newTestHTTPProvider(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "bridge", s.Provider())

	b, err := s.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), b.Coin)
	require.Len(t, b.Tokens, 1)

	used, err := s.UsedAddresses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testAddrText}, used)

	unused, err := s.UnusedAddresses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, unused)

	change, err := s.ChangeAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testEntText, change)

	utxos, err := s.Utxos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, utxos)

	witness, err := s.SignTx(context.Background(), "84a0", false)
	require.NoError(t, err)
	assert.Equal(t, "a0", witness)
}

func TestHTTPProviderEnableRefused(t *testing.T) {
	srv := newBridge(t, map[string]string{
		"isEnabled": `false`,
		"enable":    `error:{"code":-3,"info":"user refused"}`,
	})
	defer srv.Close()
	c := newTestClient(t, wallet.Config{})
	_, err := c.Connect(context.Background(), newTestHTTPProvider(t, srv.URL))
	require.ErrorIs(t, err, wallet.ErrRejected)
}

func TestHTTPProviderAPIError(t *testing.T) {
	srv := newBridge(t, map[string]string{
		"isEnabled":  `true`,
		"getBalance": `error:{"code":-2,"info":"internal"}`,
		"signTx":     `error:{"code":2,"info":"declined"}`,
	})
	defer srv.Close()
	c := newTestClient(t, wallet.Config{})
	s, err := c.Connect(context.Background(), newTestHTTPProvider(t, srv.URL))
	require.NoError(t, err)

	_, err = s.Balance(context.Background())
	require.ErrorIs(t, err, wallet.ErrProvider)
	var apiErr *wallet.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, wallet.APIErrorInternalError, apiErr.Code)
	assert.Equal(t, "internal", apiErr.Info)

	_, err = s.SignTx(context.Background(), "84a0", false)
	require.ErrorIs(t, err, wallet.ErrRejected)
}

func TestHTTPProviderMalformedResult(t *testing.T) {
	srv := newBridge(t, map[string]string{
		"isEnabled":        `true`,
		"getBalance":       `42`,
		"getUsedAddresses": `["01", 7]`,
	})
	defer srv.Close()
	p := newTestHTTPProvider(t, srv.URL)
	_, err := p.GetBalance(context.Background())
	require.Error(t, err)
	_, err = p.GetUsedAddresses(context.Background())
	require.Error(t, err)
	_, err = p.GetChangeAddress(context.Background())
	require.Error(t, err)
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req bridgeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + req.Id + `","result":true}`))
	}))
	defer srv.Close()
	p := newTestHTTPProvider(t, srv.URL)
	ok, err := p.IsEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	p := newTestHTTPProvider(t, srv.URL)
	_, err := p.IsEnabled(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewHTTPProviderRequiresURL(t *testing.T) {
	_, err := wallet.NewHTTPProvider(wallet.HTTPProviderConfig{})
	require.Error(t, err)
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: yamlwallet
balance: "`+testBalanceHex+`"
changeAddress: "`+testEntHex+`"
usedAddresses:
  - "`+testAddrHex+`"
enabled: true
`), 0o600))

	p, err := wallet.LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "yamlwallet", p.Name())
	enabled, err := p.IsEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)

	c := newTestClient(t, wallet.Config{})
	s, err := c.Connect(context.Background(), p)
	require.NoError(t, err)
	change, err := s.ChangeAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testEntText, change)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: x\n"), 0o600))
	_, err = wallet.LoadFixture(empty)
	require.Error(t, err)

	_, err = wallet.LoadFixture(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
