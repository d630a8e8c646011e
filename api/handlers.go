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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/internal/version"
	"github.com/blinklabs-io/walletview/wallet"
)

const (
	apiName         = "walletview"
	requestIdHeader = "X-Request-Id"
)

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// walletErrorStatus maps a wallet query failure to an HTTP status. The
// wallet is upstream of this server, so anything it sends that does not
// decode is a bad gateway rather than a bad request.
func walletErrorStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrRejected):
		return http.StatusForbidden
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeWalletError(
	w http.ResponseWriter,
	r *http.Request,
	what string,
	err error,
) {
	status := walletErrorStatus(err)
	s.logger.Warn(
		"wallet query failed",
		"query", what,
		"status", status,
		"request_id", r.Header.Get(requestIdHeader),
		"error", err,
	)
	writeError(w, status, what+": "+err.Error())
}

// withRequestId tags each request with an id, keeping one supplied by the
// caller
func (s *Server) withRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get(requestIdHeader)
		if reqId == "" {
			reqId = uuid.NewString()
			r.Header.Set(requestIdHeader, reqId)
		}
		w.Header().Set(requestIdHeader, reqId)
		s.logger.Debug(
			"API request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", reqId,
		)
		next.ServeHTTP(w, r)
	})
}

// backendOrError returns the backend, answering 503 when there is none
func (s *Server) backendOrError(w http.ResponseWriter) Backend {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, "no wallet connected")
		return nil
	}
	return s.backend
}

// handleRoot handles GET / and returns API metadata.
func (s *Server) handleRoot(
	w http.ResponseWriter,
	r *http.Request,
) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "no such endpoint")
		return
	}
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    apiName,
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	resp := HealthResponse{IsHealthy: true}
	if s.backend != nil {
		resp.Connected = true
		resp.Provider = s.backend.Provider()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBalance handles GET /api/v0/wallet/balance.
func (s *Server) handleBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	backend := s.backendOrError(w)
	if backend == nil {
		return
	}
	b, err := backend.Balance(r.Context())
	if err != nil {
		s.writeWalletError(w, r, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Lovelace: b.Coin,
		Ada:      balance.FormatAda(b.Coin),
		Assets:   b.Tokens,
	})
}

// handleRawBalance handles GET /api/v0/wallet/balance/raw.
func (s *Server) handleRawBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	backend := s.backendOrError(w)
	if backend == nil {
		return
	}
	raw, err := backend.RawBalance(r.Context())
	if err != nil {
		s.writeWalletError(w, r, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, RawBalanceResponse{Cbor: raw})
}

func (s *Server) handleUsedAddresses(
	w http.ResponseWriter,
	r *http.Request,
) {
	s.writeAddressList(w, r, "used", Backend.UsedAddresses)
}

func (s *Server) handleUnusedAddresses(
	w http.ResponseWriter,
	r *http.Request,
) {
	s.writeAddressList(w, r, "unused", Backend.UnusedAddresses)
}

func (s *Server) writeAddressList(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	fetch func(Backend, context.Context) ([]string, error),
) {
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	backend := s.backendOrError(w)
	if backend == nil {
		return
	}
	addrs, err := fetch(backend, r.Context())
	if err != nil {
		s.writeWalletError(w, r, kind+" addresses", err)
		return
	}
	writeJSON(w, http.StatusOK, AddressListResponse{
		Kind:      kind,
		Addresses: paginate(w, addrs, params),
	})
}

// handleChangeAddress handles GET /api/v0/wallet/addresses/change.
func (s *Server) handleChangeAddress(
	w http.ResponseWriter,
	r *http.Request,
) {
	backend := s.backendOrError(w)
	if backend == nil {
		return
	}
	addr, err := backend.ChangeAddress(r.Context())
	if err != nil {
		s.writeWalletError(w, r, "change address", err)
		return
	}
	writeJSON(w, http.StatusOK, AddressListResponse{
		Kind:      "change",
		Addresses: []string{addr},
	})
}

// handleUtxos handles GET /api/v0/wallet/utxos. Supports count, page and
// order query parameters.
func (s *Server) handleUtxos(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	backend := s.backendOrError(w)
	if backend == nil {
		return
	}
	utxos, err := backend.Utxos(r.Context())
	if err != nil {
		s.writeWalletError(w, r, "utxos", err)
		return
	}
	utxos = paginate(w, utxos, params)
	ret := make([]UtxoResponse, 0, len(utxos))
	for _, u := range utxos {
		resp, err := s.utxoResponse(u)
		if err != nil {
			s.writeWalletError(w, r, "utxos", err)
			return
		}
		ret = append(ret, resp)
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleFingerprint handles GET /api/v0/assets/{policy}/{name}/fingerprint
// and the empty-name form without {name}.
func (s *Server) handleFingerprint(
	w http.ResponseWriter,
	r *http.Request,
) {
	policyHex := strings.ToLower(r.PathValue("policy"))
	nameHex := strings.ToLower(r.PathValue("name"))
	policyId, err := hexutil.Decode(policyHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "policy: "+err.Error())
		return
	}
	name, err := hexutil.Decode(nameHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "asset name: "+err.Error())
		return
	}
	fp, err := s.config.Fingerprinter.Fingerprint(policyId, name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, FingerprintResponse{
		Policy:      policyHex,
		AssetName:   nameHex,
		DisplayName: asset.DisplayName(nameHex),
		Fingerprint: fp.String(),
	})
}

// handleAddress handles GET /api/v0/addresses/{address}. The address may
// be given as hex or bech32.
func (s *Server) handleAddress(
	w http.ResponseWriter,
	r *http.Request,
) {
	input := r.PathValue("address")
	var addr address.Address
	var err error
	if raw, hexErr := hexutil.Decode(input); hexErr == nil {
		addr, err = address.Decode(raw)
	} else {
		addr, err = s.config.AddressCodec.DecodeText(input)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.addressResponse(addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
