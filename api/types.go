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
	"time"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/event"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Provider  string `json:"provider,omitempty"`
	IsHealthy bool   `json:"is_healthy"`
	Connected bool   `json:"connected"`
}

// BalanceResponse is returned by GET /api/v0/wallet/balance.
type BalanceResponse struct {
	Ada      string               `json:"ada"`
	Assets   []balance.TokenEntry `json:"assets"`
	Lovelace uint64               `json:"lovelace"`
}

// RawBalanceResponse is returned by GET /api/v0/wallet/balance/raw.
type RawBalanceResponse struct {
	Cbor string `json:"cbor"`
}

// AddressListResponse is returned by the wallet address endpoints.
type AddressListResponse struct {
	Kind      string   `json:"kind"`
	Addresses []string `json:"addresses"`
}

// AmountResponse is one unit and quantity of an output value.
type AmountResponse struct {
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// UtxoResponse represents one unspent output.
type UtxoResponse struct {
	Ref       string           `json:"ref"`
	TxHash    string           `json:"tx_hash"`
	Address   string           `json:"address"`
	DatumHash *string          `json:"datum_hash"`
	Amount    []AmountResponse `json:"amount"`
	Index     uint32           `json:"output_index"`
	// InlineDatum and ReferenceScript are hex CBOR
	InlineDatum     *string `json:"inline_datum"`
	ReferenceScript *string `json:"reference_script"`
}

// AddressResponse is returned by GET /api/v0/addresses/{address}.
type AddressResponse struct {
	Bech32        string           `json:"bech32"`
	Hex           string           `json:"hex"`
	Type          string           `json:"type"`
	Payment       *string          `json:"payment_credential"`
	Stake         *string          `json:"stake_credential"`
	Pointer       *address.Pointer `json:"pointer"`
	Network       uint8            `json:"network"`
	PaymentScript bool             `json:"payment_is_script"`
	StakeScript   bool             `json:"stake_is_script"`
}

// FingerprintResponse is returned by the asset fingerprint endpoints.
type FingerprintResponse struct {
	Policy      string `json:"policy"`
	AssetName   string `json:"asset_name"`
	DisplayName string `json:"display_name"`
	Fingerprint string `json:"fingerprint"`
}

// EventMessage is one websocket frame on /api/v0/events.
type EventMessage struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      any             `json:"data"`
	Type      event.EventType `json:"type"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
