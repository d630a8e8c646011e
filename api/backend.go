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

	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/utxo"
	"github.com/blinklabs-io/walletview/wallet"
)

// Backend is the wallet data source the API server queries. This decouples
// the HTTP server from the concrete wallet session and enables testing with
// mock implementations.
type Backend interface {
	// Provider names the connected wallet
	Provider() string

	// Balance returns the resolved balance
	Balance(ctx context.Context) (balance.Balance, error)

	// RawBalance returns the hex CBOR balance as sent by the wallet
	RawBalance(ctx context.Context) (string, error)

	UsedAddresses(ctx context.Context) ([]string, error)
	UnusedAddresses(ctx context.Context) ([]string, error)
	ChangeAddress(ctx context.Context) (string, error)

	// Utxos returns the decoded unspent outputs
	Utxos(ctx context.Context) ([]utxo.Utxo, error)
}

var _ Backend = (*wallet.Session)(nil)
