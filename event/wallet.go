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

package event

const (
	WalletConnectedEventType   = EventType("wallet.connected")
	BalanceResolvedEventType   = EventType("wallet.balance_resolved")
	BalanceChangedEventType    = EventType("wallet.balance_changed")
	AddressesResolvedEventType = EventType("wallet.addresses_resolved")
	UtxosResolvedEventType     = EventType("wallet.utxos_resolved")
)

// WalletEventTypes lists every event type published for a wallet session
func WalletEventTypes() []EventType {
	return []EventType{
		WalletConnectedEventType,
		BalanceResolvedEventType,
		BalanceChangedEventType,
		AddressesResolvedEventType,
		UtxosResolvedEventType,
	}
}

// WalletConnectedEvent is emitted once a session has been established
type WalletConnectedEvent struct {
	// Provider names the wallet backend
	Provider string `json:"provider"`
	// AlreadyEnabled is true when no enable prompt was needed
	AlreadyEnabled bool `json:"already_enabled"`
}

// BalanceResolvedEvent is emitted after every successful balance query
type BalanceResolvedEvent struct {
	Lovelace   uint64 `json:"lovelace"`
	AssetCount int    `json:"asset_count"`
}

// BalanceChangedEvent is emitted by a watcher when the resolved balance
// differs from the previous poll
type BalanceChangedEvent struct {
	PreviousLovelace uint64 `json:"previous_lovelace"`
	Lovelace         uint64 `json:"lovelace"`
	PreviousAssets   int    `json:"previous_asset_count"`
	AssetCount       int    `json:"asset_count"`
}

// AddressesResolvedEvent is emitted after an address query. Kind is one of
// "used", "unused" or "change".
type AddressesResolvedEvent struct {
	Kind      string   `json:"kind"`
	Addresses []string `json:"addresses"`
}

// UtxosResolvedEvent is emitted after a utxo query
type UtxosResolvedEvent struct {
	Count int `json:"count"`
}
