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

// Package value decodes the CBOR "value" structure a wallet returns from
// getBalance and embeds in every transaction output:
//
//	value      = coin / [coin, multiasset]
//	coin       = uint / bignum
//	multiasset = { * policy_id => { * asset_name => uint / bignum } }
//
// Policies and, within each policy, asset names keep the order in which
// they were encoded.
package value

import (
	"bytes"
	"math/big"
)

// Asset is a single token quantity under a policy
type Asset struct {
	Quantity *big.Int
	Name     []byte
}

// Policy groups the assets minted under one policy id
type Policy struct {
	Id     []byte
	Assets []Asset
}

// MultiAsset is the token ledger in decoded order
type MultiAsset []Policy

// Value is a coin amount plus an optional token ledger. A Value returned by
// Decode is owned by the caller and shares no memory with the input.
type Value struct {
	MultiAsset MultiAsset
	Coin       uint64
}

// HasAssets reports whether the value carries any native tokens
func (v Value) HasAssets() bool {
	return v.MultiAsset.AssetCount() > 0
}

// AssetCount returns the number of (policy, name) pairs
func (m MultiAsset) AssetCount() int {
	n := 0
	for _, p := range m {
		n += len(p.Assets)
	}
	return n
}

// Quantity returns the amount held for (policyId, name), or nil when the
// pair is absent
func (m MultiAsset) Quantity(policyId []byte, name []byte) *big.Int {
	for _, p := range m {
		if !bytes.Equal(p.Id, policyId) {
			continue
		}
		for _, a := range p.Assets {
			if bytes.Equal(a.Name, name) {
				return new(big.Int).Set(a.Quantity)
			}
		}
	}
	return nil
}

// Each calls fn for every (policy, name, quantity) triple in decoded order.
// Iteration stops early if fn returns false.
func (m MultiAsset) Each(fn func(policyId, name []byte, quantity *big.Int) bool) {
	for _, p := range m {
		for _, a := range p.Assets {
			if !fn(p.Id, a.Name, a.Quantity) {
				return
			}
		}
	}
}
