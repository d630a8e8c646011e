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

// Package balance turns a wallet's serialized balance into the display
// model: the lovelace amount plus one entry per native token.
package balance

import (
	"fmt"
	"math/big"

	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/value"
)

const lovelacePerAda = 1_000_000

// TokenEntry is the display record for one native token
type TokenEntry struct {
	// Unit is hex(policy id) followed by hex(asset name)
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
	Policy      string `json:"policy"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

// Balance is the resolved wallet balance
type Balance struct {
	Tokens []TokenEntry `json:"assets"`
	Coin   uint64       `json:"lovelace"`
}

// Resolver builds Balance values. It holds no per-call state and is safe
// for concurrent use.
type Resolver struct {
	fingerprinter *asset.Fingerprinter
}

// NewResolver returns a Resolver that derives fingerprints with f
func NewResolver(f *asset.Fingerprinter) *Resolver {
	if f == nil {
		panic("NewResolver: fingerprinter must not be nil")
	}
	return &Resolver{fingerprinter: f}
}

// Resolve decodes raw once and emits a TokenEntry per (policy, name) pair
// in decoded order. Tokens is never nil.
func (r *Resolver) Resolve(raw []byte) (Balance, error) {
	v, err := value.Decode(raw)
	if err != nil {
		return Balance{}, err
	}
	return r.FromValue(v)
}

// ResolveHex is Resolve for the hex string a wallet returns from getBalance
func (r *Resolver) ResolveHex(s string) (Balance, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return Balance{}, err
	}
	return r.Resolve(raw)
}

// FromValue builds the display model from an already decoded value
func (r *Resolver) FromValue(v value.Value) (Balance, error) {
	ret := Balance{
		Coin:   v.Coin,
		Tokens: make([]TokenEntry, 0, v.MultiAsset.AssetCount()),
	}
	var err error
	v.MultiAsset.Each(func(policyId, name []byte, quantity *big.Int) bool {
		var entry TokenEntry
		entry, err = r.entry(policyId, name, quantity)
		if err != nil {
			return false
		}
		ret.Tokens = append(ret.Tokens, entry)
		return true
	})
	if err != nil {
		return Balance{}, err
	}
	return ret, nil
}

func (r *Resolver) entry(
	policyId []byte,
	name []byte,
	quantity *big.Int,
) (TokenEntry, error) {
	fp, err := r.fingerprinter.Fingerprint(policyId, name)
	if err != nil {
		return TokenEntry{}, fmt.Errorf(
			"fingerprint for policy %x: %w",
			policyId,
			err,
		)
	}
	policyHex := hexutil.Encode(policyId)
	nameHex := hexutil.Encode(name)
	return TokenEntry{
		Unit:        policyHex + nameHex,
		Quantity:    quantity.String(),
		Policy:      policyHex,
		Name:        asset.DisplayName(nameHex),
		Fingerprint: fp.String(),
	}, nil
}

// Find returns the entry with the given unit
func (b Balance) Find(unit string) (TokenEntry, bool) {
	for _, t := range b.Tokens {
		if t.Unit == unit {
			return t, true
		}
	}
	return TokenEntry{}, false
}

// FormatAda renders a lovelace amount as ADA with six decimal places
func FormatAda(lovelace uint64) string {
	return fmt.Sprintf("%d.%06d", lovelace/lovelacePerAda, lovelace%lovelacePerAda)
}
