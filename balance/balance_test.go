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

package balance

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPolicyA = "7eae28af2208be856f7a119668ae52a49b73725e326dc16579dcc373"
	testPolicyB = "1e349c9bdea19fd6c147626a5260bc44b71635f398b67c59881df209"
)

// [1000000, {policyA: {"NFT": 1, "PATATE\x00T": 5}, policyB: {h'': 2^64}}]
var testBalanceHex = "82" + "1a000f4240" +
	"a2" +
	"581c" + testPolicyA +
	"a2" +
	"43" + "4e4654" + "01" +
	"48" + "504154415445" + "0054" + "05" +
	"581c" + testPolicyB +
	"a1" +
	"40" + "c249010000000000000000"

func newTestResolver() *Resolver {
	return NewResolver(asset.NewFingerprinter(codec.New()))
}

func TestResolveCoinOnly(t *testing.T) {
	r := newTestResolver()
	b, err := r.ResolveHex("1a000f4240")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), b.Coin)
	require.NotNil(t, b.Tokens)
	assert.Empty(t, b.Tokens)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lovelace":1000000,"assets":[]}`, string(out))
}

func TestResolveTokens(t *testing.T) {
	r := newTestResolver()
	b, err := r.ResolveHex(testBalanceHex)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), b.Coin)
	require.Len(t, b.Tokens, 3)

	nft := b.Tokens[0]
	assert.Equal(t, testPolicyA+"4e4654", nft.Unit)
	assert.Equal(t, testPolicyA, nft.Policy)
	assert.Equal(t, "NFT", nft.Name)
	assert.Equal(t, "1", nft.Quantity)
	assert.True(t, strings.HasPrefix(nft.Fingerprint, "asset1"))

	// Display name stops at the null byte, the unit keeps the full name
	patate := b.Tokens[1]
	assert.Equal(t, testPolicyA+"5041544154450054", patate.Unit)
	assert.Equal(t, "PATATE", patate.Name)
	assert.Equal(t, "5", patate.Quantity)

	// Empty asset name under the second policy, quantity past 64 bits
	empty := b.Tokens[2]
	assert.Equal(t, testPolicyB, empty.Unit)
	assert.Equal(t, "", empty.Name)
	assert.Equal(t, "18446744073709551616", empty.Quantity)
	assert.Equal(t, "asset1uyuxku60yqe57nusqzjx38aan3f2wq6s93f6ea", empty.Fingerprint)
}

func TestResolveUnitComposition(t *testing.T) {
	r := newTestResolver()
	b, err := r.ResolveHex(testBalanceHex)
	require.NoError(t, err)
	for _, tok := range b.Tokens {
		require.True(t, strings.HasPrefix(tok.Unit, tok.Policy))
		assert.Len(t, tok.Policy, 56)
		name, err := hex.DecodeString(tok.Unit[len(tok.Policy):])
		require.NoError(t, err)
		assert.Equal(t, asset.DisplayNameBytes(name), tok.Name)
	}
}

func TestResolveFingerprintUsesFullName(t *testing.T) {
	r := newTestResolver()
	b, err := r.ResolveHex(testBalanceHex)
	require.NoError(t, err)
	f := asset.NewFingerprinter(codec.New())
	policy, err := hex.DecodeString(testPolicyA)
	require.NoError(t, err)
	want, err := f.Fingerprint(policy, []byte("PATATE\x00T"))
	require.NoError(t, err)
	assert.Equal(t, want.String(), b.Tokens[1].Fingerprint)
}

func TestResolveErrors(t *testing.T) {
	r := newTestResolver()
	_, err := r.ResolveHex("1a000f42")
	require.ErrorIs(t, err, value.ErrMalformedValue)
	require.ErrorIs(t, err, hexutil.ErrTruncatedInput)

	_, err = r.ResolveHex("xyz")
	require.ErrorIs(t, err, hexutil.ErrMalformedHex)

	// 27-byte policy id
	_, err = r.ResolveHex("82" + "01" + "a1" + "581b" + testPolicyA[:54] + "a0")
	require.ErrorIs(t, err, value.ErrMalformedValue)
	require.ErrorIs(t, err, asset.ErrInvalidPolicyLength)
}

func TestResolveConcurrent(t *testing.T) {
	r := newTestResolver()
	want, err := r.ResolveHex(testBalanceHex)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				got, err := r.ResolveHex(testBalanceHex)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

func TestFind(t *testing.T) {
	r := newTestResolver()
	b, err := r.ResolveHex(testBalanceHex)
	require.NoError(t, err)
	tok, ok := b.Find(testPolicyA + "4e4654")
	require.True(t, ok)
	assert.Equal(t, "NFT", tok.Name)
	_, ok = b.Find(testPolicyA)
	assert.False(t, ok)
}

func TestFormatAda(t *testing.T) {
	assert.Equal(t, "1.000000", FormatAda(1000000))
	assert.Equal(t, "0.000001", FormatAda(1))
	assert.Equal(t, "0.000000", FormatAda(0))
	assert.Equal(t, "12.345678", FormatAda(12345678))
}
