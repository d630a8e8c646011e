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

package value

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enc(t *testing.T, v any) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	require.NoError(t, err)
	return b
}

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func mapHead(n int) []byte {
	return []byte{0xa0 | byte(n)}
}

func testPolicy(b byte) []byte {
	return bytes.Repeat([]byte{b}, asset.PolicyIdLength)
}

func TestDecodeCoinOnly(t *testing.T) {
	v, err := DecodeHex("1a000f4240")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), v.Coin)
	assert.Empty(t, v.MultiAsset)
	assert.False(t, v.HasAssets())

	v, err = DecodeHex("00")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.Coin)

	// Largest coin that still fits
	v, err = DecodeHex("1bffffffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v.Coin)

	// Bignum coin that fits in 64 bits
	v, err = DecodeHex("c24101")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Coin)

	// Tag 2 with a one-byte tag argument instead of the short head
	v, err = DecodeHex("d802430f4240")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), v.Coin)
}

func TestDecodeMultiAsset(t *testing.T) {
	policy := testPolicy(0x1c)
	data := cat(
		[]byte{0x82},
		enc(t, uint64(1000000)),
		mapHead(1),
		enc(t, policy),
		mapHead(1),
		enc(t, []byte("NFT")),
		enc(t, uint64(1)),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), v.Coin)
	require.Len(t, v.MultiAsset, 1)
	assert.Equal(t, policy, v.MultiAsset[0].Id)
	require.Len(t, v.MultiAsset[0].Assets, 1)
	assert.Equal(t, []byte("NFT"), v.MultiAsset[0].Assets[0].Name)
	assert.Equal(t, int64(1), v.MultiAsset[0].Assets[0].Quantity.Int64())
	assert.True(t, v.HasAssets())
	assert.Equal(t, 1, v.MultiAsset.AssetCount())
}

func TestDecodePreservesOrder(t *testing.T) {
	// Keys deliberately out of canonical order
	data := cat(
		[]byte{0x82},
		enc(t, uint64(5)),
		mapHead(2),
		enc(t, testPolicy(0xbb)),
		mapHead(3),
		enc(t, []byte("zed")),
		enc(t, uint64(1)),
		enc(t, []byte("a")),
		enc(t, uint64(2)),
		enc(t, []byte{}),
		enc(t, uint64(3)),
		enc(t, testPolicy(0xaa)),
		mapHead(1),
		enc(t, []byte("m")),
		enc(t, uint64(4)),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, v.MultiAsset, 2)
	assert.Equal(t, testPolicy(0xbb), v.MultiAsset[0].Id)
	assert.Equal(t, testPolicy(0xaa), v.MultiAsset[1].Id)

	var names []string
	var quantities []int64
	v.MultiAsset.Each(func(_, name []byte, qty *big.Int) bool {
		names = append(names, string(name))
		quantities = append(quantities, qty.Int64())
		return true
	})
	assert.Equal(t, []string{"zed", "a", "", "m"}, names)
	assert.Equal(t, []int64{1, 2, 3, 4}, quantities)
}

func TestDecodeBigQuantity(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	data := cat(
		[]byte{0x82},
		enc(t, uint64(2)),
		mapHead(1),
		enc(t, testPolicy(0x01)),
		mapHead(2),
		enc(t, []byte("A")),
		enc(t, huge),
		enc(t, []byte("B")),
		// 2^64 spelled out as a bignum
		mustHex(t, "c249010000000000000000"),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, huge.Cmp(v.MultiAsset.Quantity(testPolicy(0x01), []byte("A"))))
	assert.Equal(
		t,
		"18446744073709551616",
		v.MultiAsset.Quantity(testPolicy(0x01), []byte("B")).String(),
	)
	assert.Nil(t, v.MultiAsset.Quantity(testPolicy(0x01), []byte("C")))
}

func TestDecodeIndefiniteLength(t *testing.T) {
	data := cat(
		[]byte{0x9f},
		enc(t, uint64(7)),
		[]byte{0xbf},
		enc(t, testPolicy(0x02)),
		[]byte{0xbf},
		enc(t, []byte("x")),
		enc(t, uint64(9)),
		[]byte{0xff},
		[]byte{0xff},
		[]byte{0xff},
	)
	v, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v.Coin)
	assert.Equal(t, int64(9), v.MultiAsset.Quantity(testPolicy(0x02), []byte("x")).Int64())
}

func TestDecodeEmptyMultiAsset(t *testing.T) {
	v, err := Decode(cat([]byte{0x82}, enc(t, uint64(3)), mapHead(0)))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v.Coin)
	assert.False(t, v.HasAssets())
}

func TestDecodeOwnsMemory(t *testing.T) {
	data := cat(
		[]byte{0x82},
		enc(t, uint64(1)),
		mapHead(1),
		enc(t, testPolicy(0x03)),
		mapHead(1),
		enc(t, []byte("abc")),
		enc(t, uint64(1)),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, testPolicy(0x03), v.MultiAsset[0].Id)
	assert.Equal(t, []byte("abc"), v.MultiAsset[0].Assets[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	longName := bytes.Repeat([]byte{0x41}, asset.MaxAssetNameLength+1)
	tests := []struct {
		name     string
		data     func(t *testing.T) []byte
		wantErrs []error
	}{
		{
			name:     "empty",
			data:     func(*testing.T) []byte { return nil },
			wantErrs: []error{ErrMalformedValue, hexutil.ErrTruncatedInput},
		},
		{
			name:     "text at top level",
			data:     func(t *testing.T) []byte { return enc(t, "ada") },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "negative coin",
			data:     func(*testing.T) []byte { return []byte{0x20} },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "coin overflows 64 bits",
			data:     func(t *testing.T) []byte { return mustHex(t, "c249010000000000000000") },
			wantErrs: []error{ErrMalformedValue, ErrQuantityOverflow},
		},
		{
			name:     "coin overflows 64 bits in long tag form",
			data:     func(t *testing.T) []byte { return mustHex(t, "d80249010000000000000000") },
			wantErrs: []error{ErrMalformedValue, ErrQuantityOverflow},
		},
		{
			name:     "negative bignum coin in long tag form",
			data:     func(t *testing.T) []byte { return mustHex(t, "d8034101") },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "unknown tag",
			data:     func(t *testing.T) []byte { return mustHex(t, "c11a000f4240") },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "array of three",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x83}, enc(t, uint64(1)), mapHead(0), enc(t, uint64(1)))
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "array of one",
			data:     func(t *testing.T) []byte { return cat([]byte{0x81}, enc(t, uint64(1))) },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "indefinite array of one",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x9f}, enc(t, uint64(1)), []byte{0xff})
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "indefinite array of three",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x9f}, enc(t, uint64(1)), mapHead(0), enc(t, uint64(1)), []byte{0xff})
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "multiasset is an array",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x82}, enc(t, uint64(1)), []byte{0x80})
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "policy 27 bytes",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, bytes.Repeat([]byte{0x01}, 27)), mapHead(0),
				)
			},
			wantErrs: []error{ErrMalformedValue, asset.ErrInvalidPolicyLength},
		},
		{
			name: "policy 29 bytes",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, bytes.Repeat([]byte{0x01}, 29)), mapHead(0),
				)
			},
			wantErrs: []error{ErrMalformedValue, asset.ErrInvalidPolicyLength},
		},
		{
			name: "policy is text",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, string(testPolicy(0x41))), mapHead(0),
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "asset name 33 bytes",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), mapHead(1),
					enc(t, longName), enc(t, uint64(1)),
				)
			},
			wantErrs: []error{ErrMalformedValue, asset.ErrInvalidAssetNameLength},
		},
		{
			name: "asset map is an array",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), []byte{0x80},
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "negative quantity",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), mapHead(1),
					enc(t, []byte("A")), []byte{0x20},
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "negative bignum quantity",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), mapHead(1),
					enc(t, []byte("A")), mustHex(t, "c34101"),
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "duplicate policy",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(2),
					enc(t, testPolicy(0x01)), mapHead(0),
					enc(t, testPolicy(0x01)), mapHead(0),
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "duplicate asset name",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), mapHead(2),
					enc(t, []byte("A")), enc(t, uint64(1)),
					enc(t, []byte("A")), enc(t, uint64(2)),
				)
			},
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name: "truncated policy id",
			data: func(t *testing.T) []byte {
				full := cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					enc(t, testPolicy(0x01)), mapHead(0),
				)
				return full[:12]
			},
			wantErrs: []error{ErrMalformedValue, hexutil.ErrTruncatedInput},
		},
		{
			name: "truncated coin argument",
			data: func(t *testing.T) []byte { return mustHex(t, "1a000f") },
			wantErrs: []error{ErrMalformedValue, hexutil.ErrTruncatedInput},
		},
		{
			name: "map length exceeds input",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x82}, enc(t, uint64(1)), []byte{0xb8, 0x40})
			},
			wantErrs: []error{ErrMalformedValue, hexutil.ErrTruncatedInput},
		},
		{
			name: "unterminated indefinite map",
			data: func(t *testing.T) []byte {
				return cat([]byte{0x82}, enc(t, uint64(1)), []byte{0xbf})
			},
			wantErrs: []error{ErrMalformedValue, hexutil.ErrTruncatedInput},
		},
		{
			name: "map length beyond addressable",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)),
					mustHex(t, "bbffffffffffffffff"),
				)
			},
			wantErrs: []error{ErrMalformedValue, ErrQuantityOverflow},
		},
		{
			name: "policy length beyond addressable",
			data: func(t *testing.T) []byte {
				return cat(
					[]byte{0x82}, enc(t, uint64(1)), mapHead(1),
					mustHex(t, "5bffffffffffffffff"),
				)
			},
			wantErrs: []error{ErrMalformedValue, ErrQuantityOverflow},
		},
		{
			name: "bignum length beyond addressable",
			data: func(t *testing.T) []byte {
				return mustHex(t, "c25bffffffffffffffff")
			},
			wantErrs: []error{ErrMalformedValue, ErrQuantityOverflow},
		},
		{
			name: "reserved additional info",
			data: func(*testing.T) []byte { return []byte{0x1c} },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "stray break",
			data:     func(*testing.T) []byte { return []byte{0xff} },
			wantErrs: []error{ErrMalformedValue},
		},
		{
			name:     "trailing bytes",
			data:     func(t *testing.T) []byte { return mustHex(t, "1a000f424000") },
			wantErrs: []error{ErrMalformedValue},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Decode(tc.data(t))
			require.Error(t, err)
			for _, want := range tc.wantErrs {
				assert.ErrorIs(t, err, want)
			}
			assert.Equal(t, Value{}, v)
		})
	}
}

func TestDecodeHexMalformed(t *testing.T) {
	_, err := DecodeHex("1a000f424")
	require.ErrorIs(t, err, hexutil.ErrMalformedHex)
	_, err = DecodeHex("zz")
	require.ErrorIs(t, err, hexutil.ErrMalformedHex)
}

func TestQuantityReturnsCopy(t *testing.T) {
	data := cat(
		[]byte{0x82},
		enc(t, uint64(1)),
		mapHead(1),
		enc(t, testPolicy(0x04)),
		mapHead(1),
		enc(t, []byte("Q")),
		enc(t, uint64(10)),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	q := v.MultiAsset.Quantity(testPolicy(0x04), []byte("Q"))
	q.SetInt64(99)
	assert.Equal(t, int64(10), v.MultiAsset.Quantity(testPolicy(0x04), []byte("Q")).Int64())
}

func TestEachStopsEarly(t *testing.T) {
	data := cat(
		[]byte{0x82},
		enc(t, uint64(1)),
		mapHead(1),
		enc(t, testPolicy(0x05)),
		mapHead(2),
		enc(t, []byte("A")),
		enc(t, uint64(1)),
		enc(t, []byte("B")),
		enc(t, uint64(2)),
	)
	v, err := Decode(data)
	require.NoError(t, err)
	calls := 0
	v.MultiAsset.Each(func(_, _ []byte, _ *big.Int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
