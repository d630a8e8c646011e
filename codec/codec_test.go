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

package codec

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// CIP-19 reward address test vector
const (
	testStakeHex    = "e1337b62cfff6403a06a3acbc34f8c46003c69fe79a3628cefa9c47251"
	testStakeBech32 = "stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw"
)

func TestHashSizes(t *testing.T) {
	p := New()
	assert.Len(t, p.Hash160([]byte("walletview")), Hash160Size)
	assert.Len(t, p.Hash224([]byte("walletview")), Hash224Size)
	assert.Len(t, p.Hash160(nil), Hash160Size)
}

func TestHash224MatchesBlake2b(t *testing.T) {
	p := New()
	data := []byte("payment key")
	h, err := blake2b.New(28, nil)
	require.NoError(t, err)
	h.Write(data)
	assert.Equal(t, h.Sum(nil), p.Hash224(data))
}

func TestHashDeterministic(t *testing.T) {
	p := New()
	a := p.Hash160([]byte{1, 2, 3})
	b := p.Hash160([]byte{1, 2, 3})
	c := p.Hash160([]byte{1, 2, 4})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestBech32EncodeReferenceVector(t *testing.T) {
	p := New()
	raw, err := hex.DecodeString(testStakeHex)
	require.NoError(t, err)
	got, err := p.Bech32Encode("stake", raw)
	require.NoError(t, err)
	assert.Equal(t, testStakeBech32, got)
}

func TestBech32Decode(t *testing.T) {
	p := New()
	want, err := hex.DecodeString(testStakeHex)
	require.NoError(t, err)

	hrp, data, err := p.Bech32Decode(testStakeBech32)
	require.NoError(t, err)
	assert.Equal(t, "stake", hrp)
	assert.Equal(t, want, data)

	// Uppercase form is equally valid
	hrp, data, err = p.Bech32Decode(strings.ToUpper(testStakeBech32))
	require.NoError(t, err)
	assert.Equal(t, "stake", hrp)
	assert.Equal(t, want, data)
}

func TestBech32DecodeErrors(t *testing.T) {
	p := New()
	tests := []struct {
		name  string
		input string
	}{
		{name: "mixed case", input: "Stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgw"},
		{name: "bad checksum", input: "stake1uyehkck0lajq8gr28t9uxnuvgcqrc6070x3k9r8048z8y5gh6ffgq"},
		{name: "no separator", input: "stakeuyehkck0lajq"},
		{name: "too short", input: "a1b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := p.Bech32Decode(tc.input)
			require.ErrorIs(t, err, ErrInvalidBech32)
		})
	}
}

func TestBech32EncodeEmptyPrefix(t *testing.T) {
	_, err := New().Bech32Encode("", []byte{1})
	require.ErrorIs(t, err, ErrInvalidBech32)
}

func TestStandardImplementsProvider(t *testing.T) {
	var _ Provider = New()
}
