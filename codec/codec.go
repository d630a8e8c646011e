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

// Package codec provides the hashing and human-readable text encoding
// primitives shared by address rendering and asset fingerprinting.
//
// A Provider is constructed once by the caller and handed to the components
// that need it. It holds no mutable state and is safe for concurrent use.
package codec

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	// Hash160Size is the digest size used for asset fingerprints (CIP-14)
	Hash160Size = 20
	// Hash224Size is the digest size of credential hashes
	Hash224Size = 28
)

var ErrInvalidBech32 = errors.New("invalid bech32 text")

// Provider is the capability handed to address and fingerprint code.
type Provider interface {
	// Hash160 returns the blake2b-160 digest of data
	Hash160(data []byte) []byte
	// Hash224 returns the blake2b-224 digest of data
	Hash224(data []byte) []byte
	// Bech32Encode encodes 8-bit data under the given human-readable prefix
	Bech32Encode(hrp string, data []byte) (string, error)
	// Bech32Decode verifies the checksum of text and returns its prefix and
	// 8-bit data. Upper or lower case input is accepted, mixed case is not.
	Bech32Decode(text string) (string, []byte, error)
}

// Standard is the Provider backed by blake2b and the BIP-173 bech32 checksum.
type Standard struct{}

// New returns the standard Provider.
func New() *Standard {
	return &Standard{}
}

func (*Standard) Hash160(data []byte) []byte {
	return blake2bSum(data, Hash160Size)
}

func (*Standard) Hash224(data []byte) []byte {
	return blake2bSum(data, Hash224Size)
}

func blake2bSum(data []byte, size int) []byte {
	// blake2b.New only fails for a size outside 1..64 or an oversized key
	h, err := blake2b.New(size, nil)
	if err != nil {
		panic(fmt.Sprintf("unexpected blake2b error: %s", err))
	}
	h.Write(data)
	return h.Sum(nil)
}

// Bech32Encode encodes data with no length limit. Cardano addresses exceed the
// 90 character limit of BIP-173, so the limit is not enforced here either.
func (*Standard) Bech32Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", fmt.Errorf("%w: empty prefix", ErrInvalidBech32)
	}
	convData, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits: %w", err)
	}
	encoded, err := bech32.Encode(hrp, convData)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32: %w", err)
	}
	return encoded, nil
}

func (*Standard) Bech32Decode(text string) (string, []byte, error) {
	hrp, data, version, err := bech32.DecodeNoLimitWithVersion(text)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidBech32, err)
	}
	// bech32m checksums are valid BIP-350 but never used by the ledger
	if version != bech32.Version0 {
		return "", nil, fmt.Errorf(
			"%w: unexpected checksum variant",
			ErrInvalidBech32,
		)
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidBech32, err)
	}
	return hrp, converted, nil
}
