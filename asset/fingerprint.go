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

// Package asset derives display fields for native tokens: the CIP-14 asset
// fingerprint and a printable form of the raw asset name.
package asset

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/walletview/codec"
)

const (
	// PolicyIdLength is the size of a minting policy hash
	PolicyIdLength = 28
	// MaxAssetNameLength is the largest asset name the ledger permits
	MaxAssetNameLength = 32
	// FingerprintPrefix is the bech32 prefix reserved for asset fingerprints
	FingerprintPrefix = "asset"
)

var (
	ErrInvalidPolicyLength    = errors.New("invalid policy id length")
	ErrInvalidAssetNameLength = errors.New("invalid asset name length")
	ErrInvalidFingerprint     = errors.New("invalid asset fingerprint")
)

// Fingerprint is the bech32 text form of an asset fingerprint
type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// Fingerprinter computes CIP-14 fingerprints using an injected codec.Provider.
type Fingerprinter struct {
	codec codec.Provider
}

// NewFingerprinter returns a Fingerprinter backed by p. Panics if p is nil.
func NewFingerprinter(p codec.Provider) *Fingerprinter {
	if p == nil {
		panic("NewFingerprinter: codec provider must not be nil")
	}
	return &Fingerprinter{codec: p}
}

// Fingerprint hashes policyId||assetName with blake2b-160 and encodes the
// digest under the "asset" prefix. The full raw asset name is used, never a
// display-truncated one.
func (f *Fingerprinter) Fingerprint(
	policyId []byte,
	assetName []byte,
) (Fingerprint, error) {
	if err := ValidatePolicyId(policyId); err != nil {
		return "", err
	}
	if err := ValidateAssetName(assetName); err != nil {
		return "", err
	}
	buf := make([]byte, 0, len(policyId)+len(assetName))
	buf = append(buf, policyId...)
	buf = append(buf, assetName...)
	encoded, err := f.codec.Bech32Encode(
		FingerprintPrefix,
		f.codec.Hash160(buf),
	)
	if err != nil {
		return "", fmt.Errorf("encoding fingerprint: %w", err)
	}
	return Fingerprint(encoded), nil
}

// Parse checks that text is a well-formed fingerprint and returns its 20-byte
// digest. Addresses and other bech32 payloads are rejected by prefix.
func (f *Fingerprinter) Parse(text string) ([]byte, error) {
	hrp, data, err := f.codec.Bech32Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFingerprint, err)
	}
	if hrp != FingerprintPrefix {
		return nil, fmt.Errorf(
			"%w: unexpected prefix %q",
			ErrInvalidFingerprint,
			hrp,
		)
	}
	if len(data) != codec.Hash160Size {
		return nil, fmt.Errorf(
			"%w: digest is %d bytes, expected %d",
			ErrInvalidFingerprint,
			len(data),
			codec.Hash160Size,
		)
	}
	return data, nil
}

// ValidatePolicyId fails with ErrInvalidPolicyLength unless policyId is
// exactly 28 bytes.
func ValidatePolicyId(policyId []byte) error {
	if len(policyId) != PolicyIdLength {
		return fmt.Errorf(
			"%w: got %d bytes, expected %d",
			ErrInvalidPolicyLength,
			len(policyId),
			PolicyIdLength,
		)
	}
	return nil
}

// ValidateAssetName fails with ErrInvalidAssetNameLength when name exceeds 32
// bytes.
func ValidateAssetName(name []byte) error {
	if len(name) > MaxAssetNameLength {
		return fmt.Errorf(
			"%w: got %d bytes, maximum %d",
			ErrInvalidAssetNameLength,
			len(name),
			MaxAssetNameLength,
		)
	}
	return nil
}
