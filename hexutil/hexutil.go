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

// Package hexutil converts between the hex strings handed out by a wallet
// provider and raw bytes, and provides bounds-checked slicing for the binary
// decoders built on top of it.
package hexutil

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrMalformedHex is returned when a hex string has an odd length or
	// contains a character outside [0-9a-fA-F].
	ErrMalformedHex = errors.New("malformed hex")

	// ErrTruncatedInput is returned when fewer bytes are present than a
	// declared structure requires.
	ErrTruncatedInput = errors.New("truncated input")
)

// Decode converts a hex string to bytes. Both upper and lower case digits
// are accepted.
func Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf(
			"%w: odd length %d",
			ErrMalformedHex,
			len(s),
		)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		var invalid hex.InvalidByteError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf(
				"%w: invalid character %q",
				ErrMalformedHex,
				byte(invalid),
			)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedHex, err)
	}
	return b, nil
}

// Encode returns the lowercase hex form of b with no separators.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Slice returns b[offset:offset+length], failing with ErrTruncatedInput
// instead of panicking when the range falls outside b. The returned slice
// aliases b.
func Slice(b []byte, offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf(
			"%w: negative range (offset %d, length %d)",
			ErrTruncatedInput,
			offset,
			length,
		)
	}
	if offset > len(b) || length > len(b)-offset {
		return nil, fmt.Errorf(
			"%w: need %d bytes at offset %d, have %d",
			ErrTruncatedInput,
			length,
			offset,
			len(b)-min(offset, len(b)),
		)
	}
	return b[offset : offset+length], nil
}
