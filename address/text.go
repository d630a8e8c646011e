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

package address

import (
	"fmt"

	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/hexutil"
)

const (
	PrefixPayment        = "addr"
	PrefixPaymentTestnet = "addr_test"
	PrefixReward         = "stake"
	PrefixRewardTestnet  = "stake_test"
)

// Prefix returns the bech32 human-readable prefix for an address kind on a
// network. Only network 1 uses the unsuffixed prefixes.
func Prefix(addrType Type, network uint8) string {
	if addrType.IsReward() {
		if network == NetworkMainnet {
			return PrefixReward
		}
		return PrefixRewardTestnet
	}
	if network == NetworkMainnet {
		return PrefixPayment
	}
	return PrefixPaymentTestnet
}

// Codec converts between structured addresses and their bech32 text form
type Codec struct {
	codec codec.Provider
}

// NewCodec returns a Codec backed by p. Panics if p is nil.
func NewCodec(p codec.Provider) *Codec {
	if p == nil {
		panic("NewCodec: codec provider must not be nil")
	}
	return &Codec{codec: p}
}

// Encode serializes addr to its canonical raw layout and renders it as
// lowercase bech32
func (c *Codec) Encode(addr Address) (string, error) {
	if err := addr.Validate(); err != nil {
		return "", err
	}
	text, err := c.codec.Bech32Encode(
		Prefix(addr.Type, addr.Network),
		addr.Bytes(),
	)
	if err != nil {
		return "", fmt.Errorf("encoding %s address: %w", addr.Type, err)
	}
	return text, nil
}

// EncodeRaw decodes raw address bytes and renders them as text
func (c *Codec) EncodeRaw(raw []byte) (string, error) {
	addr, err := Decode(raw)
	if err != nil {
		return "", err
	}
	return c.Encode(addr)
}

// EncodeHex is EncodeRaw for the hex strings returned by a wallet provider
func (c *Codec) EncodeHex(s string) (string, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return "", err
	}
	return c.EncodeRaw(raw)
}

// DecodeText parses a bech32 address. Either case is accepted, the checksum
// is verified, and the prefix must agree with the decoded header.
func (c *Codec) DecodeText(text string) (Address, error) {
	hrp, data, err := c.codec.Bech32Decode(text)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}
	addr, err := Decode(data)
	if err != nil {
		return Address{}, err
	}
	if want := Prefix(addr.Type, addr.Network); hrp != want {
		return Address{}, fmt.Errorf(
			"%w: prefix %q does not match %s address on network %d (want %q)",
			ErrMalformedAddress,
			hrp,
			addr.Type,
			addr.Network,
			want,
		)
	}
	return addr, nil
}
