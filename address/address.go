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

// Package address decodes raw Shelley-era address bytes, as returned by a
// wallet provider, into a structured Address and renders it in the CIP-19
// bech32 text form.
//
// Header byte layout:
//
//	bits 7..4: address type
//	bits 3..0: network id
//
// Supported types:
//
//	0x0-0x3: base (payment credential + stake credential)
//	0x4-0x5: pointer (payment credential + chain pointer)
//	0x6-0x7: enterprise (payment credential only)
//	0xe-0xf: reward (stake credential only)
//
// Byron bootstrap addresses (0x8) are not modelled.
package address

import (
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/walletview/hexutil"
)

const (
	CredentialLength = 28

	NetworkTestnet uint8 = 0
	NetworkMainnet uint8 = 1
)

// Type is the address type held in the header's high nibble
type Type uint8

const (
	TypeBaseKeyKey         Type = 0x0
	TypeBaseScriptKey      Type = 0x1
	TypeBaseKeyScript      Type = 0x2
	TypeBaseScriptScript   Type = 0x3
	TypePointerKey         Type = 0x4
	TypePointerScript      Type = 0x5
	TypeEnterpriseKey      Type = 0x6
	TypeEnterpriseScript   Type = 0x7
	TypeByron              Type = 0x8
	TypeRewardKey          Type = 0xe
	TypeRewardScript       Type = 0xf
	maxNetworkId                = 0x0f
	maxPointerVarLenLength      = 10
)

var (
	ErrUnsupportedAddressType = errors.New("unsupported address type")
	ErrMalformedAddress       = errors.New("malformed address")
	// ErrTruncatedInput is shared with hexutil so callers can match either
	ErrTruncatedInput = hexutil.ErrTruncatedInput
)

func (t Type) IsBase() bool {
	return t <= TypeBaseScriptScript
}

func (t Type) IsPointer() bool {
	return t == TypePointerKey || t == TypePointerScript
}

func (t Type) IsEnterprise() bool {
	return t == TypeEnterpriseKey || t == TypeEnterpriseScript
}

func (t Type) IsReward() bool {
	return t == TypeRewardKey || t == TypeRewardScript
}

func (t Type) supported() bool {
	return t.IsBase() || t.IsPointer() || t.IsEnterprise() || t.IsReward()
}

// String returns a short name for the address kind
func (t Type) String() string {
	switch {
	case t.IsBase():
		return "base"
	case t.IsPointer():
		return "pointer"
	case t.IsEnterprise():
		return "enterprise"
	case t.IsReward():
		return "reward"
	case t == TypeByron:
		return "byron"
	}
	return fmt.Sprintf("unknown(%#x)", uint8(t))
}

// Pointer locates a stake registration certificate on chain
type Pointer struct {
	Slot      uint64 `json:"slot"`
	TxIndex   uint64 `json:"tx_index"`
	CertIndex uint64 `json:"cert_index"`
}

// Address is the structured form of a Shelley address. Payment is nil for
// reward addresses; Stake is nil for enterprise and pointer addresses.
type Address struct {
	Pointer *Pointer
	Payment []byte
	Stake   []byte
	Type    Type
	Network uint8
}

// PaymentIsScript reports whether the payment credential is a script hash
func (a Address) PaymentIsScript() bool {
	switch a.Type {
	case TypeBaseScriptKey, TypeBaseScriptScript,
		TypePointerScript, TypeEnterpriseScript:
		return true
	}
	return false
}

// StakeIsScript reports whether the stake credential is a script hash
func (a Address) StakeIsScript() bool {
	switch a.Type {
	case TypeBaseKeyScript, TypeBaseScriptScript, TypeRewardScript:
		return true
	}
	return false
}

// Header returns the leading header byte
func (a Address) Header() byte {
	return byte(a.Type)<<4 | (a.Network & maxNetworkId)
}

// Bytes returns the canonical raw layout of the address
func (a Address) Bytes() []byte {
	ret := make([]byte, 0, 1+2*CredentialLength)
	ret = append(ret, a.Header())
	ret = append(ret, a.Payment...)
	ret = append(ret, a.Stake...)
	if a.Pointer != nil {
		ret = appendVarLen(ret, a.Pointer.Slot)
		ret = appendVarLen(ret, a.Pointer.TxIndex)
		ret = appendVarLen(ret, a.Pointer.CertIndex)
	}
	return ret
}

// Validate checks that the credential layout matches the address type
func (a Address) Validate() error {
	if !a.Type.supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedAddressType, a.Type)
	}
	if a.Network > maxNetworkId {
		return fmt.Errorf(
			"%w: network id %d out of range",
			ErrMalformedAddress,
			a.Network,
		)
	}
	wantPayment := !a.Type.IsReward()
	wantStake := a.Type.IsBase() || a.Type.IsReward()
	if err := checkCredential("payment", a.Payment, wantPayment); err != nil {
		return err
	}
	if err := checkCredential("stake", a.Stake, wantStake); err != nil {
		return err
	}
	if a.Type.IsPointer() != (a.Pointer != nil) {
		return fmt.Errorf(
			"%w: pointer present mismatch for %s address",
			ErrMalformedAddress,
			a.Type,
		)
	}
	return nil
}

func checkCredential(name string, cred []byte, want bool) error {
	if !want {
		if len(cred) != 0 {
			return fmt.Errorf(
				"%w: unexpected %s credential",
				ErrMalformedAddress,
				name,
			)
		}
		return nil
	}
	if len(cred) != CredentialLength {
		return fmt.Errorf(
			"%w: %s credential is %d bytes, expected %d",
			ErrMalformedAddress,
			name,
			len(cred),
			CredentialLength,
		)
	}
	return nil
}

// Decode parses raw address bytes. Fails with ErrUnsupportedAddressType for
// Byron and unknown headers and with ErrTruncatedInput when fewer bytes are
// present than the header promises.
func Decode(raw []byte) (Address, error) {
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("%w: empty address", ErrTruncatedInput)
	}
	header := raw[0]
	addrType := Type(header >> 4)
	if !addrType.supported() {
		return Address{}, fmt.Errorf(
			"%w: header %#02x (%s)",
			ErrUnsupportedAddressType,
			header,
			addrType,
		)
	}
	ret := Address{
		Type:    addrType,
		Network: header & maxNetworkId,
	}
	pos := 1
	readCred := func(name string) ([]byte, error) {
		b, err := hexutil.Slice(raw, pos, CredentialLength)
		if err != nil {
			return nil, fmt.Errorf("reading %s credential: %w", name, err)
		}
		pos += CredentialLength
		cred := make([]byte, CredentialLength)
		copy(cred, b)
		return cred, nil
	}
	var err error
	if !addrType.IsReward() {
		if ret.Payment, err = readCred("payment"); err != nil {
			return Address{}, err
		}
	}
	switch {
	case addrType.IsBase(), addrType.IsReward():
		if ret.Stake, err = readCred("stake"); err != nil {
			return Address{}, err
		}
	case addrType.IsPointer():
		ptr := &Pointer{}
		for _, field := range []*uint64{&ptr.Slot, &ptr.TxIndex, &ptr.CertIndex} {
			*field, pos, err = readVarLen(raw, pos)
			if err != nil {
				return Address{}, fmt.Errorf("reading pointer: %w", err)
			}
		}
		ret.Pointer = ptr
	}
	if pos != len(raw) {
		return Address{}, fmt.Errorf(
			"%w: %d trailing bytes after %s address",
			ErrMalformedAddress,
			len(raw)-pos,
			addrType,
		)
	}
	return ret, nil
}

// DecodeHex is Decode for a hex string as handed out by a wallet provider
func DecodeHex(s string) (Address, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return Address{}, err
	}
	return Decode(raw)
}

// readVarLen reads a pointer component: big-endian 7-bit groups with the
// high bit set on every byte except the last.
func readVarLen(data []byte, pos int) (uint64, int, error) {
	var acc uint64
	for i := range maxPointerVarLenLength {
		if pos >= len(data) {
			return 0, pos, fmt.Errorf(
				"%w: variable-length natural ends at %d",
				ErrTruncatedInput,
				pos,
			)
		}
		b := data[pos]
		pos++
		if acc > (math.MaxUint64 >> 7) {
			return 0, pos, fmt.Errorf(
				"%w: variable-length natural overflows at byte %d",
				ErrMalformedAddress,
				i,
			)
		}
		acc = (acc << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return acc, pos, nil
		}
	}
	return 0, pos, fmt.Errorf(
		"%w: variable-length natural too long",
		ErrMalformedAddress,
	)
}

func appendVarLen(dst []byte, v uint64) []byte {
	var tmp [maxPointerVarLenLength]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	v >>= 7
	for v > 0 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
		v >>= 7
	}
	return append(dst, tmp[i:]...)
}
