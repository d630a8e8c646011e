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

// Package utxo decodes the unspent outputs a wallet returns from getUtxos.
// Each record is a CBOR [input, output] pair. Outputs may use the legacy
// array layout or the post-Alonzo map layout.
package utxo

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/value"
)

const (
	TxHashLength    = 32
	DatumHashLength = 32

	outputKeyAddress   = 0
	outputKeyValue     = 1
	outputKeyDatum     = 2
	outputKeyScriptRef = 3

	datumOptionHash   = 0
	datumOptionInline = 1
)

var ErrMalformedUtxo = errors.New("malformed utxo")

// Utxo is a decoded unspent output
type Utxo struct {
	TxHash []byte
	// Address holds the raw address bytes. Byron addresses are kept as-is.
	Address   []byte
	DatumHash []byte
	// Datum is the CBOR of an inline datum
	Datum []byte
	// ScriptRef is the CBOR of a reference script
	ScriptRef []byte
	Value     value.Value
	Index     uint32
}

// Ref returns the output reference in txhash#index form
func (u Utxo) Ref() string {
	return fmt.Sprintf("%s#%d", hexutil.Encode(u.TxHash), u.Index)
}

type txInput struct {
	cbor.StructAsArray
	TxHash []byte
	Index  uint32
}

type datumOption struct {
	cbor.StructAsArray
	Type uint
	Data cbor.RawMessage
}

// Decode parses a single CBOR-encoded [input, output] record
func Decode(data []byte) (Utxo, error) {
	var pair []cbor.RawMessage
	if err := decodeAll(data, &pair); err != nil {
		return Utxo{}, fmt.Errorf("%w: %w", ErrMalformedUtxo, err)
	}
	if len(pair) != 2 {
		return Utxo{}, fmt.Errorf(
			"%w: record has %d items, expected 2",
			ErrMalformedUtxo,
			len(pair),
		)
	}
	var ret Utxo
	var in txInput
	if err := decodeAll(pair[0], &in); err != nil {
		return Utxo{}, fmt.Errorf("%w: input: %w", ErrMalformedUtxo, err)
	}
	if len(in.TxHash) != TxHashLength {
		return Utxo{}, fmt.Errorf(
			"%w: input tx hash is %d bytes, expected %d",
			ErrMalformedUtxo,
			len(in.TxHash),
			TxHashLength,
		)
	}
	ret.TxHash = in.TxHash
	ret.Index = in.Index
	out := []byte(pair[1])
	if len(out) == 0 {
		return Utxo{}, fmt.Errorf("%w: empty output", ErrMalformedUtxo)
	}
	var err error
	switch out[0] >> 5 {
	case 4:
		err = ret.decodeLegacyOutput(out)
	case 5:
		err = ret.decodeMapOutput(out)
	default:
		err = fmt.Errorf(
			"%w: output has major type %d",
			ErrMalformedUtxo,
			out[0]>>5,
		)
	}
	if err != nil {
		return Utxo{}, err
	}
	return ret, nil
}

// DecodeHex is Decode for the hex strings returned by a wallet provider
func DecodeHex(s string) (Utxo, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Utxo{}, err
	}
	return Decode(data)
}

// [address, value, ? datum_hash]
func (u *Utxo) decodeLegacyOutput(data []byte) error {
	var items []cbor.RawMessage
	if err := decodeAll(data, &items); err != nil {
		return fmt.Errorf("%w: output: %w", ErrMalformedUtxo, err)
	}
	if len(items) < 2 || len(items) > 3 {
		return fmt.Errorf(
			"%w: legacy output has %d items",
			ErrMalformedUtxo,
			len(items),
		)
	}
	if err := u.decodeAddressValue(items[0], items[1]); err != nil {
		return err
	}
	if len(items) == 3 {
		if err := decodeAll(items[2], &u.DatumHash); err != nil {
			return fmt.Errorf("%w: datum hash: %w", ErrMalformedUtxo, err)
		}
		if len(u.DatumHash) != DatumHashLength {
			return fmt.Errorf(
				"%w: datum hash is %d bytes",
				ErrMalformedUtxo,
				len(u.DatumHash),
			)
		}
	}
	return nil
}

// {0: address, 1: value, ? 2: datum_option, ? 3: script_ref}
func (u *Utxo) decodeMapOutput(data []byte) error {
	var fields map[uint64]cbor.RawMessage
	if err := decodeAll(data, &fields); err != nil {
		return fmt.Errorf("%w: output: %w", ErrMalformedUtxo, err)
	}
	addr, ok := fields[outputKeyAddress]
	if !ok {
		return fmt.Errorf("%w: output has no address", ErrMalformedUtxo)
	}
	val, ok := fields[outputKeyValue]
	if !ok {
		return fmt.Errorf("%w: output has no value", ErrMalformedUtxo)
	}
	if err := u.decodeAddressValue(addr, val); err != nil {
		return err
	}
	if raw, ok := fields[outputKeyDatum]; ok {
		var opt datumOption
		if err := decodeAll(raw, &opt); err != nil {
			return fmt.Errorf("%w: datum option: %w", ErrMalformedUtxo, err)
		}
		switch opt.Type {
		case datumOptionHash:
			if err := decodeAll(opt.Data, &u.DatumHash); err != nil {
				return fmt.Errorf("%w: datum hash: %w", ErrMalformedUtxo, err)
			}
			if len(u.DatumHash) != DatumHashLength {
				return fmt.Errorf(
					"%w: datum hash is %d bytes",
					ErrMalformedUtxo,
					len(u.DatumHash),
				)
			}
		case datumOptionInline:
			u.Datum = []byte(opt.Data)
		default:
			return fmt.Errorf(
				"%w: unknown datum option %d",
				ErrMalformedUtxo,
				opt.Type,
			)
		}
	}
	if raw, ok := fields[outputKeyScriptRef]; ok {
		u.ScriptRef = []byte(raw)
	}
	for k := range fields {
		if k > outputKeyScriptRef {
			return fmt.Errorf("%w: unknown output key %d", ErrMalformedUtxo, k)
		}
	}
	return nil
}

func (u *Utxo) decodeAddressValue(addrRaw, valRaw cbor.RawMessage) error {
	if err := decodeAll(addrRaw, &u.Address); err != nil {
		return fmt.Errorf("%w: address: %w", ErrMalformedUtxo, err)
	}
	if len(u.Address) == 0 {
		return fmt.Errorf("%w: empty address", ErrMalformedUtxo)
	}
	v, err := value.Decode(valRaw)
	if err != nil {
		return fmt.Errorf("%w: value: %w", ErrMalformedUtxo, err)
	}
	u.Value = v
	return nil
}

// decodeAll decodes data into dest and rejects trailing bytes
func decodeAll(data []byte, dest any) error {
	n, err := cbor.Decode(data, dest)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("%d trailing bytes", len(data)-n)
	}
	return nil
}
