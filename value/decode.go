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
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/fxamacker/cbor/v2"
)

var (
	ErrMalformedValue   = errors.New("malformed value")
	ErrQuantityOverflow = errors.New("quantity overflow")
)

// CBOR major types
const (
	majorUint     byte = 0
	majorNegInt   byte = 1
	majorBytes    byte = 2
	majorText     byte = 3
	majorArray    byte = 4
	majorMap      byte = 5
	majorTag      byte = 6
	infoIndef     byte = 31
	breakByte     byte = 0xff
	tagPosBignum       = 2
	tagNegBignum       = 3
)

// Decode parses a CBOR-encoded value. Decoding is all-or-nothing: any error
// wraps ErrMalformedValue (or ErrQuantityOverflow) and no partial Value is
// returned. Trailing bytes after the value are rejected.
func Decode(data []byte) (Value, error) {
	r := &reader{data: data}
	v, err := r.readValue()
	if err != nil {
		return Value{}, err
	}
	if r.remaining() != 0 {
		return Value{}, fmt.Errorf(
			"%w: %d trailing bytes at offset %d",
			ErrMalformedValue,
			r.remaining(),
			r.pos,
		)
	}
	return v, nil
}

// DecodeHex is Decode for the hex string returned by a wallet provider
func DecodeHex(s string) (Value, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Value{}, err
	}
	return Decode(data)
}

// reader is a cursor over CBOR data. Container heads are parsed here so
// that map entry order survives; leaf items go through the cbor library.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) peekByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.truncated("item head")
	}
	return r.data[r.pos], nil
}

func (r *reader) truncated(what string) error {
	return fmt.Errorf(
		"%w: %s at offset %d: %w",
		ErrMalformedValue,
		what,
		r.pos,
		hexutil.ErrTruncatedInput,
	)
}

func (r *reader) malformed(format string, args ...any) error {
	return fmt.Errorf(
		"%w: %s (offset %d)",
		ErrMalformedValue,
		fmt.Sprintf(format, args...),
		r.pos,
	)
}

// head describes the initial byte(s) of a CBOR data item
type head struct {
	major byte
	info  byte
	arg   uint64
	size  int
}

func (h head) indefinite() bool {
	return h.info == infoIndef
}

// peekHead decodes the head at the cursor without consuming it
func (r *reader) peekHead() (head, error) {
	b, err := r.peekByte()
	if err != nil {
		return head{}, err
	}
	h := head{major: b >> 5, info: b & 0x1f, size: 1}
	var n int
	switch {
	case h.info < 24:
		h.arg = uint64(h.info)
		return h, nil
	case h.info == 24:
		n = 1
	case h.info == 25:
		n = 2
	case h.info == 26:
		n = 4
	case h.info == 27:
		n = 8
	case h.info == infoIndef:
		switch h.major {
		case majorBytes, majorText, majorArray, majorMap:
			return h, nil
		}
		if b == breakByte {
			return head{}, r.malformed("unexpected break")
		}
		return head{}, r.malformed("indefinite length on major type %d", h.major)
	default:
		return head{}, r.malformed("reserved additional info %d", h.info)
	}
	if r.remaining() < 1+n {
		return head{}, r.truncated("item argument")
	}
	for _, c := range r.data[r.pos+1 : r.pos+1+n] {
		h.arg = h.arg<<8 | uint64(c)
	}
	h.size += n
	return h, nil
}

// readContainer consumes an array or map head and returns its entry count,
// or -1 for indefinite length
func (r *reader) readContainer(major byte, what string) (int, error) {
	h, err := r.peekHead()
	if err != nil {
		return 0, err
	}
	if h.major != major {
		return 0, r.malformed(
			"%s: expected major type %d, found %d",
			what,
			major,
			h.major,
		)
	}
	r.pos += h.size
	if h.indefinite() {
		return -1, nil
	}
	if h.arg > math.MaxInt {
		return 0, fmt.Errorf(
			"%w: %s: %w: length %d",
			ErrMalformedValue,
			what,
			ErrQuantityOverflow,
			h.arg,
		)
	}
	// Every entry takes at least one byte per item
	minBytes := h.arg
	if major == majorMap {
		minBytes *= 2
	}
	if h.arg > uint64(r.remaining()) || minBytes > uint64(r.remaining()) {
		return 0, r.truncated(fmt.Sprintf("%s of %d entries", what, h.arg))
	}
	return int(h.arg), nil
}

// more reports whether another entry follows in a container with count
// entries (or -1 for indefinite) after i entries have been read. For
// indefinite containers the closing break is consumed.
func (r *reader) more(count int, i int) (bool, error) {
	if count >= 0 {
		return i < count, nil
	}
	b, err := r.peekByte()
	if err != nil {
		return false, err
	}
	if b == breakByte {
		r.pos++
		return false, nil
	}
	return true, nil
}

// readItem extracts the next complete data item
func (r *reader) readItem(what string) (cbor.RawMessage, error) {
	if err := r.checkLeafLength(what); err != nil {
		return nil, err
	}
	var raw cbor.RawMessage
	rest, err := cbor.UnmarshalFirst(r.data[r.pos:], &raw)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, r.truncated(what)
		}
		return nil, fmt.Errorf(
			"%w: %s at offset %d: %w",
			ErrMalformedValue,
			what,
			r.pos,
			err,
		)
	}
	r.pos = len(r.data) - len(rest)
	return raw, nil
}

// checkLeafLength rejects byte and text string lengths that cannot be
// addressed, including the one wrapped by a bignum tag
func (r *reader) checkLeafLength(what string) error {
	h, err := r.peekHead()
	if err != nil {
		return err
	}
	offset := 0
	if h.major == majorTag && h.arg == tagPosBignum {
		inner := reader{data: r.data, pos: r.pos + h.size}
		if h, err = inner.peekHead(); err != nil {
			return err
		}
		offset = inner.pos - r.pos
	}
	if (h.major == majorBytes || h.major == majorText) &&
		!h.indefinite() &&
		h.arg > math.MaxInt {
		return fmt.Errorf(
			"%w: %s at offset %d: %w: string length %d",
			ErrMalformedValue,
			what,
			r.pos+offset,
			ErrQuantityOverflow,
			h.arg,
		)
	}
	return nil
}

// readUnsigned reads a uint or positive bignum
func (r *reader) readUnsigned(what string) (*big.Int, error) {
	start := r.pos
	raw, err := r.readItem(what)
	if err != nil {
		return nil, err
	}
	h, err := (&reader{data: raw}).peekHead()
	if err != nil {
		return nil, err
	}
	switch {
	case h.major == majorUint:
	case h.major == majorTag && h.arg == tagPosBignum:
	case h.major == majorNegInt ||
		(h.major == majorTag && h.arg == tagNegBignum):
		return nil, fmt.Errorf(
			"%w: %s at offset %d is negative",
			ErrMalformedValue,
			what,
			start,
		)
	default:
		return nil, fmt.Errorf(
			"%w: %s at offset %d: expected unsigned integer, found major type %d",
			ErrMalformedValue,
			what,
			start,
			h.major,
		)
	}
	ret := new(big.Int)
	if err := cbor.Unmarshal(raw, ret); err != nil {
		return nil, fmt.Errorf(
			"%w: %s at offset %d: %w",
			ErrMalformedValue,
			what,
			start,
			err,
		)
	}
	return ret, nil
}

// readBytes reads a byte string
func (r *reader) readBytes(what string) ([]byte, error) {
	start := r.pos
	raw, err := r.readItem(what)
	if err != nil {
		return nil, err
	}
	if major := raw[0] >> 5; major != majorBytes {
		return nil, fmt.Errorf(
			"%w: %s at offset %d: expected byte string, found major type %d",
			ErrMalformedValue,
			what,
			start,
			major,
		)
	}
	var ret []byte
	if err := cbor.Unmarshal(raw, &ret); err != nil {
		return nil, fmt.Errorf(
			"%w: %s at offset %d: %w",
			ErrMalformedValue,
			what,
			start,
			err,
		)
	}
	if ret == nil {
		ret = []byte{}
	}
	return ret, nil
}

func (r *reader) readCoin() (uint64, error) {
	start := r.pos
	coin, err := r.readUnsigned("coin")
	if err != nil {
		return 0, err
	}
	if !coin.IsUint64() {
		return 0, fmt.Errorf(
			"%w: coin at offset %d: %w: %s does not fit in 64 bits",
			ErrMalformedValue,
			start,
			ErrQuantityOverflow,
			coin.String(),
		)
	}
	return coin.Uint64(), nil
}

func (r *reader) readValue() (Value, error) {
	h, err := r.peekHead()
	if err != nil {
		return Value{}, err
	}
	switch {
	case h.major == majorUint, h.major == majorTag:
		coin, err := r.readCoin()
		if err != nil {
			return Value{}, err
		}
		return Value{Coin: coin}, nil
	case h.major == majorArray:
	default:
		return Value{}, r.malformed(
			"value: expected coin or [coin, multiasset], found major type %d",
			h.major,
		)
	}
	count, err := r.readContainer(majorArray, "value")
	if err != nil {
		return Value{}, err
	}
	if count >= 0 && count != 2 {
		return Value{}, r.malformed("value: array of %d items, expected 2", count)
	}
	coin, err := r.readCoin()
	if err != nil {
		return Value{}, err
	}
	if count < 0 {
		if b, err := r.peekByte(); err != nil {
			return Value{}, err
		} else if b == breakByte {
			return Value{}, r.malformed("value: array of 1 item, expected 2")
		}
	}
	ma, err := r.readMultiAsset()
	if err != nil {
		return Value{}, err
	}
	if count < 0 {
		b, err := r.peekByte()
		if err != nil {
			return Value{}, err
		}
		if b != breakByte {
			return Value{}, r.malformed("value: more than 2 items")
		}
		r.pos++
	}
	return Value{Coin: coin, MultiAsset: ma}, nil
}

func (r *reader) readMultiAsset() (MultiAsset, error) {
	count, err := r.readContainer(majorMap, "multiasset")
	if err != nil {
		return nil, err
	}
	var ret MultiAsset
	if count > 0 {
		ret = make(MultiAsset, 0, count)
	}
	for i := 0; ; i++ {
		ok, err := r.more(count, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		start := r.pos
		policyId, err := r.readBytes("policy id")
		if err != nil {
			return nil, err
		}
		if err := asset.ValidatePolicyId(policyId); err != nil {
			return nil, fmt.Errorf(
				"%w: policy at offset %d: %w",
				ErrMalformedValue,
				start,
				err,
			)
		}
		for _, p := range ret {
			if bytes.Equal(p.Id, policyId) {
				return nil, fmt.Errorf(
					"%w: duplicate policy %x at offset %d",
					ErrMalformedValue,
					policyId,
					start,
				)
			}
		}
		assets, err := r.readAssets(policyId)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Policy{Id: policyId, Assets: assets})
	}
	return ret, nil
}

func (r *reader) readAssets(policyId []byte) ([]Asset, error) {
	count, err := r.readContainer(majorMap, fmt.Sprintf("assets of policy %x", policyId))
	if err != nil {
		return nil, err
	}
	var ret []Asset
	if count > 0 {
		ret = make([]Asset, 0, count)
	}
	for i := 0; ; i++ {
		ok, err := r.more(count, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		start := r.pos
		name, err := r.readBytes("asset name")
		if err != nil {
			return nil, err
		}
		if err := asset.ValidateAssetName(name); err != nil {
			return nil, fmt.Errorf(
				"%w: asset name at offset %d: %w",
				ErrMalformedValue,
				start,
				err,
			)
		}
		for _, a := range ret {
			if bytes.Equal(a.Name, name) {
				return nil, fmt.Errorf(
					"%w: duplicate asset name %x under policy %x",
					ErrMalformedValue,
					name,
					policyId,
				)
			}
		}
		qty, err := r.readUnsigned("asset quantity")
		if err != nil {
			return nil, err
		}
		ret = append(ret, Asset{Name: name, Quantity: qty})
	}
	return ret, nil
}
