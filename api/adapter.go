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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"math/big"
	"strconv"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/utxo"
)

const lovelaceUnit = "lovelace"

func optionalHex(b []byte) *string {
	if b == nil {
		return nil
	}
	ret := hexutil.Encode(b)
	return &ret
}

// utxoResponse converts a decoded output. Addresses that have no bech32
// form, such as Byron addresses, are reported as hex.
func (s *Server) utxoResponse(u utxo.Utxo) (UtxoResponse, error) {
	addrText, err := s.config.AddressCodec.EncodeRaw(u.Address)
	if err != nil {
		addrText = hexutil.Encode(u.Address)
	}
	amount := make([]AmountResponse, 0, 1+u.Value.MultiAsset.AssetCount())
	amount = append(amount, AmountResponse{
		Unit:     lovelaceUnit,
		Quantity: strconv.FormatUint(u.Value.Coin, 10),
	})
	var fpErr error
	u.Value.MultiAsset.Each(func(policyId, name []byte, quantity *big.Int) bool {
		fp, err := s.config.Fingerprinter.Fingerprint(policyId, name)
		if err != nil {
			fpErr = err
			return false
		}
		amount = append(amount, AmountResponse{
			Unit:        hexutil.Encode(policyId) + hexutil.Encode(name),
			Quantity:    quantity.String(),
			Fingerprint: fp.String(),
		})
		return true
	})
	if fpErr != nil {
		return UtxoResponse{}, fpErr
	}
	return UtxoResponse{
		Ref:             u.Ref(),
		TxHash:          hexutil.Encode(u.TxHash),
		Index:           u.Index,
		Address:         addrText,
		Amount:          amount,
		DatumHash:       optionalHex(u.DatumHash),
		InlineDatum:     optionalHex(u.Datum),
		ReferenceScript: optionalHex(u.ScriptRef),
	}, nil
}

func (s *Server) addressResponse(addr address.Address) (AddressResponse, error) {
	text, err := s.config.AddressCodec.Encode(addr)
	if err != nil {
		return AddressResponse{}, err
	}
	ret := AddressResponse{
		Bech32:        text,
		Hex:           hexutil.Encode(addr.Bytes()),
		Type:          addr.Type.String(),
		Network:       addr.Network,
		Payment:       optionalHex(addr.Payment),
		Stake:         optionalHex(addr.Stake),
		Pointer:       addr.Pointer,
		PaymentScript: addr.PaymentIsScript(),
		StakeScript:   addr.StakeIsScript(),
	}
	return ret, nil
}
