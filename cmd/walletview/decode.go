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

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/walletview/address"
	"github.com/blinklabs-io/walletview/asset"
	"github.com/blinklabs-io/walletview/codec"
	"github.com/blinklabs-io/walletview/hexutil"
)

func fingerprintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint <policy-hex> [asset-name-hex]",
		Short: "Compute the CIP-14 fingerprint of a native asset",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policyId, err := hexutil.Decode(args[0])
			if err != nil {
				return fmt.Errorf("policy: %w", err)
			}
			nameHex := ""
			if len(args) > 1 {
				nameHex = strings.ToLower(args[1])
			}
			name, err := hexutil.Decode(nameHex)
			if err != nil {
				return fmt.Errorf("asset name: %w", err)
			}
			fp, err := asset.NewFingerprinter(codec.New()).Fingerprint(policyId, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, fp.String())
			if display := asset.DisplayName(nameHex); display != "" {
				fmt.Fprintf(out, "name: %s\n", display)
			}
			return nil
		},
	}
	return cmd
}

func addressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address <hex|bech32>",
		Short: "Decode a Shelley address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrCodec := address.NewCodec(codec.New())
			var addr address.Address
			var err error
			if raw, hexErr := hexutil.Decode(args[0]); hexErr == nil {
				addr, err = address.Decode(raw)
			} else {
				addr, err = addrCodec.DecodeText(args[0])
			}
			if err != nil {
				return err
			}
			text, err := addrCodec.Encode(addr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bech32:  %s\n", text)
			fmt.Fprintf(out, "hex:     %s\n", hexutil.Encode(addr.Bytes()))
			fmt.Fprintf(out, "type:    %s\n", addr.Type)
			fmt.Fprintf(out, "network: %d\n", addr.Network)
			if addr.Payment != nil {
				fmt.Fprintf(
					out,
					"payment: %s (script: %t)\n",
					hexutil.Encode(addr.Payment),
					addr.PaymentIsScript(),
				)
			}
			if addr.Stake != nil {
				fmt.Fprintf(
					out,
					"stake:   %s (script: %t)\n",
					hexutil.Encode(addr.Stake),
					addr.StakeIsScript(),
				)
			}
			if addr.Pointer != nil {
				fmt.Fprintf(
					out,
					"pointer: slot %d, tx %d, cert %d\n",
					addr.Pointer.Slot,
					addr.Pointer.TxIndex,
					addr.Pointer.CertIndex,
				)
			}
			return nil
		},
	}
	return cmd
}
