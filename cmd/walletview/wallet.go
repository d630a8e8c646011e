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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blinklabs-io/walletview"
	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/event"
	"github.com/blinklabs-io/walletview/hexutil"
	"github.com/blinklabs-io/walletview/internal/config"
	"github.com/blinklabs-io/walletview/internal/service"
	"github.com/blinklabs-io/walletview/wallet"
)

// walletCommandFunc runs against a connected session
type walletCommandFunc func(
	cmd *cobra.Command,
	w *walletview.Walletview,
	session *wallet.Session,
) error

// withWallet connects the configured provider for the duration of fn
func withWallet(fn walletCommandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			return errors.New("no config found in context")
		}
		logger := commonRun(os.Stderr)
		provider, err := service.NewProvider(cfg, logger)
		if err != nil {
			return err
		}
		w, err := walletview.New(
			walletview.NewConfig(service.Options(cfg, logger, provider)...),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Stop(); err != nil {
				logger.Error("shutdown errors occurred", "error", err)
			}
		}()
		session, err := w.Connect(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, w, session)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatQuantity adds thousands separators to a decimal quantity
func formatQuantity(quantity string) string {
	q, ok := new(big.Int).SetString(quantity, 10)
	if !ok {
		return quantity
	}
	return humanize.BigComma(q)
}

func formatLovelace(lovelace uint64) string {
	return fmt.Sprintf(
		"%s lovelace (%s ADA)",
		humanize.BigComma(new(big.Int).SetUint64(lovelace)),
		balance.FormatAda(lovelace),
	)
}

func writeBalance(out io.Writer, b balance.Balance) error {
	fmt.Fprintln(out, formatLovelace(b.Coin))
	if len(b.Tokens) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tQUANTITY\tFINGERPRINT\tUNIT")
	for _, tok := range b.Tokens {
		fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%s\n",
			tok.Name,
			formatQuantity(tok.Quantity),
			tok.Fingerprint,
			tok.Unit,
		)
	}
	return tw.Flush()
}

func balanceCommand() *cobra.Command {
	var asJSON, raw bool
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet balance with asset fingerprints",
		RunE: withWallet(func(cmd *cobra.Command, _ *walletview.Walletview, s *wallet.Session) error {
			out := cmd.OutOrStdout()
			if raw {
				rawHex, err := s.RawBalance(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rawHex)
				return nil
			}
			b, err := s.Balance(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, b)
			}
			return writeBalance(out, b)
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the hex CBOR balance as returned by the wallet")
	return cmd
}

func addressesCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List the wallet's used, unused and change addresses",
		RunE: withWallet(func(cmd *cobra.Command, _ *walletview.Walletview, s *wallet.Session) error {
			ctx := cmd.Context()
			used, err := s.UsedAddresses(ctx)
			if err != nil {
				return err
			}
			unused, err := s.UnusedAddresses(ctx)
			if err != nil {
				return err
			}
			change, err := s.ChangeAddress(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{
					"used":   used,
					"unused": unused,
					"change": change,
				})
			}
			tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tADDRESS")
			for _, addr := range used {
				fmt.Fprintf(tw, "used\t%s\n", addr)
			}
			for _, addr := range unused {
				fmt.Fprintf(tw, "unused\t%s\n", addr)
			}
			fmt.Fprintf(tw, "change\t%s\n", change)
			return tw.Flush()
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func utxosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "utxos",
		Short: "List the wallet's unspent outputs",
		RunE: withWallet(func(cmd *cobra.Command, w *walletview.Walletview, s *wallet.Session) error {
			utxos, err := s.Utxos(cmd.Context())
			if err != nil {
				return err
			}
			addrCodec := w.Client().AddressCodec()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "REF\tLOVELACE\tASSETS\tADDRESS")
			for _, u := range utxos {
				addrText, err := addrCodec.EncodeRaw(u.Address)
				if err != nil {
					addrText = hexutil.Encode(u.Address)
				}
				fmt.Fprintf(
					tw,
					"%s\t%s\t%d\t%s\n",
					u.Ref(),
					humanize.BigComma(new(big.Int).SetUint64(u.Value.Coin)),
					u.Value.MultiAsset.AssetCount(),
					addrText,
				)
			}
			return tw.Flush()
		}),
	}
	return cmd
}

func watchCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the wallet balance and print changes",
		RunE: withWallet(func(cmd *cobra.Command, w *walletview.Walletview, s *wallet.Session) error {
			if interval == 0 {
				interval = config.FromContext(cmd.Context()).WatchIntervalDuration()
			}
			out := cmd.OutOrStdout()
			subId := w.EventBus().SubscribeFunc(
				event.BalanceChangedEventType,
				func(evt event.Event) {
					data, ok := evt.Data.(event.BalanceChangedEvent)
					if !ok {
						return
					}
					fmt.Fprintf(
						out,
						"%s  %s -> %s, assets %d -> %d\n",
						evt.Timestamp.Format(time.RFC3339),
						humanize.BigComma(new(big.Int).SetUint64(data.PreviousLovelace)),
						formatLovelace(data.Lovelace),
						data.PreviousAssets,
						data.AssetCount,
					)
				},
			)
			defer w.EventBus().Unsubscribe(event.BalanceChangedEventType, subId)

			b, err := s.Balance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "watching %s every %s\n", s.Provider(), interval)
			if err := writeBalance(out, b); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(
				cmd.Context(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer stop()
			return s.Watch(ctx, interval)
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from config)")
	return cmd
}
