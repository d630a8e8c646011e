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

package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/walletview/balance"
	"github.com/blinklabs-io/walletview/event"
)

const MinWatchInterval = 100 * time.Millisecond

// Watch polls the wallet balance until ctx is done, publishing a
// BalanceChangedEvent whenever the result differs from the previous poll.
// Transient failures are logged and retried on the next tick. It returns
// nil on cancellation and an error once the session is rejected or closed.
func (s *Session) Watch(ctx context.Context, interval time.Duration) error {
	if interval < MinWatchInterval {
		return fmt.Errorf(
			"watch interval %s is below the minimum of %s",
			interval,
			MinWatchInterval,
		)
	}
	logger := s.client.logger.With("provider", s.Provider())
	var prev *balance.Balance
	poll := func() error {
		cur, err := s.Balance(ctx)
		if err != nil {
			if errors.Is(err, ErrRejected) || errors.Is(err, ErrNotConnected) {
				return err
			}
			if ctx.Err() == nil {
				logger.Warn("balance poll failed", "error", err)
			}
			return nil
		}
		if prev != nil && !balanceEqual(*prev, cur) {
			logger.Debug(
				"balance changed",
				"lovelace", cur.Coin,
				"previous_lovelace", prev.Coin,
			)
			s.client.publish(
				event.BalanceChangedEventType,
				event.BalanceChangedEvent{
					PreviousLovelace: prev.Coin,
					Lovelace:         cur.Coin,
					PreviousAssets:   len(prev.Tokens),
					AssetCount:       len(cur.Tokens),
				},
			)
		}
		prev = &cur
		return nil
	}
	if err := poll(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := poll(); err != nil {
				return err
			}
		}
	}
}

func balanceEqual(a, b balance.Balance) bool {
	if a.Coin != b.Coin || len(a.Tokens) != len(b.Tokens) {
		return false
	}
	for i := range a.Tokens {
		if a.Tokens[i].Unit != b.Tokens[i].Unit ||
			a.Tokens[i].Quantity != b.Tokens[i].Quantity {
			return false
		}
	}
	return true
}
