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

// Package wallet is the boundary to a CIP-30 wallet provider. Data can only
// be requested through a Session, and a Session only exists once the wallet
// has agreed to connect.
package wallet

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRejected is returned when the user or wallet declines a request
	ErrRejected = errors.New("wallet rejected request")
	// ErrNotConnected is returned when a call is made without an enabled
	// wallet, or after the session has been closed
	ErrNotConnected = errors.New("wallet not connected")
	// ErrProvider wraps any other failure reported by the provider
	ErrProvider = errors.New("wallet provider error")
)

// Provider is the data surface a CIP-30 wallet exposes. All byte payloads
// are hex-encoded CBOR as handed over by the wallet.
type Provider interface {
	// Name identifies the wallet, for logs and metrics
	Name() string
	IsEnabled(ctx context.Context) (bool, error)
	// Enable asks the wallet for access. A false result means the request
	// was declined.
	Enable(ctx context.Context) (bool, error)
	GetUsedAddresses(ctx context.Context) ([]string, error)
	GetUnusedAddresses(ctx context.Context) ([]string, error)
	GetChangeAddress(ctx context.Context) (string, error)
	GetUtxos(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context) (string, error)
	SignTx(ctx context.Context, txHex string, partialSign bool) (string, error)
}

// CIP-30 APIError codes
const (
	APIErrorInvalidRequest = -1
	APIErrorInternalError  = -2
	APIErrorRefused        = -3
	APIErrorAccountChange  = -4
)

// CIP-30 TxSignError codes
const (
	TxSignErrorProofGeneration = 1
	TxSignErrorUserDeclined    = 2
)

// APIError is an error object returned by a wallet
type APIError struct {
	Info string `json:"info"`
	Code int    `json:"code"`
	// Sign is set for TxSignError codes, which overlap the APIError range
	Sign bool `json:"-"`
}

func (e *APIError) Error() string {
	kind := "api error"
	if e.Sign {
		kind = "sign error"
	}
	return fmt.Sprintf("wallet %s %d: %s", kind, e.Code, e.Info)
}

// Is maps refusals to ErrRejected and account changes to ErrNotConnected
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRejected:
		if e.Sign {
			return e.Code == TxSignErrorUserDeclined
		}
		return e.Code == APIErrorRefused
	case ErrNotConnected:
		return !e.Sign && e.Code == APIErrorAccountChange
	}
	return false
}
