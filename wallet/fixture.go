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
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fixture describes a canned wallet
type Fixture struct {
	Name            string   `yaml:"name"`
	Balance         string   `yaml:"balance"`
	ChangeAddress   string   `yaml:"changeAddress"`
	Witness         string   `yaml:"witness"`
	UsedAddresses   []string `yaml:"usedAddresses"`
	UnusedAddresses []string `yaml:"unusedAddresses"`
	Utxos           []string `yaml:"utxos"`
	// Enabled starts the wallet already connected
	Enabled bool `yaml:"enabled"`
	// Reject makes the wallet decline the enable prompt
	Reject bool `yaml:"reject"`
	// DeclineSign makes the wallet refuse to sign
	DeclineSign bool `yaml:"declineSign"`
}

// FixtureProvider is an in-memory Provider serving a Fixture
type FixtureProvider struct {
	fixture Fixture
	mu      sync.Mutex
	enabled bool
}

func NewFixtureProvider(f Fixture) *FixtureProvider {
	if f.Name == "" {
		f.Name = "fixture"
	}
	return &FixtureProvider{
		fixture: f,
		enabled: f.Enabled,
	}
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (*FixtureProvider, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wallet fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("parsing wallet fixture %s: %w", path, err)
	}
	if f.Balance == "" {
		return nil, errors.New("wallet fixture has no balance")
	}
	return NewFixtureProvider(f), nil
}

// SetBalance replaces the hex-encoded balance returned by GetBalance
func (p *FixtureProvider) SetBalance(balanceHex string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fixture.Balance = balanceHex
}

func (p *FixtureProvider) Name() string {
	return p.fixture.Name
}

func (p *FixtureProvider) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled, nil
}

func (p *FixtureProvider) Enable(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fixture.Reject {
		return false, nil
	}
	p.enabled = true
	return true, nil
}

// snapshot returns a copy of the fixture, or an error when not enabled
func (p *FixtureProvider) snapshot(ctx context.Context) (Fixture, error) {
	if err := ctx.Err(); err != nil {
		return Fixture{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return Fixture{}, ErrNotConnected
	}
	return p.fixture, nil
}

func (p *FixtureProvider) GetUsedAddresses(ctx context.Context) ([]string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.UsedAddresses), nil
}

func (p *FixtureProvider) GetUnusedAddresses(ctx context.Context) ([]string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.UnusedAddresses), nil
}

func (p *FixtureProvider) GetChangeAddress(ctx context.Context) (string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return f.ChangeAddress, nil
}

func (p *FixtureProvider) GetUtxos(ctx context.Context) ([]string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.Utxos), nil
}

func (p *FixtureProvider) GetBalance(ctx context.Context) (string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return f.Balance, nil
}

func (p *FixtureProvider) SignTx(
	ctx context.Context,
	txHex string,
	partialSign bool,
) (string, error) {
	f, err := p.snapshot(ctx)
	if err != nil {
		return "", err
	}
	if f.DeclineSign {
		return "", &APIError{
			Code: TxSignErrorUserDeclined,
			Info: "user declined to sign",
			Sign: true,
		}
	}
	if f.Witness == "" {
		// empty witness set
		return "a0", nil
	}
	return f.Witness, nil
}
