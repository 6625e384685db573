/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type currencyEntry struct {
	Symbol       string   `yaml:"symbol"`
	Chains       []string `yaml:"chains"`
	DefaultChain string   `yaml:"default_chain"`
	MinWithdraw  string   `yaml:"min_withdraw"`
	MaxWithdraw  string   `yaml:"max_withdraw"`
	WithdrawFee  string   `yaml:"withdraw_fee"`
}

type currenciesFile struct {
	Currencies []currencyEntry `yaml:"currencies"`
}

// Catalog is the static set of coins users may deposit and withdraw
type Catalog struct {
	currencies map[string]models.CurrencyConfig
	order      []string
}

func NewCatalog(currencies []models.CurrencyConfig) *Catalog {
	c := &Catalog{currencies: make(map[string]models.CurrencyConfig, len(currencies))}
	for _, cur := range currencies {
		symbol := strings.ToUpper(cur.Symbol)
		cur.Symbol = symbol
		if _, dup := c.currencies[symbol]; !dup {
			c.order = append(c.order, symbol)
		}
		c.currencies[symbol] = cur
	}
	sort.Strings(c.order)
	return c
}

// DefaultCatalog is used when no currencies file is present
func DefaultCatalog() *Catalog {
	return NewCatalog([]models.CurrencyConfig{
		{Symbol: "BTC", Chains: []string{"BTC"}, DefaultChain: "BTC",
			MinWithdraw: decimal.RequireFromString("0.0005"), MaxWithdraw: decimal.NewFromInt(5), WithdrawFee: decimal.RequireFromString("0.0002")},
		{Symbol: "ETH", Chains: []string{"ETH"}, DefaultChain: "ETH",
			MinWithdraw: decimal.RequireFromString("0.005"), MaxWithdraw: decimal.NewFromInt(100), WithdrawFee: decimal.RequireFromString("0.002")},
		{Symbol: "USDT", Chains: []string{"TRX", "ETH", "BSC", "POLYGON"}, DefaultChain: "TRX",
			MinWithdraw: decimal.NewFromInt(10), MaxWithdraw: decimal.NewFromInt(100_000), WithdrawFee: decimal.NewFromInt(1)},
		{Symbol: "USDC", Chains: []string{"ETH", "SOL", "POLYGON"}, DefaultChain: "ETH",
			MinWithdraw: decimal.NewFromInt(10), MaxWithdraw: decimal.NewFromInt(100_000), WithdrawFee: decimal.NewFromInt(1)},
		{Symbol: "SOL", Chains: []string{"SOL"}, DefaultChain: "SOL",
			MinWithdraw: decimal.RequireFromString("0.05"), MaxWithdraw: decimal.NewFromInt(5_000), WithdrawFee: decimal.RequireFromString("0.01")},
	})
}

// LoadCatalog reads the currencies file, falling back to DefaultCatalog
// when it does not exist.
func LoadCatalog(currenciesFile string) (*Catalog, error) {
	path := currenciesFile
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("No currencies file found, using built-in catalog", zap.String("file", currenciesFile))
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	currencies, err := parseCurrencies(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}
	return NewCatalog(currencies), nil
}

func parseCurrencies(data []byte) ([]models.CurrencyConfig, error) {
	var file currenciesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	currencies := make([]models.CurrencyConfig, 0, len(file.Currencies))
	for i, entry := range file.Currencies {
		if entry.Symbol == "" {
			return nil, fmt.Errorf("currency at index %d missing symbol", i)
		}
		if len(entry.Chains) == 0 {
			return nil, fmt.Errorf("currency %s has no chains", entry.Symbol)
		}

		cur := models.CurrencyConfig{
			Symbol:       strings.ToUpper(entry.Symbol),
			Chains:       entry.Chains,
			DefaultChain: entry.DefaultChain,
		}
		if cur.DefaultChain == "" {
			cur.DefaultChain = entry.Chains[0]
		}

		var err error
		if cur.MinWithdraw, err = parseOptionalDecimal(entry.MinWithdraw); err != nil {
			return nil, fmt.Errorf("currency %s min_withdraw: %w", entry.Symbol, err)
		}
		if cur.MaxWithdraw, err = parseOptionalDecimal(entry.MaxWithdraw); err != nil {
			return nil, fmt.Errorf("currency %s max_withdraw: %w", entry.Symbol, err)
		}
		if cur.WithdrawFee, err = parseOptionalDecimal(entry.WithdrawFee); err != nil {
			return nil, fmt.Errorf("currency %s withdraw_fee: %w", entry.Symbol, err)
		}
		currencies = append(currencies, cur)
	}
	return currencies, nil
}

func parseOptionalDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

// Lookup returns the configuration of symbol, case-insensitively
func (c *Catalog) Lookup(symbol string) (models.CurrencyConfig, bool) {
	cur, ok := c.currencies[strings.ToUpper(symbol)]
	return cur, ok
}

// ResolveChain returns chain if the currency lists it, or the default chain
// when chain is empty.
func (c *Catalog) ResolveChain(symbol, chain string) (string, bool) {
	cur, ok := c.Lookup(symbol)
	if !ok {
		return "", false
	}
	if chain == "" {
		return cur.DefaultChain, true
	}
	for _, ch := range cur.Chains {
		if strings.EqualFold(ch, chain) {
			return ch, true
		}
	}
	return "", false
}

// Symbols lists the supported currencies in sorted order
func (c *Catalog) Symbols() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) Currencies() []models.CurrencyConfig {
	out := make([]models.CurrencyConfig, 0, len(c.order))
	for _, symbol := range c.order {
		out = append(out, c.currencies[symbol])
	}
	return out
}
