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

package wallet

import (
	"context"

	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"
	"dgt-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxMergeWindow bounds the rows fetched from each history source
const maxMergeWindow = 1000

// Service is the single entry point for balance mutations. Ledger operations
// go straight to the store; provider operations go through the adapter.
type Service struct {
	store    store.LedgerStore
	adapter  provider.Adapter
	catalog  *config.Catalog
	settings models.WalletSettings
	newId    func() string
}

func NewService(ledger store.LedgerStore, adapter provider.Adapter, catalog *config.Catalog, settings models.WalletSettings) *Service {
	if catalog == nil {
		catalog = config.DefaultCatalog()
	}
	return &Service{
		store:    ledger,
		adapter:  adapter,
		catalog:  catalog,
		settings: settings,
		newId:    func() string { return uuid.New().String() },
	}
}

// GetWalletConfig is the read-only configuration snapshot
func (s *Service) GetWalletConfig() models.WalletConfig {
	cfg := models.WalletConfig{
		SupportedCurrencies: s.catalog.Symbols(),
		MinimumWithdrawal:   map[string]decimal.Decimal{},
		MaximumWithdrawal:   map[string]decimal.Decimal{},
		WithdrawalFees:      map[string]decimal.Decimal{},
		DgtExchangeRate:     s.settings.DgtExchangeRate,
		MaintenanceMode:     s.settings.MaintenanceMode,
	}
	for _, cur := range s.catalog.Currencies() {
		cfg.MinimumWithdrawal[cur.Symbol] = cur.MinWithdraw
		cfg.MaximumWithdrawal[cur.Symbol] = cur.MaxWithdraw
		cfg.WithdrawalFees[cur.Symbol] = cur.WithdrawFee
	}
	return cfg
}

// originFields adds the caller's audit identity to log lines, when present
func originFields(ctx context.Context, fields ...zap.Field) []zap.Field {
	o := models.GetOrigin(ctx)
	if o == nil {
		return fields
	}
	if o.RequestId != "" {
		fields = append(fields, zap.String("request_id", o.RequestId))
	}
	if o.ActorId != "" {
		fields = append(fields, zap.String("actor_id", o.ActorId))
	}
	if o.Channel != "" {
		fields = append(fields, zap.String("channel", o.Channel))
	}
	return fields
}
