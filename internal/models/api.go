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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletBalance merges the ledger DGT balance with provider-held crypto
type WalletBalance struct {
	UserId    string          `json:"user_id"`
	Dgt       decimal.Decimal `json:"dgt"`
	DgtStatus WalletStatus    `json:"dgt_status"`
	Crypto    []CryptoBalance `json:"crypto"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TransferRequest struct {
	FromUserId string            `json:"from_user_id"`
	ToUserId   string            `json:"to_user_id"`
	Amount     decimal.Decimal   `json:"amount"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

const (
	MaxHistoryLimit     = 100
	DefaultHistoryLimit = 20
)

type HistoryOptions struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// Normalize fills defaults and clamps the page size
func (o HistoryOptions) Normalize() HistoryOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = DefaultHistoryLimit
	}
	if o.Limit > MaxHistoryLimit {
		o.Limit = MaxHistoryLimit
	}
	if o.SortBy == "" {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" {
		o.SortOrder = "desc"
	}
	return o
}

// Offset is the number of rows before the requested page
func (o HistoryOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// WebhookDelivery is an unverified provider callback as received
type WebhookDelivery struct {
	Payload   []byte
	Signature string
	Timestamp string
	AppId     string
}

type WebhookEventType string

const (
	WebhookDeposit    WebhookEventType = "deposit"
	WebhookWithdrawal WebhookEventType = "withdrawal"
	WebhookSwap       WebhookEventType = "swap"
	WebhookUnknown    WebhookEventType = "unknown"
)

// WebhookEvent is a verified provider event in internal terms
type WebhookEvent struct {
	Provider   string            `json:"provider"`
	EventId    string            `json:"event_id"`
	Type       WebhookEventType  `json:"type"`
	UserId     string            `json:"user_id,omitempty"`
	OrderId    string            `json:"order_id,omitempty"`
	RecordId   string            `json:"record_id,omitempty"`
	CoinId     int64             `json:"coin_id,omitempty"`
	CoinSymbol string            `json:"coin_symbol,omitempty"`
	Chain      string            `json:"chain,omitempty"`
	Amount     decimal.Decimal   `json:"amount"`
	TxHash     string            `json:"tx_hash,omitempty"`
	Status     TransactionStatus `json:"status"`
}

type WebhookResult struct {
	Success   bool             `json:"success"`
	Duplicate bool             `json:"duplicate"`
	EventId   string           `json:"event_id"`
	Type      WebhookEventType `json:"type"`
	Message   string           `json:"message,omitempty"`
}

type StepOutcome struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// InitializationResult reports each bootstrap step independently
type InitializationResult struct {
	Success                bool          `json:"success"`
	WalletsCreated         int           `json:"wallets_created"`
	DgtWalletCreated       bool          `json:"dgt_wallet_created"`
	WelcomeBonusAdded      bool          `json:"welcome_bonus_added"`
	ProviderAccountCreated bool          `json:"provider_account_created"`
	Steps                  []StepOutcome `json:"steps"`
}

// CurrencyConfig is one entry of the supported currency catalog
type CurrencyConfig struct {
	Symbol       string          `yaml:"symbol" json:"symbol"`
	Chains       []string        `yaml:"chains" json:"chains"`
	DefaultChain string          `yaml:"default_chain" json:"default_chain"`
	MinWithdraw  decimal.Decimal `yaml:"-" json:"min_withdraw"`
	MaxWithdraw  decimal.Decimal `yaml:"-" json:"max_withdraw"`
	WithdrawFee  decimal.Decimal `yaml:"-" json:"withdraw_fee"`
}

// WalletConfig is the read-only configuration snapshot exposed to callers
type WalletConfig struct {
	SupportedCurrencies []string                   `json:"supported_currencies"`
	MinimumWithdrawal   map[string]decimal.Decimal `json:"minimum_withdrawal"`
	MaximumWithdrawal   map[string]decimal.Decimal `json:"maximum_withdrawal"`
	WithdrawalFees      map[string]decimal.Decimal `json:"withdrawal_fees"`
	DgtExchangeRate     decimal.Decimal            `json:"dgt_exchange_rate"`
	MaintenanceMode     bool                       `json:"maintenance_mode"`
}
