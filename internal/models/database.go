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
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DgtCurrency is the currency code of ledger-native transactions
const DgtCurrency = "DGT"

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusFrozen    WalletStatus = "frozen"
	WalletStatusSuspended WalletStatus = "suspended"
)

func (s WalletStatus) Valid() bool {
	switch s {
	case WalletStatusActive, WalletStatusFrozen, WalletStatusSuspended:
		return true
	}
	return false
}

// Wallet is one user's DGT balance (hot data)
type Wallet struct {
	Id              string          `db:"id" json:"id"`
	UserId          string          `db:"user_id" json:"user_id"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	Status          WalletStatus    `db:"status" json:"status"`
	LastTransaction *time.Time      `db:"last_transaction" json:"last_transaction,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TxAdminCredit   TransactionType = "admin_credit"
	TxAdminDebit    TransactionType = "admin_debit"
	TxTipSend       TransactionType = "tip_send"
	TxTipReceive    TransactionType = "tip_receive"
	TxTransferIn    TransactionType = "transfer_in"
	TxTransferOut   TransactionType = "transfer_out"
	TxShopPurchase  TransactionType = "shop_purchase"
	TxCryptoDeposit TransactionType = "crypto_deposit"
	TxWithdrawal    TransactionType = "withdrawal"
	TxWelcomeBonus  TransactionType = "welcome_bonus"
	TxReward        TransactionType = "reward"
	TxRefund        TransactionType = "refund"
	TxSwap          TransactionType = "swap"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusFailed    TransactionStatus = "failed"
	TxStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s
func (s TransactionStatus) Terminal() bool {
	return s == TxStatusCompleted || s == TxStatusFailed || s == TxStatusCancelled
}

// CanTransition allows pending -> completed | failed | cancelled only.
func CanTransition(from, to TransactionStatus) bool {
	if from != TxStatusPending {
		return false
	}
	return to.Terminal()
}

// Transaction sources
const (
	SourceLedger   = "ledger"
	SourceProvider = "provider"
)

// Transaction is an immutable ledger entry (cold data). Provider-sourced
// entries share the shape so that history can be merged.
type Transaction struct {
	Id          string            `db:"id" json:"id"`
	UserId      string            `db:"user_id" json:"user_id"`
	WalletId    string            `db:"wallet_id" json:"wallet_id,omitempty"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	Currency    string            `db:"currency" json:"currency"`
	Type        TransactionType   `db:"type" json:"type"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	Metadata    json.RawMessage   `db:"metadata" json:"metadata,omitempty"`
	FromUserId  string            `db:"from_user_id" json:"from_user_id,omitempty"`
	ToUserId    string            `db:"to_user_id" json:"to_user_id,omitempty"`
	Reference   string            `db:"reference" json:"reference,omitempty"`
	ExternalId  string            `db:"external_id" json:"external_id,omitempty"`
	Source      string            `json:"source"`
	TxHash      string            `json:"tx_hash,omitempty"`
	Chain       string            `json:"chain,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// ProviderAccount maps an internal user to the payment provider's identity
type ProviderAccount struct {
	UserId         string    `db:"user_id"`
	Provider       string    `db:"provider"`
	ProviderUserId string    `db:"provider_user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

// DepositAddress is a per-user, per-coin, per-chain receive address
type DepositAddress struct {
	UserId     string    `db:"user_id" json:"user_id"`
	CoinSymbol string    `db:"coin_symbol" json:"coin_symbol"`
	Chain      string    `db:"chain" json:"chain"`
	Address    string    `db:"address" json:"address"`
	Memo       string    `db:"memo" json:"memo,omitempty"`
	QRCodeURL  string    `db:"qr_code_url" json:"qr_code_url,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SupportedToken is a row of the local allow-list overlay
type SupportedToken struct {
	CoinSymbol string    `db:"coin_symbol"`
	CoinId     int64     `db:"coin_id"`
	Chains     []string  `db:"chains"`
	IsActive   bool      `db:"is_active"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// WithdrawalRecord tracks a provider withdrawal submitted for a user
type WithdrawalRecord struct {
	OrderId    string            `db:"order_id"`
	UserId     string            `db:"user_id"`
	CoinSymbol string            `db:"coin_symbol"`
	Chain      string            `db:"chain"`
	Address    string            `db:"address"`
	Memo       string            `db:"memo"`
	Amount     decimal.Decimal   `db:"amount"`
	Fee        decimal.Decimal   `db:"fee"`
	RecordId   string            `db:"record_id"`
	TxHash     string            `db:"tx_hash"`
	Status     TransactionStatus `db:"status"`
	CreatedAt  time.Time         `db:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at"`
}

// SwapRecord tracks a provider swap submitted for a user
type SwapRecord struct {
	RecordId   string            `db:"record_id"`
	OrderId    string            `db:"order_id"`
	UserId     string            `db:"user_id"`
	FromCoinId int64             `db:"from_coin_id"`
	ToCoinId   int64             `db:"to_coin_id"`
	FromAmount decimal.Decimal   `db:"from_amount"`
	ToAmount   decimal.Decimal   `db:"to_amount"`
	Status     TransactionStatus `db:"status"`
	CreatedAt  time.Time         `db:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at"`
}
