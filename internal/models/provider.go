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

type CoinStatus string

const (
	CoinStatusNormal       CoinStatus = "Normal"
	CoinStatusMaintain     CoinStatus = "Maintain"
	CoinStatusPreDelisting CoinStatus = "Pre-delisting"
	CoinStatusDelisted     CoinStatus = "Delisted"
)

// Network describes one chain a coin can move on
type Network struct {
	Chain                 string          `json:"chain"`
	ChainFullName         string          `json:"chain_full_name"`
	Contract              string          `json:"contract,omitempty"`
	Precision             int32           `json:"precision"`
	CanDeposit            bool            `json:"can_deposit"`
	CanWithdraw           bool            `json:"can_withdraw"`
	MinimumDepositAmount  decimal.Decimal `json:"minimum_deposit_amount"`
	MinimumWithdrawAmount decimal.Decimal `json:"minimum_withdraw_amount"`
	MaximumWithdrawAmount decimal.Decimal `json:"maximum_withdraw_amount"`
	IsSupportMemo         bool            `json:"is_support_memo"`
}

// SupportedCoin is a catalog entry from the payment provider
type SupportedCoin struct {
	CoinId   int64           `json:"coin_id"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	LogoURL  string          `json:"logo_url,omitempty"`
	Status   CoinStatus      `json:"status"`
	Price    decimal.Decimal `json:"price"`
	Networks []Network       `json:"networks"`
}

// FindNetwork returns the coin's network for chain, if listed
func (c SupportedCoin) FindNetwork(chain string) (Network, bool) {
	for _, n := range c.Networks {
		if n.Chain == chain {
			return n, true
		}
	}
	return Network{}, false
}

type CryptoBalance struct {
	CoinId     int64           `json:"coin_id"`
	CoinSymbol string          `json:"coin_symbol"`
	Available  decimal.Decimal `json:"available"`
}

type WithdrawalRequest struct {
	OrderId    string          `json:"order_id"`
	CoinSymbol string          `json:"coin_symbol"`
	Chain      string          `json:"chain"`
	Address    string          `json:"address"`
	Memo       string          `json:"memo,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

type WithdrawalResponse struct {
	OrderId             string            `json:"order_id"`
	RecordId            string            `json:"record_id"`
	Status              TransactionStatus `json:"status"`
	Fee                 *decimal.Decimal  `json:"fee,omitempty"`
	EstimatedCompletion *time.Time        `json:"estimated_completion,omitempty"`
	TxHash              string            `json:"tx_hash,omitempty"`
}

type SwapRequest struct {
	OrderId    string          `json:"order_id"`
	FromCoinId int64           `json:"from_coin_id"`
	ToCoinId   int64           `json:"to_coin_id"`
	FromAmount decimal.Decimal `json:"from_amount"`
}

type SwapResponse struct {
	OrderId  string            `json:"order_id"`
	RecordId string            `json:"record_id"`
	ToAmount decimal.Decimal   `json:"to_amount"`
	Status   TransactionStatus `json:"status"`
}

type WithdrawFee struct {
	CoinSymbol string          `json:"coin_symbol"`
	Chain      string          `json:"chain"`
	Amount     decimal.Decimal `json:"amount"`
}

type TokenInfo struct {
	Coin      SupportedCoin   `json:"coin"`
	UsdtPrice decimal.Decimal `json:"usdt_price"`
}
