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

package ccpayment

import (
	"github.com/shopspring/decimal"
)

// Record statuses reported by the provider
const (
	StatusSuccess    = "Success"
	StatusProcessing = "Processing"
	StatusFailed     = "Failed"
	StatusRejected   = "Rejected"
	StatusWaiting    = "WaitingApproval"
)

type Coin struct {
	CoinId       int64                  `json:"coinId"`
	Symbol       string                 `json:"symbol"`
	CoinFullName string                 `json:"coinFullName"`
	LogoUrl      string                 `json:"logoUrl"`
	Status       string                 `json:"status"`
	Price        decimal.Decimal        `json:"price"`
	Networks     map[string]CoinNetwork `json:"networks"`
}

type CoinNetwork struct {
	Chain                 string          `json:"chain"`
	ChainFullName         string          `json:"chainFullName"`
	Contract              string          `json:"contract"`
	Precision             int32           `json:"precision"`
	CanDeposit            bool            `json:"canDeposit"`
	CanWithdraw           bool            `json:"canWithdraw"`
	MinimumDepositAmount  decimal.Decimal `json:"minimumDepositAmount"`
	MinimumWithdrawAmount decimal.Decimal `json:"minimumWithdrawAmount"`
	MaximumWithdrawAmount decimal.Decimal `json:"maximumWithdrawAmount"`
	IsSupportMemo         bool            `json:"isSupportMemo"`
}

type SwapCoin struct {
	CoinId        int64           `json:"coinId"`
	CoinSymbol    string          `json:"coinSymbol"`
	LogoUrl       string          `json:"logoUrl"`
	MinimumAmount decimal.Decimal `json:"minimumAmount"`
}

type DepositAddress struct {
	Address string `json:"address"`
	Memo    string `json:"memo"`
}

type Asset struct {
	CoinId     int64           `json:"coinId"`
	CoinSymbol string          `json:"coinSymbol"`
	Available  decimal.Decimal `json:"available"`
}

type UserWithdrawRequest struct {
	UserId  string          `json:"userId"`
	CoinId  int64           `json:"coinId"`
	Chain   string          `json:"chain"`
	Address string          `json:"address"`
	Memo    string          `json:"memo,omitempty"`
	OrderId string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
}

type UserSwapRequest struct {
	OrderId   string          `json:"orderId"`
	UserId    string          `json:"userId"`
	CoinIdIn  int64           `json:"coinIdIn"`
	AmountIn  decimal.Decimal `json:"amountIn"`
	CoinIdOut int64           `json:"coinIdOut"`
}

type SwapResult struct {
	RecordId  string          `json:"recordId"`
	OrderId   string          `json:"orderId"`
	CoinIdIn  int64           `json:"coinIdIn"`
	CoinIdOut int64           `json:"coinIdOut"`
	AmountIn  decimal.Decimal `json:"amountIn"`
	AmountOut decimal.Decimal `json:"amountOut"`
	SwapRate  decimal.Decimal `json:"swapRate"`
	Fee       decimal.Decimal `json:"fee"`
}

type Fee struct {
	CoinId     int64           `json:"coinId"`
	CoinSymbol string          `json:"coinSymbol"`
	Amount     decimal.Decimal `json:"amount"`
}

type DepositRecord struct {
	UserId           string          `json:"userId"`
	RecordId         string          `json:"recordId"`
	CoinId           int64           `json:"coinId"`
	CoinSymbol       string          `json:"coinSymbol"`
	Chain            string          `json:"chain"`
	Contract         string          `json:"contract"`
	Amount           decimal.Decimal `json:"amount"`
	ServiceFee       decimal.Decimal `json:"serviceFee"`
	FromAddress      string          `json:"fromAddress"`
	ToAddress        string          `json:"toAddress"`
	ToMemo           string          `json:"toMemo"`
	TxId             string          `json:"txId"`
	Status           string          `json:"status"`
	ArrivedAt        int64           `json:"arrivedAt"`
	IsFlaggedAsRisky bool            `json:"isFlaggedAsRisky"`
}

type WithdrawRecord struct {
	UserId      string          `json:"userId"`
	RecordId    string          `json:"recordId"`
	OrderId     string          `json:"orderId"`
	CoinId      int64           `json:"coinId"`
	CoinSymbol  string          `json:"coinSymbol"`
	Chain       string          `json:"chain"`
	FromAddress string          `json:"fromAddress"`
	ToAddress   string          `json:"toAddress"`
	ToMemo      string          `json:"toMemo"`
	Amount      decimal.Decimal `json:"amount"`
	ServiceFee  decimal.Decimal `json:"serviceFee"`
	TxId        string          `json:"txId"`
	Status      string          `json:"status"`
	CreatedAt   int64           `json:"createdAt"`
}

// RecordQuery filters the record list endpoints; times are unix seconds
type RecordQuery struct {
	UserId  string `json:"userId"`
	CoinId  int64  `json:"coinId,omitempty"`
	Chain   string `json:"chain,omitempty"`
	StartAt int64  `json:"startAt,omitempty"`
	EndAt   int64  `json:"endAt,omitempty"`
	NextId  string `json:"nextId,omitempty"`
}
