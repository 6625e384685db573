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

// ProviderRecord is a deposit or withdrawal as reported by the provider's
// record list endpoints, polled for reconciliation
type ProviderRecord struct {
	RecordId   string            `json:"record_id"`
	OrderId    string            `json:"order_id,omitempty"`
	Type       WebhookEventType  `json:"type"`
	CoinId     int64             `json:"coin_id"`
	CoinSymbol string            `json:"coin_symbol"`
	Chain      string            `json:"chain"`
	Amount     decimal.Decimal   `json:"amount"`
	Address    string            `json:"address,omitempty"`
	TxHash     string            `json:"tx_hash,omitempty"`
	Status     TransactionStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}
