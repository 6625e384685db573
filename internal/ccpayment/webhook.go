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
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrAppIdMismatch    = errors.New("webhook app id does not match")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside allowed skew")
)

// Webhook notification types
const (
	WebhookUserDeposit    = "UserDeposit"
	WebhookUserWithdrawal = "UserWithdrawal"
	WebhookUserSwap       = "UserSwap"
)

type WebhookPayload struct {
	Type string         `json:"type"`
	Msg  WebhookMessage `json:"msg"`
}

type WebhookMessage struct {
	RecordId         string          `json:"recordId"`
	OrderId          string          `json:"orderId"`
	UserId           string          `json:"userId"`
	CoinId           int64           `json:"coinId"`
	CoinSymbol       string          `json:"coinSymbol"`
	Chain            string          `json:"chain"`
	Amount           decimal.Decimal `json:"amount"`
	TxId             string          `json:"txId"`
	Status           string          `json:"status"`
	IsFlaggedAsRisky bool            `json:"isFlaggedAsRisky"`
}

// VerifyWebhookSignature checks a callback against the app secret in constant
// time. appId may be empty when the header was not sent.
func (c *Client) VerifyWebhookSignature(appId, timestamp string, body []byte, sign string) error {
	if appId != "" && appId != c.appId {
		return ErrAppIdMismatch
	}
	if timestamp == "" || sign == "" {
		return ErrInvalidSignature
	}

	expected := Sign(c.appId, c.appSecret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(sign)) {
		return ErrInvalidSignature
	}

	if c.maxSkew > 0 {
		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStaleTimestamp, err)
		}
		skew := c.now().Sub(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > c.maxSkew {
			return ErrStaleTimestamp
		}
	}
	return nil
}

func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unable to decode webhook payload: %w", err)
	}
	if payload.Type == "" {
		return nil, fmt.Errorf("webhook payload missing type")
	}
	return &payload, nil
}
