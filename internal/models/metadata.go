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
	"fmt"
)

type Direction int

const (
	Credit Direction = iota + 1
	Debit
)

// DgtTransactionMetadata is the closed set of payloads a DGT ledger entry can
// carry. The unexported marker keeps the set sealed to this package; every
// variant has to describe itself, so descriptions cannot fall through.
type DgtTransactionMetadata interface {
	Source() TransactionType
	Direction() Direction
	Description() string
	dgtMetadata()
}

type AdminCredit struct {
	AdminId string `json:"admin_id,omitempty"`
	Reason  string `json:"reason"`
}

type AdminDebit struct {
	AdminId string `json:"admin_id,omitempty"`
	Reason  string `json:"reason"`
}

type TipSend struct {
	ToUserId string `json:"to_user_id"`
	PostId   string `json:"post_id,omitempty"`
}

type TipReceive struct {
	FromUserId string `json:"from_user_id"`
	PostId     string `json:"post_id,omitempty"`
}

type TransferOut struct {
	ToUserId string            `json:"to_user_id"`
	Reason   string            `json:"reason,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type TransferIn struct {
	FromUserId string            `json:"from_user_id"`
	Reason     string            `json:"reason,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type ShopPurchase struct {
	ItemId   string `json:"item_id"`
	ItemName string `json:"item_name"`
}

type CryptoDeposit struct {
	CoinSymbol   string `json:"coin_symbol"`
	Chain        string `json:"chain,omitempty"`
	CryptoAmount string `json:"crypto_amount"`
	UsdtPrice    string `json:"usdt_price"`
	RecordId     string `json:"record_id"`
	TxHash       string `json:"tx_hash,omitempty"`
}

type WelcomeBonus struct{}

type Reward struct {
	Reason string `json:"reason"`
}

type Refund struct {
	OriginalTransactionId string `json:"original_transaction_id"`
	Reason                string `json:"reason"`
}

func (AdminCredit) Source() TransactionType   { return TxAdminCredit }
func (AdminDebit) Source() TransactionType    { return TxAdminDebit }
func (TipSend) Source() TransactionType       { return TxTipSend }
func (TipReceive) Source() TransactionType    { return TxTipReceive }
func (TransferOut) Source() TransactionType   { return TxTransferOut }
func (TransferIn) Source() TransactionType    { return TxTransferIn }
func (ShopPurchase) Source() TransactionType  { return TxShopPurchase }
func (CryptoDeposit) Source() TransactionType { return TxCryptoDeposit }
func (WelcomeBonus) Source() TransactionType  { return TxWelcomeBonus }
func (Reward) Source() TransactionType        { return TxReward }
func (Refund) Source() TransactionType        { return TxRefund }

func (AdminCredit) Direction() Direction   { return Credit }
func (AdminDebit) Direction() Direction    { return Debit }
func (TipSend) Direction() Direction       { return Debit }
func (TipReceive) Direction() Direction    { return Credit }
func (TransferOut) Direction() Direction   { return Debit }
func (TransferIn) Direction() Direction    { return Credit }
func (ShopPurchase) Direction() Direction  { return Debit }
func (CryptoDeposit) Direction() Direction { return Credit }
func (WelcomeBonus) Direction() Direction  { return Credit }
func (Reward) Direction() Direction        { return Credit }
func (Refund) Direction() Direction        { return Credit }

func (m AdminCredit) Description() string {
	return withReason("Admin credit", m.Reason)
}

func (m AdminDebit) Description() string {
	return withReason("Admin debit", m.Reason)
}

func (m TipSend) Description() string {
	return fmt.Sprintf("Tip sent to user %s", m.ToUserId)
}

func (m TipReceive) Description() string {
	return fmt.Sprintf("Tip received from user %s", m.FromUserId)
}

func (m TransferOut) Description() string {
	return withReason(fmt.Sprintf("Transfer to user %s", m.ToUserId), m.Reason)
}

func (m TransferIn) Description() string {
	return withReason(fmt.Sprintf("Transfer from user %s", m.FromUserId), m.Reason)
}

func (m ShopPurchase) Description() string {
	if m.ItemName == "" {
		return fmt.Sprintf("Shop purchase: item %s", m.ItemId)
	}
	return fmt.Sprintf("Shop purchase: %s", m.ItemName)
}

func (m CryptoDeposit) Description() string {
	return fmt.Sprintf("Crypto deposit: %s %s", m.CryptoAmount, m.CoinSymbol)
}

func (WelcomeBonus) Description() string {
	return "Welcome bonus"
}

func (m Reward) Description() string {
	return withReason("Reward", m.Reason)
}

func (m Refund) Description() string {
	return withReason(fmt.Sprintf("Refund of transaction %s", m.OriginalTransactionId), m.Reason)
}

func (AdminCredit) dgtMetadata()   {}
func (AdminDebit) dgtMetadata()    {}
func (TipSend) dgtMetadata()       {}
func (TipReceive) dgtMetadata()    {}
func (TransferOut) dgtMetadata()   {}
func (TransferIn) dgtMetadata()    {}
func (ShopPurchase) dgtMetadata()  {}
func (CryptoDeposit) dgtMetadata() {}
func (WelcomeBonus) dgtMetadata()  {}
func (Reward) dgtMetadata()        {}
func (Refund) dgtMetadata()        {}

func withReason(prefix, reason string) string {
	if reason == "" {
		return prefix
	}
	return prefix + ": " + reason
}

// EncodeMetadata renders a variant as {"source": ..., <fields>}
func EncodeMetadata(m DgtTransactionMetadata) (json.RawMessage, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("unable to encode %s metadata: %w", m.Source(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("unable to encode %s metadata: %w", m.Source(), err)
	}
	source, _ := json.Marshal(string(m.Source()))
	fields["source"] = source

	return json.Marshal(fields)
}

// DecodeMetadata parses the stored form back into its variant
func DecodeMetadata(raw json.RawMessage) (DgtTransactionMetadata, error) {
	var head struct {
		Source TransactionType `json:"source"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("unable to decode metadata: %w", err)
	}

	var m DgtTransactionMetadata
	switch head.Source {
	case TxAdminCredit:
		m = &AdminCredit{}
	case TxAdminDebit:
		m = &AdminDebit{}
	case TxTipSend:
		m = &TipSend{}
	case TxTipReceive:
		m = &TipReceive{}
	case TxTransferOut:
		m = &TransferOut{}
	case TxTransferIn:
		m = &TransferIn{}
	case TxShopPurchase:
		m = &ShopPurchase{}
	case TxCryptoDeposit:
		m = &CryptoDeposit{}
	case TxWelcomeBonus:
		m = &WelcomeBonus{}
	case TxReward:
		m = &Reward{}
	case TxRefund:
		m = &Refund{}
	default:
		return nil, fmt.Errorf("unknown metadata source %q", head.Source)
	}

	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("unable to decode %s metadata: %w", head.Source, err)
	}
	return deref(m), nil
}

func deref(m DgtTransactionMetadata) DgtTransactionMetadata {
	switch v := m.(type) {
	case *AdminCredit:
		return *v
	case *AdminDebit:
		return *v
	case *TipSend:
		return *v
	case *TipReceive:
		return *v
	case *TransferOut:
		return *v
	case *TransferIn:
		return *v
	case *ShopPurchase:
		return *v
	case *CryptoDeposit:
		return *v
	case *WelcomeBonus:
		return *v
	case *Reward:
		return *v
	case *Refund:
		return *v
	}
	return m
}
