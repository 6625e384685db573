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

package provider

import (
	"sort"
	"strings"
	"time"

	"dgt-wallet-go/internal/ccpayment"
	"dgt-wallet-go/internal/models"
)

// EventId is the dedupe key of a provider notification. A record moving from
// pending to completed yields two distinct events.
func EventId(recordId string, status models.TransactionStatus) string {
	return recordId + ":" + string(status)
}

// ValidEventId reports whether id carries both a record part and a status
func ValidEventId(id string) bool {
	recordId, status, ok := strings.Cut(id, ":")
	return ok && recordId != "" && status != ""
}

func webhookType(t string) models.WebhookEventType {
	switch t {
	case ccpayment.WebhookUserDeposit:
		return models.WebhookDeposit
	case ccpayment.WebhookUserWithdrawal:
		return models.WebhookWithdrawal
	case ccpayment.WebhookUserSwap:
		return models.WebhookSwap
	default:
		return models.WebhookUnknown
	}
}

func mapStatus(status string) models.TransactionStatus {
	switch status {
	case ccpayment.StatusSuccess:
		return models.TxStatusCompleted
	case ccpayment.StatusFailed:
		return models.TxStatusFailed
	case ccpayment.StatusRejected:
		return models.TxStatusCancelled
	default:
		return models.TxStatusPending
	}
}

func coinToModel(c ccpayment.Coin) models.SupportedCoin {
	coin := models.SupportedCoin{
		CoinId:  c.CoinId,
		Symbol:  strings.ToUpper(c.Symbol),
		Name:    c.CoinFullName,
		LogoURL: c.LogoUrl,
		Status:  models.CoinStatus(c.Status),
		Price:   c.Price,
	}
	for _, n := range c.Networks {
		coin.Networks = append(coin.Networks, models.Network{
			Chain:                 n.Chain,
			ChainFullName:         n.ChainFullName,
			Contract:              n.Contract,
			Precision:             n.Precision,
			CanDeposit:            n.CanDeposit,
			CanWithdraw:           n.CanWithdraw,
			MinimumDepositAmount:  n.MinimumDepositAmount,
			MinimumWithdrawAmount: n.MinimumWithdrawAmount,
			MaximumWithdrawAmount: n.MaximumWithdrawAmount,
			IsSupportMemo:         n.IsSupportMemo,
		})
	}
	sort.Slice(coin.Networks, func(i, j int) bool { return coin.Networks[i].Chain < coin.Networks[j].Chain })
	return coin
}

// overlayTokens applies the local allow-list. An empty list allows the
// whole provider catalog.
func overlayTokens(coins []models.SupportedCoin, tokens []models.SupportedToken) []models.SupportedCoin {
	if len(tokens) == 0 {
		return coins
	}

	allowed := make(map[string]models.SupportedToken, len(tokens))
	for _, t := range tokens {
		allowed[strings.ToUpper(t.CoinSymbol)] = t
	}

	var out []models.SupportedCoin
	for _, coin := range coins {
		token, ok := allowed[coin.Symbol]
		if !ok || !token.IsActive {
			continue
		}
		if len(token.Chains) > 0 {
			chains := make(map[string]bool, len(token.Chains))
			for _, ch := range token.Chains {
				chains[strings.ToUpper(ch)] = true
			}
			var networks []models.Network
			for _, n := range coin.Networks {
				if chains[strings.ToUpper(n.Chain)] {
					networks = append(networks, n)
				}
			}
			coin.Networks = networks
		}
		out = append(out, coin)
	}
	return out
}

func depositToRecord(d ccpayment.DepositRecord) models.ProviderRecord {
	return models.ProviderRecord{
		RecordId:   d.RecordId,
		Type:       models.WebhookDeposit,
		CoinId:     d.CoinId,
		CoinSymbol: strings.ToUpper(d.CoinSymbol),
		Chain:      d.Chain,
		Amount:     d.Amount,
		Address:    d.ToAddress,
		TxHash:     d.TxId,
		Status:     mapStatus(d.Status),
		CreatedAt:  time.Unix(d.ArrivedAt, 0).UTC(),
	}
}

func withdrawToRecord(w ccpayment.WithdrawRecord) models.ProviderRecord {
	return models.ProviderRecord{
		RecordId:   w.RecordId,
		OrderId:    w.OrderId,
		Type:       models.WebhookWithdrawal,
		CoinId:     w.CoinId,
		CoinSymbol: strings.ToUpper(w.CoinSymbol),
		Chain:      w.Chain,
		Amount:     w.Amount,
		Address:    w.ToAddress,
		TxHash:     w.TxId,
		Status:     mapStatus(w.Status),
		CreatedAt:  time.Unix(w.CreatedAt, 0).UTC(),
	}
}

// recordToTransaction shapes a provider record like a ledger row so the two
// histories can be merged. Withdrawals are negative.
func recordToTransaction(userId string, r models.ProviderRecord) models.Transaction {
	tx := models.Transaction{
		Id:         CCPayment + ":" + r.RecordId,
		UserId:     userId,
		Amount:     r.Amount,
		Currency:   r.CoinSymbol,
		Type:       models.TxCryptoDeposit,
		Status:     r.Status,
		ExternalId: r.RecordId,
		Source:     models.SourceProvider,
		TxHash:     r.TxHash,
		Chain:      r.Chain,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.CreatedAt,
	}
	if r.Type == models.WebhookWithdrawal {
		tx.Type = models.TxWithdrawal
		tx.Amount = r.Amount.Neg()
		tx.Reference = r.OrderId
	}
	tx.Description = string(tx.Type) + " " + r.Amount.String() + " " + r.CoinSymbol
	return tx
}
