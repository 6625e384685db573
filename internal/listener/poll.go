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


package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PollStats summarises one pass over all provider accounts
type PollStats struct {
	Accounts   int
	Records    int
	Ingested   int
	Duplicates int
	Skipped    int
	Failed     int
}

func (s *PollStats) add(o PollStats) {
	s.Records += o.Records
	s.Ingested += o.Ingested
	s.Duplicates += o.Duplicates
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// PollOnce lists records for every mapped user and ingests the terminal ones.
// Errors for one account are logged and do not stop the others.
func (l *ReconcileListener) PollOnce(ctx context.Context) PollStats {
	since := time.Now().UTC().Add(-l.lookbackWindow)
	stats := PollStats{}

	accounts, err := l.accounts.ListProviderAccounts(ctx, l.provider)
	if err != nil {
		zap.L().Error("Failed to list provider accounts", zap.String("provider", l.provider), zap.Error(err))
		return stats
	}
	stats.Accounts = len(accounts)

	zap.L().Debug("Polling provider accounts",
		zap.Int("accounts", len(accounts)),
		zap.Time("since", since))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			accountStats, err := l.pollAccount(gctx, account, since)
			if err != nil {
				zap.L().Error("Failed to poll provider account",
					zap.String("user_id", account.UserId),
					zap.String("provider_user_id", account.ProviderUserId),
					zap.Error(err))
				accountStats.Failed++
			}
			mu.Lock()
			stats.add(accountStats)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if stats.Ingested > 0 || stats.Failed > 0 {
		zap.L().Info("Reconciliation poll finished",
			zap.Int("accounts", stats.Accounts),
			zap.Int("records", stats.Records),
			zap.Int("ingested", stats.Ingested),
			zap.Int("duplicates", stats.Duplicates),
			zap.Int("failed", stats.Failed))
	}
	return stats
}

func (l *ReconcileListener) pollAccount(ctx context.Context, account models.ProviderAccount, since time.Time) (PollStats, error) {
	stats := PollStats{}

	records, err := l.records.ListRecords(ctx, account.UserId, since)
	if err != nil {
		return stats, fmt.Errorf("failed to list records: %w", err)
	}
	stats.Records = len(records)

	for _, record := range records {
		event, ok := eventFromRecord(l.provider, account.UserId, record)
		if !ok {
			stats.Skipped++
			continue
		}
		if l.isEventProcessed(event.EventId) {
			stats.Skipped++
			continue
		}

		payload, err := json.Marshal(record)
		if err != nil {
			zap.L().Warn("Unable to encode record for audit", zap.String("record_id", record.RecordId), zap.Error(err))
		}

		result, err := l.ingester.IngestEvent(ctx, event, payload)
		if err != nil {
			zap.L().Error("Failed to ingest provider record",
				zap.String("event_id", event.EventId),
				zap.String("user_id", account.UserId),
				zap.Error(err))
			stats.Failed++
			continue
		}

		l.markEventProcessed(event.EventId)
		if result.Duplicate {
			stats.Duplicates++
		} else {
			stats.Ingested++
			if l.invalidator != nil {
				l.invalidator.InvalidateUser(ctx, account.UserId)
			}
			zap.L().Info("Recovered provider event",
				zap.String("event_id", event.EventId),
				zap.String("type", string(event.Type)),
				zap.String("user_id", account.UserId),
				zap.String("amount", event.Amount.String()))
		}
	}
	return stats, nil
}

// eventFromRecord maps a record to the event its webhook would have produced.
// Only completed deposits and terminal withdrawals have effects to recover.
func eventFromRecord(providerName, userId string, r models.ProviderRecord) (models.WebhookEvent, bool) {
	switch r.Type {
	case models.WebhookDeposit:
		if r.Status != models.TxStatusCompleted {
			return models.WebhookEvent{}, false
		}
	case models.WebhookWithdrawal:
		if !r.Status.Terminal() || r.OrderId == "" {
			return models.WebhookEvent{}, false
		}
	default:
		return models.WebhookEvent{}, false
	}
	if r.RecordId == "" {
		return models.WebhookEvent{}, false
	}

	return models.WebhookEvent{
		Provider:   providerName,
		EventId:    provider.EventId(r.RecordId, r.Status),
		Type:       r.Type,
		UserId:     userId,
		OrderId:    r.OrderId,
		RecordId:   r.RecordId,
		CoinId:     r.CoinId,
		CoinSymbol: r.CoinSymbol,
		Chain:      r.Chain,
		Amount:     r.Amount,
		TxHash:     r.TxHash,
		Status:     r.Status,
	}, true
}
