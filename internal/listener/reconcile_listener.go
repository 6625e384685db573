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
	"fmt"
	"sync"
	"time"

	"dgt-wallet-go/internal/models"

	"go.uber.org/zap"
)

// EventIngester applies a provider event exactly once
type EventIngester interface {
	IngestEvent(ctx context.Context, event models.WebhookEvent, payload []byte) (*models.WebhookResult, error)
}

// RecordLister reads a user's provider-side deposit and withdrawal records
type RecordLister interface {
	ListRecords(ctx context.Context, userId string, since time.Time) ([]models.ProviderRecord, error)
}

// AccountSource lists the users mapped to a provider
type AccountSource interface {
	ListProviderAccounts(ctx context.Context, provider string) ([]models.ProviderAccount, error)
}

// CacheInvalidator drops cached provider reads for a user
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userId string)
}

// ReconcileListenerConfig contains configuration for ReconcileListener
type ReconcileListenerConfig struct {
	Provider        string
	Accounts        AccountSource
	Records         RecordLister
	Ingester        EventIngester
	// Invalidator is optional; recovered events drop the user's cache entries
	Invalidator     CacheInvalidator
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
	// Concurrency bounds the accounts polled at once; defaults to 4
	Concurrency int
}

// ReconcileListener polls the provider's record lists and feeds events the
// webhook path missed into the same idempotent ingestion.
type ReconcileListener struct {
	provider    string
	accounts    AccountSource
	records     RecordLister
	ingester    EventIngester
	invalidator CacheInvalidator

	// Event ids ingested recently, to skip the store round trip
	processedEventIds map[string]time.Time
	mutex             sync.RWMutex
	lookbackWindow    time.Duration
	pollingInterval   time.Duration
	cleanupInterval   time.Duration
	concurrency       int

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func NewReconcileListener(cfg ReconcileListenerConfig) (*ReconcileListener, error) {
	if cfg.Accounts == nil || cfg.Records == nil || cfg.Ingester == nil {
		return nil, fmt.Errorf("accounts, records and ingester are required")
	}
	if cfg.PollingInterval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.LookbackWindow <= 0 {
		return nil, fmt.Errorf("lookback window must be positive, got %v", cfg.LookbackWindow)
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cfg.LookbackWindow
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &ReconcileListener{
		provider:          cfg.Provider,
		accounts:          cfg.Accounts,
		records:           cfg.Records,
		ingester:          cfg.Ingester,
		invalidator:       cfg.Invalidator,
		processedEventIds: make(map[string]time.Time),
		lookbackWindow:    cfg.LookbackWindow,
		pollingInterval:   cfg.PollingInterval,
		cleanupInterval:   cfg.CleanupInterval,
		concurrency:       cfg.Concurrency,
		stopChan:          make(chan struct{}),
		doneChan:          make(chan struct{}),
	}, nil
}

// Start launches the poll and cleanup loops. The first poll runs immediately
// and covers the lookback window, which recovers events missed while down.
func (l *ReconcileListener) Start(ctx context.Context) {
	zap.L().Info("Starting reconciliation listener", zap.String("provider", l.provider))

	go l.pollLoop(ctx)
	go l.cleanupLoop(ctx)

	zap.L().Info("Reconciliation listener started successfully",
		zap.Duration("polling_interval", l.pollingInterval),
		zap.Duration("lookback_window", l.lookbackWindow))
}

// Stop gracefully stops the listener and waits for the current poll
func (l *ReconcileListener) Stop() {
	l.stopOnce.Do(func() {
		zap.L().Info("Stopping reconciliation listener")
		close(l.stopChan)
	})
	<-l.doneChan
	zap.L().Info("Reconciliation listener stopped")
}

func (l *ReconcileListener) pollLoop(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	l.PollOnce(ctx)

	for {
		select {
		case <-ticker.C:
			l.PollOnce(ctx)
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (l *ReconcileListener) isEventProcessed(eventId string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	_, exists := l.processedEventIds[eventId]
	return exists
}

func (l *ReconcileListener) markEventProcessed(eventId string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.processedEventIds[eventId] = time.Now()
}

func (l *ReconcileListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanupProcessedEvents(time.Now())
		case <-l.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupProcessedEvents forgets ids older than the lookback window; records
// that old are no longer returned by the provider query.
func (l *ReconcileListener) cleanupProcessedEvents(now time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	cutoff := now.Add(-l.lookbackWindow)
	cleaned := 0
	for eventId, processedAt := range l.processedEventIds {
		if processedAt.Before(cutoff) {
			delete(l.processedEventIds, eventId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up old processed events",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(l.processedEventIds)))
	}
}
