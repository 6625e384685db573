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
	"context"
	"fmt"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/cache"
	"dgt-wallet-go/internal/metrics"
	"dgt-wallet-go/internal/models"

	"go.uber.org/zap"
)

const (
	balancePrefix     = "balance:"
	transactionPrefix = "transactions:"
)

var (
	_ Adapter          = (*CachedAdapter)(nil)
	_ AccountManager   = (*CachedAdapter)(nil)
	_ Swapper          = (*CachedAdapter)(nil)
	_ RecordLister     = (*CachedAdapter)(nil)
	_ MerchantReporter = (*CachedAdapter)(nil)
)

// CachedAdapter memoizes the read-heavy calls of another Adapter. Deposit
// addresses, withdrawals and webhooks always reach the provider.
type CachedAdapter struct {
	inner      Adapter
	cache      cache.Cache
	balanceTTL time.Duration
	historyTTL time.Duration
}

func NewCachedAdapter(inner Adapter, c cache.Cache, balanceTTL, historyTTL time.Duration) *CachedAdapter {
	return &CachedAdapter{
		inner:      inner,
		cache:      c,
		balanceTTL: balanceTTL,
		historyTTL: historyTTL,
	}
}

func balanceKey(userId string) string {
	return balancePrefix + userId
}

func historyKey(userId string, opts models.HistoryOptions) string {
	return fmt.Sprintf("%s%s:%d:%d:%s:%s", transactionPrefix, userId, opts.Page, opts.Limit, opts.SortBy, opts.SortOrder)
}

// lookup reports a hit; cache failures count as misses
func (c *CachedAdapter) lookup(ctx context.Context, op, key string, dst any) bool {
	found, err := c.cache.Get(ctx, key, dst)
	switch {
	case err != nil:
		zap.L().Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(op, metrics.ResultError).Inc()
		return false
	case found:
		metrics.CacheLookups.WithLabelValues(op, metrics.ResultHit).Inc()
		return true
	default:
		metrics.CacheLookups.WithLabelValues(op, metrics.ResultMiss).Inc()
		return false
	}
}

func (c *CachedAdapter) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		zap.L().Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedAdapter) GetUserBalance(ctx context.Context, userId string) ([]models.CryptoBalance, error) {
	key := balanceKey(userId)
	var cached []models.CryptoBalance
	if c.lookup(ctx, "balance", key, &cached) {
		return cached, nil
	}

	balances, err := c.inner.GetUserBalance(ctx, userId)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, balances, c.balanceTTL)
	return balances, nil
}

func (c *CachedAdapter) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error) {
	key := historyKey(userId, opts)
	var cached []models.Transaction
	if c.lookup(ctx, "transactions", key, &cached) {
		return cached, nil
	}

	transactions, err := c.inner.GetTransactionHistory(ctx, userId, opts)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, transactions, c.historyTTL)
	return transactions, nil
}

func (c *CachedAdapter) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error) {
	return c.inner.CreateDepositAddress(ctx, userId, coinSymbol, chain)
}

func (c *CachedAdapter) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	c.InvalidateUser(ctx, userId)
	return c.inner.RequestWithdrawal(ctx, userId, request)
}

// ProcessWebhook drops every balance and history entry once a delivery is
// accepted; a rejected delivery leaves the cache untouched.
func (c *CachedAdapter) ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (*models.WebhookEvent, error) {
	event, err := c.inner.ProcessWebhook(ctx, delivery)
	if err != nil {
		return nil, err
	}
	c.InvalidateAll(ctx)
	return event, nil
}

func (c *CachedAdapter) GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	return c.inner.GetSupportedCoins(ctx)
}

func (c *CachedAdapter) GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error) {
	return c.inner.GetTokenInfo(ctx, coinSymbol)
}

func (c *CachedAdapter) ValidateAddress(ctx context.Context, chain, address string) (bool, error) {
	return c.inner.ValidateAddress(ctx, chain, address)
}

func (c *CachedAdapter) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error) {
	return c.inner.GetWithdrawFee(ctx, coinSymbol, chain)
}

func (c *CachedAdapter) EnsureAccount(ctx context.Context, userId string) (*models.ProviderAccount, bool, error) {
	manager, ok := c.inner.(AccountManager)
	if !ok {
		return nil, false, apperr.PaymentProvider("ensureAccount", ErrNotSupported)
	}
	return manager.EnsureAccount(ctx, userId)
}

func (c *CachedAdapter) RequestSwap(ctx context.Context, userId string, request models.SwapRequest) (*models.SwapResponse, error) {
	swapper, ok := c.inner.(Swapper)
	if !ok {
		return nil, apperr.PaymentProvider("requestSwap", ErrNotSupported)
	}
	c.InvalidateUser(ctx, userId)
	return swapper.RequestSwap(ctx, userId, request)
}

func (c *CachedAdapter) GetSwapCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	swapper, ok := c.inner.(Swapper)
	if !ok {
		return nil, apperr.PaymentProvider("getSwapCoins", ErrNotSupported)
	}
	return swapper.GetSwapCoins(ctx)
}

func (c *CachedAdapter) ListRecords(ctx context.Context, userId string, since time.Time) ([]models.ProviderRecord, error) {
	lister, ok := c.inner.(RecordLister)
	if !ok {
		return nil, apperr.PaymentProvider("listRecords", ErrNotSupported)
	}
	return lister.ListRecords(ctx, userId, since)
}

func (c *CachedAdapter) GetMerchantAssets(ctx context.Context) ([]models.CryptoBalance, error) {
	reporter, ok := c.inner.(MerchantReporter)
	if !ok {
		return nil, apperr.PaymentProvider("getMerchantAssets", ErrNotSupported)
	}
	return reporter.GetMerchantAssets(ctx)
}

// InvalidateUser drops the cached balance and every history page of userId
func (c *CachedAdapter) InvalidateUser(ctx context.Context, userId string) {
	if err := c.cache.Delete(ctx, balanceKey(userId)); err != nil {
		zap.L().Warn("Failed to invalidate balance cache", zap.String("user_id", userId), zap.Error(err))
	}
	if err := c.cache.DeletePrefix(ctx, transactionPrefix+userId+":"); err != nil {
		zap.L().Warn("Failed to invalidate history cache", zap.String("user_id", userId), zap.Error(err))
	}
}

func (c *CachedAdapter) InvalidateAll(ctx context.Context) {
	for _, prefix := range []string{balancePrefix, transactionPrefix} {
		if err := c.cache.DeletePrefix(ctx, prefix); err != nil {
			zap.L().Warn("Failed to invalidate cache", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
