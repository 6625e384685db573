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

package wallet

import (
	"context"
	"errors"
	"sort"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetUserBalance merges the DGT ledger balance with provider-held crypto. A
// user without a wallet row reads as zero; nothing is created.
func (s *Service) GetUserBalance(ctx context.Context, userId string) (*models.WalletBalance, error) {
	const op = "getUserBalance"
	fields := []zap.Field{zap.String("user_id", userId)}
	zap.L().Debug("Getting user balance", fields...)

	if err := validateUser(op, userId); err != nil {
		return nil, fail(op, err, fields...)
	}

	balance := &models.WalletBalance{
		UserId:    userId,
		Dgt:       decimal.Zero,
		DgtStatus: models.WalletStatusActive,
		Crypto:    []models.CryptoBalance{},
		UpdatedAt: time.Now().UTC(),
	}

	wallet, err := s.store.GetWallet(ctx, userId)
	switch {
	case errors.Is(err, store.ErrWalletNotFound):
	case err != nil:
		return nil, fail(op, err, fields...)
	default:
		balance.Dgt = wallet.Balance
		balance.DgtStatus = wallet.Status
	}

	crypto, err := s.adapter.GetUserBalance(ctx, userId)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		zap.L().Warn("No provider account for user, reporting DGT only", fields...)
	case err != nil:
		return nil, fail(op, err, fields...)
	default:
		balance.Crypto = crypto
	}
	return balance, nil
}

// GetTransactionHistory merges ledger rows with provider records. Both sources
// are read up to the end of the requested page, merged, sorted and sliced.
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error) {
	const op = "getTransactionHistory"
	opts = opts.Normalize()
	fields := []zap.Field{
		zap.String("user_id", userId),
		zap.Int("page", opts.Page),
		zap.Int("limit", opts.Limit),
	}
	zap.L().Debug("Getting transaction history", fields...)

	if err := validateUser(op, userId); err != nil {
		return nil, fail(op, err, fields...)
	}
	if opts.SortBy != "created_at" && opts.SortBy != "amount" {
		return nil, fail(op, apperr.Validation(op, "cannot sort by %q", opts.SortBy), fields...)
	}
	window := opts.Offset() + opts.Limit
	if window > maxMergeWindow {
		return nil, fail(op, apperr.Validation(op, "page %d is beyond the history window", opts.Page), fields...)
	}

	local, err := s.store.GetTransactionHistory(ctx, userId, window, 0)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	remote, err := s.adapter.GetTransactionHistory(ctx, userId, opts)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		remote = nil
	case err != nil:
		return nil, fail(op, err, fields...)
	}

	merged := mergeHistory(local, remote, opts)
	return merged, nil
}

// mergeHistory cuts the requested page from the combined newest-first
// timeline, then orders the page by the requested key.
func mergeHistory(local, remote []models.Transaction, opts models.HistoryOptions) []models.Transaction {
	merged := make([]models.Transaction, 0, len(local)+len(remote))
	merged = append(merged, local...)
	merged = append(merged, remote...)

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].Id > merged[j].Id
	})

	offset := opts.Offset()
	if offset >= len(merged) {
		return []models.Transaction{}
	}
	end := offset + opts.Limit
	if end > len(merged) {
		end = len(merged)
	}
	page := merged[offset:end]

	if opts.SortBy == "amount" || opts.SortOrder == "asc" {
		sort.SliceStable(page, func(i, j int) bool {
			a, b := page[i], page[j]
			if opts.SortOrder == "desc" {
				a, b = b, a
			}
			if opts.SortBy == "amount" {
				return a.Amount.LessThan(b.Amount)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})
	}
	return page
}
