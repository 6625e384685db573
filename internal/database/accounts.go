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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetProviderAccount(ctx context.Context, userId, provider string) (*models.ProviderAccount, error) {
	account, err := scanProviderAccount(s.db.QueryRowContext(ctx, s.dialect.q(queryGetProviderAccount), userId, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s on %s", store.ErrProviderAccountNotFound, userId, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get provider account: %w", err)
	}
	return account, nil
}

// FindProviderAccount resolves the internal user behind a provider identity
func (s *Service) FindProviderAccount(ctx context.Context, provider, providerUserId string) (*models.ProviderAccount, error) {
	account, err := scanProviderAccount(s.db.QueryRowContext(ctx, s.dialect.q(queryFindProviderAccount), provider, providerUserId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s user %s", store.ErrProviderAccountNotFound, provider, providerUserId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to find provider account: %w", err)
	}
	return account, nil
}

// CreateProviderAccount stores the mapping once; later calls return the
// existing row and false.
func (s *Service) CreateProviderAccount(ctx context.Context, account models.ProviderAccount) (*models.ProviderAccount, bool, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.q(queryInsertProviderAccount),
		account.UserId, account.Provider, account.ProviderUserId, now())
	if err != nil {
		zap.L().Error("Failed to insert provider account",
			zap.String("user_id", account.UserId),
			zap.String("provider", account.Provider),
			zap.Error(err))
		return nil, false, fmt.Errorf("unable to insert provider account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	stored, err := s.GetProviderAccount(ctx, account.UserId, account.Provider)
	if err != nil {
		return nil, false, err
	}

	if n > 0 {
		zap.L().Info("Provider account created",
			zap.String("user_id", stored.UserId),
			zap.String("provider", stored.Provider),
			zap.String("provider_user_id", stored.ProviderUserId))
	}
	return stored, n > 0, nil
}

func (s *Service) ListProviderAccounts(ctx context.Context, provider string) ([]models.ProviderAccount, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.q(queryListProviderAccounts), provider)
	if err != nil {
		return nil, fmt.Errorf("unable to list provider accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []models.ProviderAccount
	for rows.Next() {
		account, err := scanProviderAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan provider account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provider account rows: %w", err)
	}
	return accounts, nil
}

func scanProviderAccount(row scanner) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	if err := row.Scan(&account.UserId, &account.Provider, &account.ProviderUserId, &account.CreatedAt); err != nil {
		return nil, err
	}
	return &account, nil
}
