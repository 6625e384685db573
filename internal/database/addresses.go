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
	"fmt"
	"strings"

	"dgt-wallet-go/internal/models"

	"go.uber.org/zap"
)

// StoreDepositAddress upserts the address of a (user, coin, chain) triple.
// The provider may rotate an address; the latest one wins.
func (s *Service) StoreDepositAddress(ctx context.Context, address models.DepositAddress) (*models.DepositAddress, error) {
	zap.L().Info("Storing deposit address",
		zap.String("user_id", address.UserId),
		zap.String("coin", address.CoinSymbol),
		zap.String("chain", address.Chain),
		zap.String("address", address.Address))

	_, err := s.db.ExecContext(ctx, s.dialect.q(queryUpsertDepositAddress),
		address.UserId, address.CoinSymbol, address.Chain, address.Address, address.Memo, address.QRCodeURL, now())
	if err != nil {
		zap.L().Error("Failed to store deposit address",
			zap.String("user_id", address.UserId),
			zap.String("coin", address.CoinSymbol),
			zap.Error(err))
		return nil, fmt.Errorf("unable to store deposit address: %w", err)
	}

	stored, err := scanDepositAddress(s.db.QueryRowContext(ctx, s.dialect.q(queryGetDepositAddress),
		address.UserId, address.CoinSymbol, address.Chain))
	if err != nil {
		return nil, fmt.Errorf("unable to read back deposit address: %w", err)
	}
	return stored, nil
}

func (s *Service) GetDepositAddresses(ctx context.Context, userId string) ([]models.DepositAddress, error) {
	zap.L().Debug("Querying deposit addresses", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, s.dialect.q(queryGetDepositAddresses), userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query deposit addresses: %w", err)
	}
	defer closeRows(rows)

	var addresses []models.DepositAddress
	for rows.Next() {
		addr, err := scanDepositAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan deposit address row: %w", err)
		}
		addresses = append(addresses, *addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit address rows: %w", err)
	}

	zap.L().Debug("Found deposit addresses", zap.String("user_id", userId), zap.Int("count", len(addresses)))
	return addresses, nil
}

func (s *Service) UpsertSupportedToken(ctx context.Context, token models.SupportedToken) error {
	_, err := s.db.ExecContext(ctx, s.dialect.q(queryUpsertSupportedToken),
		token.CoinSymbol, token.CoinId, strings.Join(token.Chains, ","), token.IsActive, now())
	if err != nil {
		return fmt.Errorf("unable to upsert supported token %s: %w", token.CoinSymbol, err)
	}
	zap.L().Info("Supported token stored",
		zap.String("coin", token.CoinSymbol),
		zap.Strings("chains", token.Chains),
		zap.Bool("active", token.IsActive))
	return nil
}

func (s *Service) ListSupportedTokens(ctx context.Context, activeOnly bool) ([]models.SupportedToken, error) {
	query, args := queryListSupportedTokens, []any{}
	if activeOnly {
		query, args = queryListActiveSupportedTokens, []any{true}
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("unable to list supported tokens: %w", err)
	}
	defer closeRows(rows)

	var tokens []models.SupportedToken
	for rows.Next() {
		var (
			token  models.SupportedToken
			chains string
		)
		if err := rows.Scan(&token.CoinSymbol, &token.CoinId, &chains, &token.IsActive, &token.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan supported token row: %w", err)
		}
		if chains != "" {
			token.Chains = strings.Split(chains, ",")
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supported token rows: %w", err)
	}
	return tokens, nil
}

func scanDepositAddress(row scanner) (*models.DepositAddress, error) {
	var addr models.DepositAddress
	if err := row.Scan(&addr.UserId, &addr.CoinSymbol, &addr.Chain, &addr.Address, &addr.Memo, &addr.QRCodeURL, &addr.CreatedAt); err != nil {
		return nil, err
	}
	return &addr, nil
}
