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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetWallet returns the wallet of userId (O(1) lookup)
func (s *Service) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	zap.L().Debug("Getting wallet", zap.String("user_id", userId))

	wallet, err := scanWallet(s.db.QueryRowContext(ctx, s.dialect.q(queryGetWallet), userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", store.ErrWalletNotFound, userId)
	}
	if err != nil {
		zap.L().Error("Failed to get wallet", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.q(queryListWallets))
	if err != nil {
		return nil, fmt.Errorf("unable to list wallets: %w", err)
	}
	defer closeRows(rows)

	var wallets []models.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan wallet row: %w", err)
		}
		wallets = append(wallets, *wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	zap.L().Debug("Listed wallets", zap.Int("count", len(wallets)))
	return wallets, nil
}

// InitializeWallet creates the wallet if absent and, only when it was
// created by this call, books the welcome bonus in the same transaction.
func (s *Service) InitializeWallet(ctx context.Context, params store.InitializeWalletParams) (*store.InitializeWalletResult, error) {
	result := &store.InitializeWalletResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wallet, created, err := s.getOrCreateWalletForUpdate(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		result.Wallet = wallet
		result.Created = created

		if !created || !params.WelcomeBonus.IsPositive() {
			return nil
		}

		bonus, err := s.applyEntry(ctx, tx, wallet, store.EntryParams{
			UserId:      params.UserId,
			Amount:      params.WelcomeBonus,
			Type:        models.TxWelcomeBonus,
			Description: params.Description,
			Metadata:    params.Metadata,
		}, params.WelcomeBonus)
		if err != nil {
			return err
		}
		result.Bonus = bonus
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize wallet: %w", err)
	}

	zap.L().Info("Wallet initialized",
		zap.String("user_id", params.UserId),
		zap.Bool("created", result.Created),
		zap.Bool("welcome_bonus", result.Bonus != nil))
	return result, nil
}

func (s *Service) SetWalletStatus(ctx context.Context, userId string, status models.WalletStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid wallet status %q", status)
	}

	res, err := s.db.ExecContext(ctx, s.dialect.q(queryUpdateWalletStatus), string(status), now(), userId)
	if err != nil {
		return fmt.Errorf("unable to update wallet status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", store.ErrWalletNotFound, userId)
	}

	zap.L().Info("Wallet status updated", zap.String("user_id", userId), zap.String("status", string(status)))
	return nil
}

// getOrCreateWalletForUpdate inserts the wallet if absent, then reads it
// under the row lock.
func (s *Service) getOrCreateWalletForUpdate(ctx context.Context, tx *sql.Tx, userId string) (*models.Wallet, bool, error) {
	ts := now()
	res, err := tx.ExecContext(ctx, s.dialect.q(queryInsertWalletIfAbsent), uuid.New().String(), userId, ts, ts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	wallet, err := s.lockWallet(ctx, tx, userId)
	if err != nil {
		return nil, false, err
	}
	if n > 0 {
		zap.L().Info("Created wallet", zap.String("user_id", userId), zap.String("wallet_id", wallet.Id))
	}
	return wallet, n > 0, nil
}

// lockWallet reads a wallet row under SELECT ... FOR UPDATE
func (s *Service) lockWallet(ctx context.Context, tx *sql.Tx, userId string) (*models.Wallet, error) {
	wallet, err := scanWallet(tx.QueryRowContext(ctx, s.dialect.forUpdate(queryGetWallet), userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", store.ErrWalletNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return wallet, nil
}

func scanWallet(row scanner) (*models.Wallet, error) {
	var (
		wallet     models.Wallet
		balanceStr string
		status     string
		lastTx     sql.NullTime
	)
	if err := row.Scan(&wallet.Id, &wallet.UserId, &balanceStr, &status, &lastTx, &wallet.CreatedAt, &wallet.UpdatedAt); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	wallet.Balance = balance
	wallet.Status = models.WalletStatus(status)
	if lastTx.Valid {
		t := lastTx.Time
		wallet.LastTransaction = &t
	}
	return &wallet, nil
}
