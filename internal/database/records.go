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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateWithdrawalRecord(ctx context.Context, record models.WithdrawalRecord) error {
	ts := now()
	if record.Status == "" {
		record.Status = models.TxStatusPending
	}

	_, err := s.db.ExecContext(ctx, s.dialect.q(queryInsertWithdrawalRecord),
		record.OrderId, record.UserId, record.CoinSymbol, record.Chain, record.Address, record.Memo,
		record.Amount.String(), record.Fee.String(), record.RecordId, record.TxHash, string(record.Status), ts, ts)
	if err != nil {
		zap.L().Error("Failed to insert withdrawal record", zap.String("order_id", record.OrderId), zap.Error(err))
		return fmt.Errorf("unable to insert withdrawal record: %w", err)
	}

	zap.L().Info("Withdrawal record stored",
		zap.String("order_id", record.OrderId),
		zap.String("user_id", record.UserId),
		zap.String("coin", record.CoinSymbol),
		zap.String("amount", record.Amount.String()))
	return nil
}

func (s *Service) GetWithdrawalRecord(ctx context.Context, orderId string) (*models.WithdrawalRecord, error) {
	record, err := scanWithdrawalRecord(s.db.QueryRowContext(ctx, s.dialect.q(queryGetWithdrawalRecord), orderId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: withdrawal %s", store.ErrRecordNotFound, orderId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get withdrawal record: %w", err)
	}
	return record, nil
}

func (s *Service) CreateSwapRecord(ctx context.Context, record models.SwapRecord) error {
	ts := now()
	if record.Status == "" {
		record.Status = models.TxStatusPending
	}

	_, err := s.db.ExecContext(ctx, s.dialect.q(queryInsertSwapRecord),
		record.RecordId, record.OrderId, record.UserId, record.FromCoinId, record.ToCoinId,
		record.FromAmount.String(), record.ToAmount.String(), string(record.Status), ts, ts)
	if err != nil {
		zap.L().Error("Failed to insert swap record", zap.String("record_id", record.RecordId), zap.Error(err))
		return fmt.Errorf("unable to insert swap record: %w", err)
	}

	zap.L().Info("Swap record stored",
		zap.String("record_id", record.RecordId),
		zap.String("user_id", record.UserId),
		zap.Int64("from_coin_id", record.FromCoinId),
		zap.Int64("to_coin_id", record.ToCoinId))
	return nil
}

func (s *Service) GetSwapRecord(ctx context.Context, recordId string) (*models.SwapRecord, error) {
	record, err := scanSwapRecord(s.db.QueryRowContext(ctx, s.dialect.q(queryGetSwapRecord), recordId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: swap %s", store.ErrRecordNotFound, recordId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to get swap record: %w", err)
	}
	return record, nil
}

// transitionWithdrawal applies t under the row lock. It reports false when
// the record is unknown or the transition is not allowed; terminal states
// are never left.
func (s *Service) transitionWithdrawal(ctx context.Context, tx *sql.Tx, t store.StatusTransition) (bool, error) {
	record, err := scanWithdrawalRecord(tx.QueryRowContext(ctx, s.dialect.forUpdate(queryGetWithdrawalRecord), t.Key))
	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Warn("Status update for unknown withdrawal", zap.String("order_id", t.Key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock withdrawal record: %w", err)
	}
	if !models.CanTransition(record.Status, t.Status) {
		zap.L().Info("Ignoring withdrawal status change",
			zap.String("order_id", t.Key),
			zap.String("from", string(record.Status)),
			zap.String("to", string(t.Status)))
		return false, nil
	}

	_, err = tx.ExecContext(ctx, s.dialect.q(queryUpdateWithdrawalStatus),
		string(t.Status), t.RecordId, t.RecordId, t.TxHash, t.TxHash, now(), t.Key)
	if err != nil {
		return false, fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	return true, nil
}

func (s *Service) transitionSwap(ctx context.Context, tx *sql.Tx, t store.StatusTransition) (bool, error) {
	record, err := scanSwapRecord(tx.QueryRowContext(ctx, s.dialect.forUpdate(queryGetSwapRecord), t.Key))
	if errors.Is(err, sql.ErrNoRows) {
		zap.L().Warn("Status update for unknown swap", zap.String("record_id", t.Key))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock swap record: %w", err)
	}
	if !models.CanTransition(record.Status, t.Status) {
		zap.L().Info("Ignoring swap status change",
			zap.String("record_id", t.Key),
			zap.String("from", string(record.Status)),
			zap.String("to", string(t.Status)))
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, s.dialect.q(queryUpdateSwapStatus), string(t.Status), now(), t.Key); err != nil {
		return false, fmt.Errorf("failed to update swap status: %w", err)
	}
	return true, nil
}

func scanWithdrawalRecord(row scanner) (*models.WithdrawalRecord, error) {
	var (
		r                 models.WithdrawalRecord
		amountStr, feeStr string
		status            string
	)
	err := row.Scan(&r.OrderId, &r.UserId, &r.CoinSymbol, &r.Chain, &r.Address, &r.Memo,
		&amountStr, &feeStr, &r.RecordId, &r.TxHash, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if r.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if r.Fee, err = decimal.NewFromString(feeStr); err != nil {
		return nil, fmt.Errorf("failed to parse fee '%s': %w", feeStr, err)
	}
	r.Status = models.TransactionStatus(status)
	return &r, nil
}

func scanSwapRecord(row scanner) (*models.SwapRecord, error) {
	var (
		r              models.SwapRecord
		fromStr, toStr string
		status         string
	)
	err := row.Scan(&r.RecordId, &r.OrderId, &r.UserId, &r.FromCoinId, &r.ToCoinId,
		&fromStr, &toStr, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if r.FromAmount, err = decimal.NewFromString(fromStr); err != nil {
		return nil, fmt.Errorf("failed to parse from_amount '%s': %w", fromStr, err)
	}
	if r.ToAmount, err = decimal.NewFromString(toStr); err != nil {
		return nil, fmt.Errorf("failed to parse to_amount '%s': %w", toStr, err)
	}
	r.Status = models.TransactionStatus(status)
	return &r, nil
}
