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
	"encoding/json"
	"fmt"
	"sort"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreditWallet adds params.Amount to the user's wallet, creating it if
// needed. Credits land on any wallet status.
func (s *Service) CreditWallet(ctx context.Context, params store.EntryParams) (*models.Transaction, error) {
	zap.L().Info("Processing credit",
		zap.String("user_id", params.UserId),
		zap.String("type", string(params.Type)),
		zap.String("amount", params.Amount.String()))

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive, got %s", params.Amount)
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wallet, _, err := s.getOrCreateWalletForUpdate(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		transaction, err = s.applyEntry(ctx, tx, wallet, params, params.Amount)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to credit wallet: %w", err)
	}

	return transaction, nil
}

// DebitWallet subtracts params.Amount from an active wallet. The balance
// check happens under the row lock.
func (s *Service) DebitWallet(ctx context.Context, params store.EntryParams) (*models.Transaction, error) {
	zap.L().Info("Processing debit",
		zap.String("user_id", params.UserId),
		zap.String("type", string(params.Type)),
		zap.String("amount", params.Amount.String()))

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("debit amount must be positive, got %s", params.Amount)
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wallet, err := s.lockWallet(ctx, tx, params.UserId)
		if err != nil {
			return err
		}
		if wallet.Status != models.WalletStatusActive {
			return fmt.Errorf("%w: user %s is %s", store.ErrWalletInactive, params.UserId, wallet.Status)
		}
		transaction, err = s.applyEntry(ctx, tx, wallet, params, params.Amount.Neg())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to debit wallet: %w", err)
	}

	return transaction, nil
}

// Transfer moves funds between two wallets in one transaction. Both rows
// are locked in ascending user id order whatever the direction, so that
// A->B and B->A running together cannot deadlock.
func (s *Service) Transfer(ctx context.Context, params store.TransferParams) (*store.TransferResult, error) {
	zap.L().Info("Processing transfer",
		zap.String("from_user_id", params.FromUserId),
		zap.String("to_user_id", params.ToUserId),
		zap.String("amount", params.Amount.String()))

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive, got %s", params.Amount)
	}
	if params.FromUserId == params.ToUserId {
		return nil, fmt.Errorf("cannot transfer to the same user %s", params.FromUserId)
	}

	reference := params.Reference
	if reference == "" {
		reference = uuid.New().String()
	}

	result := &store.TransferResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order := []string{params.FromUserId, params.ToUserId}
		sort.Strings(order)

		locked := make(map[string]*models.Wallet, 2)
		for _, userId := range order {
			wallet, err := s.lockWallet(ctx, tx, userId)
			if err != nil {
				return err
			}
			locked[userId] = wallet
		}

		sender, receiver := locked[params.FromUserId], locked[params.ToUserId]
		for _, w := range []*models.Wallet{sender, receiver} {
			if w.Status != models.WalletStatusActive {
				return fmt.Errorf("%w: user %s is %s", store.ErrWalletInactive, w.UserId, w.Status)
			}
		}

		var err error
		result.Out, err = s.applyEntry(ctx, tx, sender, store.EntryParams{
			UserId:      params.FromUserId,
			Amount:      params.Amount,
			Type:        models.TxTransferOut,
			Description: params.OutDescription,
			Metadata:    params.OutMetadata,
			FromUserId:  params.FromUserId,
			ToUserId:    params.ToUserId,
			Reference:   reference,
		}, params.Amount.Neg())
		if err != nil {
			return err
		}

		result.In, err = s.applyEntry(ctx, tx, receiver, store.EntryParams{
			UserId:      params.ToUserId,
			Amount:      params.Amount,
			Type:        models.TxTransferIn,
			Description: params.InDescription,
			Metadata:    params.InMetadata,
			FromUserId:  params.FromUserId,
			ToUserId:    params.ToUserId,
			Reference:   reference,
			MaxBalance:  params.MaxBalance,
		}, params.Amount)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to transfer: %w", err)
	}

	zap.L().Info("Transfer processed successfully",
		zap.String("reference", reference),
		zap.String("from_user_id", params.FromUserId),
		zap.String("to_user_id", params.ToUserId))
	return result, nil
}

// applyEntry updates a locked wallet by delta and appends the matching
// completed transaction row.
func (s *Service) applyEntry(ctx context.Context, tx *sql.Tx, wallet *models.Wallet, params store.EntryParams, delta decimal.Decimal) (*models.Transaction, error) {
	newBalance := wallet.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: user %s has %s, needs %s",
			store.ErrInsufficientFunds, wallet.UserId, wallet.Balance, delta.Neg())
	}
	if delta.IsPositive() && params.MaxBalance.IsPositive() && newBalance.GreaterThan(params.MaxBalance) {
		return nil, fmt.Errorf("%w: user %s would hold %s, cap is %s",
			store.ErrBalanceCapExceeded, wallet.UserId, newBalance, params.MaxBalance)
	}

	ts := now()
	transaction := &models.Transaction{
		Id:          uuid.New().String(),
		UserId:      wallet.UserId,
		WalletId:    wallet.Id,
		Amount:      delta,
		Currency:    models.DgtCurrency,
		Type:        params.Type,
		Status:      models.TxStatusCompleted,
		Description: params.Description,
		Metadata:    params.Metadata,
		FromUserId:  params.FromUserId,
		ToUserId:    params.ToUserId,
		Reference:   params.Reference,
		ExternalId:  params.ExternalId,
		Source:      models.SourceLedger,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	_, err := tx.ExecContext(ctx, s.dialect.q(queryInsertTransaction),
		transaction.Id, transaction.UserId, transaction.WalletId, transaction.Amount.String(),
		transaction.Currency, string(transaction.Type), string(transaction.Status), transaction.Description,
		nullableJSON(transaction.Metadata), transaction.FromUserId, transaction.ToUserId,
		transaction.Reference, transaction.ExternalId, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.q(queryUpdateWalletBalance), newBalance.String(), ts, ts, wallet.Id); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	zap.L().Info("Transaction processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", wallet.UserId),
		zap.String("type", string(transaction.Type)),
		zap.String("old_balance", wallet.Balance.String()),
		zap.String("new_balance", newBalance.String()))

	wallet.Balance = newBalance
	wallet.LastTransaction = &ts
	wallet.UpdatedAt = ts
	return transaction, nil
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, s.dialect.q(queryGetTransactionHistory), userId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// ReconcileWallet checks that the stored balance equals the sum of the
// wallet's completed transactions.
func (s *Service) ReconcileWallet(ctx context.Context, userId string) error {
	wallet, err := s.GetWallet(ctx, userId)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.q(queryGetCompletedAmounts), wallet.Id)
	if err != nil {
		return fmt.Errorf("failed to load ledger amounts: %w", err)
	}
	defer closeRows(rows)

	calculated := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		calculated = calculated.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating amount rows: %w", err)
	}

	if !wallet.Balance.Equal(calculated) {
		zap.L().Error("Balance mismatch detected",
			zap.String("user_id", userId),
			zap.String("stored_balance", wallet.Balance.String()),
			zap.String("calculated_balance", calculated.String()))
		return fmt.Errorf("%w: user %s stored %s, calculated %s",
			store.ErrBalanceMismatch, userId, wallet.Balance, calculated)
	}

	zap.L().Debug("Wallet reconciled", zap.String("user_id", userId), zap.String("balance", wallet.Balance.String()))
	return nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t         models.Transaction
		amountStr string
		txType    string
		status    string
		metadata  sql.NullString
	)
	err := row.Scan(&t.Id, &t.UserId, &t.WalletId, &amountStr, &t.Currency, &txType, &status,
		&t.Description, &metadata, &t.FromUserId, &t.ToUserId, &t.Reference, &t.ExternalId,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	t.Type = models.TransactionType(txType)
	t.Status = models.TransactionStatus(status)
	t.Source = models.SourceLedger
	if metadata.Valid && metadata.String != "" {
		t.Metadata = json.RawMessage(metadata.String)
	}
	return &t, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
