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
	"strings"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func validateAmount(op string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation(op, "amount must be positive, got %s", amount).
			WithCode(apperr.CodeInvalidAmount).
			WithData("amount", amount.String())
	}
	return nil
}

func validateUser(op, userId string) error {
	if strings.TrimSpace(userId) == "" {
		return apperr.Validation(op, "user id is required")
	}
	return nil
}

// entryParams checks the metadata direction and encodes it
func (s *Service) entryParams(op, userId string, amount decimal.Decimal, metadata models.DgtTransactionMetadata, want models.Direction) (store.EntryParams, error) {
	if err := validateUser(op, userId); err != nil {
		return store.EntryParams{}, err
	}
	if err := validateAmount(op, amount); err != nil {
		return store.EntryParams{}, err
	}
	if metadata == nil {
		return store.EntryParams{}, apperr.Validation(op, "transaction metadata is required")
	}
	if metadata.Direction() != want {
		return store.EntryParams{}, apperr.Validation(op, "%s cannot be used for this operation", metadata.Source())
	}

	raw, err := models.EncodeMetadata(metadata)
	if err != nil {
		return store.EntryParams{}, err
	}
	return store.EntryParams{
		UserId:      userId,
		Amount:      amount,
		Type:        metadata.Source(),
		Description: metadata.Description(),
		Metadata:    raw,
		MaxBalance:  s.settings.MaxBalance,
	}, nil
}

// CreditDgt adds amount to the user's wallet, creating it if needed
func (s *Service) CreditDgt(ctx context.Context, userId string, amount decimal.Decimal, metadata models.DgtTransactionMetadata) (*models.Transaction, error) {
	const op = "creditDgt"
	fields := originFields(ctx, zap.String("user_id", userId), zap.String("amount", amount.String()))

	params, err := s.entryParams(op, userId, amount, metadata, models.Credit)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	tx, err := s.store.CreditWallet(ctx, params)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	zap.L().Info("DGT credited", append(fields, zap.String("type", string(tx.Type)), zap.String("transaction_id", tx.Id))...)
	return tx, nil
}

// DebitDgt removes amount from an active wallet holding at least amount
func (s *Service) DebitDgt(ctx context.Context, userId string, amount decimal.Decimal, metadata models.DgtTransactionMetadata) (*models.Transaction, error) {
	const op = "debitDgt"
	fields := originFields(ctx, zap.String("user_id", userId), zap.String("amount", amount.String()))

	params, err := s.entryParams(op, userId, amount, metadata, models.Debit)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	tx, err := s.store.DebitWallet(ctx, params)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	zap.L().Info("DGT debited", append(fields, zap.String("type", string(tx.Type)), zap.String("transaction_id", tx.Id))...)
	return tx, nil
}

// TransferDgt moves DGT between two active wallets and returns the sender's row
func (s *Service) TransferDgt(ctx context.Context, request models.TransferRequest) (*models.Transaction, error) {
	const op = "transferDgt"
	fields := originFields(ctx,
		zap.String("from_user_id", request.FromUserId),
		zap.String("to_user_id", request.ToUserId),
		zap.String("amount", request.Amount.String()))

	if err := validateUser(op, request.FromUserId); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateUser(op, request.ToUserId); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateAmount(op, request.Amount); err != nil {
		return nil, fail(op, err, fields...)
	}
	if request.FromUserId == request.ToUserId {
		return nil, fail(op, apperr.Validation(op, "cannot transfer to self").WithCode(apperr.CodeSelfTransfer), fields...)
	}

	out := models.TransferOut{ToUserId: request.ToUserId, Reason: request.Reason, Extra: request.Metadata}
	in := models.TransferIn{FromUserId: request.FromUserId, Reason: request.Reason, Extra: request.Metadata}
	outRaw, err := models.EncodeMetadata(out)
	if err != nil {
		return nil, fail(op, err, fields...)
	}
	inRaw, err := models.EncodeMetadata(in)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	result, err := s.store.Transfer(ctx, store.TransferParams{
		FromUserId:     request.FromUserId,
		ToUserId:       request.ToUserId,
		Amount:         request.Amount,
		Reference:      s.newId(),
		OutDescription: out.Description(),
		InDescription:  in.Description(),
		OutMetadata:    outRaw,
		InMetadata:     inRaw,
		MaxBalance:     s.settings.MaxBalance,
	})
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	zap.L().Info("DGT transferred", append(fields, zap.String("reference", result.Out.Reference))...)
	return result.Out, nil
}

// SetWalletStatus applies a moderation status to an existing wallet
func (s *Service) SetWalletStatus(ctx context.Context, userId string, status models.WalletStatus) error {
	const op = "setWalletStatus"
	fields := originFields(ctx, zap.String("user_id", userId), zap.String("status", string(status)))

	if !status.Valid() {
		return fail(op, apperr.Validation(op, "unknown wallet status %q", status), fields...)
	}
	if err := s.store.SetWalletStatus(ctx, userId, status); err != nil {
		return fail(op, err, fields...)
	}

	zap.L().Info("Wallet status changed", fields...)
	return nil
}

// ReconcileWallet checks the balance against the sum of completed entries
func (s *Service) ReconcileWallet(ctx context.Context, userId string) error {
	const op = "reconcileWallet"
	if err := s.store.ReconcileWallet(ctx, userId); err != nil {
		return fail(op, err, zap.String("user_id", userId))
	}
	return nil
}
