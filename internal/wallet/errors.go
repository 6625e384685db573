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
	"errors"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/metrics"
	"dgt-wallet-go/internal/store"

	"go.uber.org/zap"
)

// normalize maps any error to the public taxonomy. Typed errors pass through.
func normalize(op string, err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}

	switch {
	case errors.Is(err, store.ErrWalletNotFound):
		return apperr.NotFound(op, "wallet not found").Wrap(err)
	case errors.Is(err, store.ErrProviderAccountNotFound):
		return apperr.NotFound(op, "provider account not found").Wrap(err)
	case errors.Is(err, store.ErrRecordNotFound):
		return apperr.NotFound(op, "record not found").Wrap(err)
	case errors.Is(err, store.ErrInsufficientFunds):
		return apperr.InsufficientFunds(op, "insufficient DGT balance").Wrap(err)
	case errors.Is(err, store.ErrWalletInactive):
		return apperr.Forbidden(op, "wallet is not active").WithCode(apperr.CodeWalletInactive).Wrap(err)
	case errors.Is(err, store.ErrBalanceCapExceeded):
		return apperr.Validation(op, "balance cap exceeded").WithCode(apperr.CodeBalanceCapExceeded).Wrap(err)
	default:
		return apperr.Unknown(op, err)
	}
}

// fail normalizes err and reports it with the operation name
func fail(op string, err error, fields ...zap.Field) error {
	normalized := normalize(op, err)
	metrics.OperationErrors.WithLabelValues(op, string(normalized.Kind)).Inc()

	logFields := append([]zap.Field{
		zap.String("op", op),
		zap.String("kind", string(normalized.Kind)),
		zap.Error(err),
	}, fields...)
	if normalized.Code != "" {
		logFields = append(logFields, zap.String("code", normalized.Code))
	}
	zap.L().Error("Wallet operation failed", logFields...)
	return normalized
}
