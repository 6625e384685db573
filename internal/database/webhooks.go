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
	"fmt"

	"dgt-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplyWebhookEvent records the event and applies its effects in one
// transaction. The (provider, event_id) unique key makes redelivery a no-op:
// the insert affects no row and ErrDuplicateEvent is returned before any
// effect runs.
func (s *Service) ApplyWebhookEvent(ctx context.Context, params store.ApplyWebhookParams) (*store.ApplyWebhookResult, error) {
	event := params.Event
	zap.L().Info("Applying webhook event",
		zap.String("provider", event.Provider),
		zap.String("event_id", event.EventId),
		zap.String("type", string(event.Type)),
		zap.String("status", string(event.Status)))

	result := &store.ApplyWebhookResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.dialect.q(queryInsertWebhookEvent),
			uuid.New().String(), event.Provider, event.EventId, string(event.Type),
			string(event.Status), string(params.Payload), now())
		if err != nil {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", store.ErrDuplicateEvent, event.Provider, event.EventId)
		}

		if params.Credit != nil {
			wallet, _, err := s.getOrCreateWalletForUpdate(ctx, tx, params.Credit.UserId)
			if err != nil {
				return err
			}
			if result.Credit, err = s.applyEntry(ctx, tx, wallet, *params.Credit, params.Credit.Amount); err != nil {
				return err
			}
		}

		if params.Withdrawal != nil {
			ok, err := s.transitionWithdrawal(ctx, tx, *params.Withdrawal)
			if err != nil {
				return err
			}
			result.Transitioned = result.Transitioned || ok
		}

		if params.Swap != nil {
			ok, err := s.transitionSwap(ctx, tx, *params.Swap)
			if err != nil {
				return err
			}
			result.Transitioned = result.Transitioned || ok
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to apply webhook event: %w", err)
	}

	zap.L().Info("Webhook event applied",
		zap.String("event_id", event.EventId),
		zap.Bool("credited", result.Credit != nil),
		zap.Bool("transitioned", result.Transitioned))
	return result, nil
}
