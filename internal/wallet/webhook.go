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

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/metrics"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"
	"dgt-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// dgtPrecision is the number of decimal places kept on converted deposits
const dgtPrecision = 8

// ProcessWebhook verifies a provider callback and applies it. Redelivery of
// an event already applied succeeds without effects.
func (s *Service) ProcessWebhook(ctx context.Context, providerName string, delivery models.WebhookDelivery) (*models.WebhookResult, error) {
	const op = "processWebhook"
	fields := originFields(ctx, zap.String("provider", providerName), zap.Int("payload_size", len(delivery.Payload)))

	if providerName != provider.CCPayment {
		metrics.WebhookEvents.WithLabelValues(string(models.WebhookUnknown), metrics.ResultRejected).Inc()
		return nil, fail(op, apperr.Validation(op, "unknown provider %q", providerName).WithCode(apperr.CodeUnknownProvider), fields...)
	}

	event, err := s.adapter.ProcessWebhook(ctx, delivery)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(models.WebhookUnknown), metrics.ResultRejected).Inc()
		return nil, fail(op, err, fields...)
	}

	return s.IngestEvent(ctx, *event, delivery.Payload)
}

// IngestEvent records a verified provider event and applies its effects in one
// transaction. It is shared by the webhook endpoint and the poller.
func (s *Service) IngestEvent(ctx context.Context, event models.WebhookEvent, payload []byte) (*models.WebhookResult, error) {
	const op = "ingestEvent"
	fields := originFields(ctx,
		zap.String("event_id", event.EventId),
		zap.String("type", string(event.Type)),
		zap.String("status", string(event.Status)),
		zap.String("user_id", event.UserId))

	if !provider.ValidEventId(event.EventId) {
		return nil, fail(op, apperr.Validation(op, "event id %q needs a record id and a status", event.EventId).
			WithCode(apperr.CodeMissingEventId), fields...)
	}

	params := store.ApplyWebhookParams{Event: event, Payload: payload}
	switch event.Type {
	case models.WebhookDeposit:
		credit, err := s.depositCredit(ctx, event)
		if err != nil {
			metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.ResultError).Inc()
			return nil, fail(op, err, fields...)
		}
		params.Credit = credit
	case models.WebhookWithdrawal:
		if event.Status.Terminal() && event.OrderId != "" {
			params.Withdrawal = &store.StatusTransition{
				Key:      event.OrderId,
				Status:   event.Status,
				RecordId: event.RecordId,
				TxHash:   event.TxHash,
			}
		}
	case models.WebhookSwap:
		if event.Status.Terminal() && event.RecordId != "" {
			params.Swap = &store.StatusTransition{Key: event.RecordId, Status: event.Status}
		}
	default:
		zap.L().Warn("Recording provider event of unknown type", fields...)
	}

	applied, err := s.store.ApplyWebhookEvent(ctx, params)
	if errors.Is(err, store.ErrDuplicateEvent) {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.ResultDuplicate).Inc()
		zap.L().Info("Duplicate provider event ignored", fields...)
		return &models.WebhookResult{
			Success:   true,
			Duplicate: true,
			EventId:   event.EventId,
			Type:      event.Type,
			Message:   "event already processed",
		}, nil
	}
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.ResultError).Inc()
		return nil, fail(op, err, fields...)
	}

	metrics.WebhookEvents.WithLabelValues(string(event.Type), metrics.ResultOK).Inc()
	result := &models.WebhookResult{Success: true, EventId: event.EventId, Type: event.Type}
	switch {
	case applied.Credit != nil:
		result.Message = "credited " + applied.Credit.Amount.String() + " DGT"
	case applied.Transitioned:
		result.Message = "status updated to " + string(event.Status)
	default:
		result.Message = "recorded"
	}

	zap.L().Info("Provider event processed", append(fields, zap.String("result", result.Message))...)
	return result, nil
}

// depositCredit converts a completed deposit into its DGT credit:
// amount × USDT price × exchange rate, truncated to eight places. Pending
// deposits and deposits without a user credit nothing.
func (s *Service) depositCredit(ctx context.Context, event models.WebhookEvent) (*store.EntryParams, error) {
	if event.Status != models.TxStatusCompleted {
		return nil, nil
	}
	if event.UserId == "" {
		zap.L().Warn("Completed deposit without a user mapping", zap.String("event_id", event.EventId))
		return nil, nil
	}
	if !event.Amount.IsPositive() {
		return nil, apperr.Validation("depositCredit", "deposit amount must be positive, got %s", event.Amount)
	}

	info, err := s.adapter.GetTokenInfo(ctx, event.CoinSymbol)
	if err != nil {
		return nil, err
	}

	dgt := ConvertToDgt(event.Amount, info.UsdtPrice, s.settings.DgtExchangeRate)
	if !dgt.IsPositive() {
		zap.L().Warn("Deposit converts to zero DGT",
			zap.String("event_id", event.EventId),
			zap.String("amount", event.Amount.String()),
			zap.String("price", info.UsdtPrice.String()))
		return nil, nil
	}

	metadata := models.CryptoDeposit{
		CoinSymbol:   event.CoinSymbol,
		Chain:        event.Chain,
		CryptoAmount: event.Amount.String(),
		UsdtPrice:    info.UsdtPrice.String(),
		RecordId:     event.RecordId,
		TxHash:       event.TxHash,
	}
	raw, err := models.EncodeMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return &store.EntryParams{
		UserId:      event.UserId,
		Amount:      dgt,
		Type:        metadata.Source(),
		Description: metadata.Description(),
		Metadata:    raw,
		ExternalId:  event.RecordId,
		MaxBalance:  s.settings.MaxBalance,
	}, nil
}

// ConvertToDgt prices a crypto amount in DGT, rounding down
func ConvertToDgt(amount, usdtPrice, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(usdtPrice).Mul(rate).Truncate(dgtPrecision)
}
