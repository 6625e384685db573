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
	"dgt-wallet-go/internal/provider"

	"go.uber.org/zap"
)

func (s *Service) checkMaintenance(op string) error {
	if s.settings.MaintenanceMode {
		return apperr.Forbidden(op, "wallet is in maintenance mode").WithCode(apperr.CodeMaintenance)
	}
	return nil
}

// resolveCurrency returns the catalog entry and chain, defaulting the chain
func (s *Service) resolveCurrency(op, coinSymbol, chain string) (models.CurrencyConfig, string, error) {
	cur, ok := s.catalog.Lookup(coinSymbol)
	if !ok {
		return models.CurrencyConfig{}, "", apperr.Validation(op, "unsupported currency %q", coinSymbol).
			WithCode(apperr.CodeUnsupportedCoin).
			WithData("supported", s.catalog.Symbols())
	}
	resolved, ok := s.catalog.ResolveChain(cur.Symbol, chain)
	if !ok {
		return models.CurrencyConfig{}, "", apperr.Validation(op, "chain %q not supported for %s", chain, cur.Symbol).
			WithCode(apperr.CodeUnsupportedCoin).
			WithData("chains", cur.Chains)
	}
	return cur, resolved, nil
}

// CreateDepositAddress asks the provider for an address and records it
// locally. The provider is always called.
func (s *Service) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error) {
	const op = "createDepositAddress"
	fields := []zap.Field{zap.String("user_id", userId), zap.String("coin", coinSymbol), zap.String("chain", chain)}

	if err := s.checkMaintenance(op); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateUser(op, userId); err != nil {
		return nil, fail(op, err, fields...)
	}
	cur, resolved, err := s.resolveCurrency(op, coinSymbol, chain)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	address, err := s.adapter.CreateDepositAddress(ctx, userId, cur.Symbol, resolved)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	stored, err := s.store.StoreDepositAddress(ctx, *address)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	zap.L().Info("Deposit address issued", append(fields, zap.String("resolved_chain", resolved))...)
	return stored, nil
}

func (s *Service) GetDepositAddresses(ctx context.Context, userId string) ([]models.DepositAddress, error) {
	const op = "getDepositAddresses"
	addresses, err := s.store.GetDepositAddresses(ctx, userId)
	if err != nil {
		return nil, fail(op, err, zap.String("user_id", userId))
	}
	return addresses, nil
}

// RequestWithdrawal validates the request against the catalog limits, submits
// it to the provider and records it as pending.
func (s *Service) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	const op = "requestWithdrawal"
	fields := originFields(ctx,
		zap.String("user_id", userId),
		zap.String("coin", request.CoinSymbol),
		zap.String("amount", request.Amount.String()))

	if err := s.checkMaintenance(op); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateUser(op, userId); err != nil {
		return nil, fail(op, err, fields...)
	}
	cur, chain, err := s.resolveCurrency(op, request.CoinSymbol, request.Chain)
	if err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateAmount(op, request.Amount); err != nil {
		return nil, fail(op, err, fields...)
	}
	if strings.TrimSpace(request.Address) == "" {
		return nil, fail(op, apperr.Validation(op, "destination address is required").WithCode(apperr.CodeInvalidAddress), fields...)
	}
	if cur.MinWithdraw.IsPositive() && request.Amount.LessThan(cur.MinWithdraw) {
		return nil, fail(op, apperr.Validation(op, "minimum withdrawal for %s is %s", cur.Symbol, cur.MinWithdraw).
			WithCode(apperr.CodeInvalidAmount).
			WithData("minimum", cur.MinWithdraw.String()), fields...)
	}
	if cur.MaxWithdraw.IsPositive() && request.Amount.GreaterThan(cur.MaxWithdraw) {
		return nil, fail(op, apperr.Validation(op, "maximum withdrawal for %s is %s", cur.Symbol, cur.MaxWithdraw).
			WithCode(apperr.CodeInvalidAmount).
			WithData("maximum", cur.MaxWithdraw.String()), fields...)
	}

	request.CoinSymbol = cur.Symbol
	request.Chain = chain
	request.Address = strings.TrimSpace(request.Address)
	if request.OrderId == "" {
		request.OrderId = s.newId()
	}
	fields = append(fields, zap.String("order_id", request.OrderId), zap.String("chain", chain))

	response, err := s.adapter.RequestWithdrawal(ctx, userId, request)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	record := models.WithdrawalRecord{
		OrderId:    request.OrderId,
		UserId:     userId,
		CoinSymbol: request.CoinSymbol,
		Chain:      request.Chain,
		Address:    request.Address,
		Memo:       request.Memo,
		Amount:     request.Amount,
		RecordId:   response.RecordId,
		TxHash:     response.TxHash,
		Status:     models.TxStatusPending,
	}
	if response.Fee != nil {
		record.Fee = *response.Fee
	}
	// The provider accepted the order; a local write failure must not invite a resubmission
	if err := s.store.CreateWithdrawalRecord(ctx, record); err != nil {
		zap.L().Error("Withdrawal submitted but not recorded", append(fields, zap.Error(err))...)
	}

	zap.L().Info("Withdrawal requested", append(fields, zap.String("record_id", response.RecordId))...)
	return response, nil
}

// RequestSwap submits a provider-side swap between two coins of the user
func (s *Service) RequestSwap(ctx context.Context, userId string, request models.SwapRequest) (*models.SwapResponse, error) {
	const op = "requestSwap"
	fields := []zap.Field{
		zap.String("user_id", userId),
		zap.Int64("from_coin_id", request.FromCoinId),
		zap.Int64("to_coin_id", request.ToCoinId),
		zap.String("amount", request.FromAmount.String()),
	}

	if err := s.checkMaintenance(op); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateUser(op, userId); err != nil {
		return nil, fail(op, err, fields...)
	}
	if err := validateAmount(op, request.FromAmount); err != nil {
		return nil, fail(op, err, fields...)
	}
	if request.FromCoinId == request.ToCoinId {
		return nil, fail(op, apperr.Validation(op, "cannot swap a coin into itself"), fields...)
	}

	swapper, ok := s.adapter.(provider.Swapper)
	if !ok {
		return nil, fail(op, apperr.PaymentProvider(op, provider.ErrNotSupported), fields...)
	}

	if request.OrderId == "" {
		request.OrderId = s.newId()
	}
	response, err := swapper.RequestSwap(ctx, userId, request)
	if err != nil {
		return nil, fail(op, err, fields...)
	}

	if err := s.store.CreateSwapRecord(ctx, models.SwapRecord{
		RecordId:   response.RecordId,
		OrderId:    request.OrderId,
		UserId:     userId,
		FromCoinId: request.FromCoinId,
		ToCoinId:   request.ToCoinId,
		FromAmount: request.FromAmount,
		ToAmount:   response.ToAmount,
		Status:     models.TxStatusPending,
	}); err != nil {
		zap.L().Error("Swap submitted but not recorded", append(fields, zap.Error(err))...)
	}

	zap.L().Info("Swap requested", append(fields, zap.String("record_id", response.RecordId))...)
	return response, nil
}

// GetSupportedCoins returns the provider catalog restricted to configured currencies
func (s *Service) GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	const op = "getSupportedCoins"
	coins, err := s.adapter.GetSupportedCoins(ctx)
	if err != nil {
		return nil, fail(op, err)
	}

	supported := make([]models.SupportedCoin, 0, len(coins))
	for _, coin := range coins {
		if _, ok := s.catalog.Lookup(coin.Symbol); ok {
			supported = append(supported, coin)
		}
	}
	return supported, nil
}

func (s *Service) GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error) {
	const op = "getTokenInfo"
	fields := []zap.Field{zap.String("coin", coinSymbol)}

	if _, _, err := s.resolveCurrency(op, coinSymbol, ""); err != nil {
		return nil, fail(op, err, fields...)
	}
	info, err := s.adapter.GetTokenInfo(ctx, coinSymbol)
	if err != nil {
		return nil, fail(op, err, fields...)
	}
	return info, nil
}

func (s *Service) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error) {
	const op = "getWithdrawFee"
	fields := []zap.Field{zap.String("coin", coinSymbol), zap.String("chain", chain)}

	cur, resolved, err := s.resolveCurrency(op, coinSymbol, chain)
	if err != nil {
		return nil, fail(op, err, fields...)
	}
	fee, err := s.adapter.GetWithdrawFee(ctx, cur.Symbol, resolved)
	if err != nil {
		return nil, fail(op, err, fields...)
	}
	return fee, nil
}
