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

package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/ccpayment"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCatalogTTL = time.Minute
	maxRecordPages    = 20
)

var ErrNotSupported = errors.New("operation not supported by provider")

var (
	_ Adapter          = (*CCPaymentAdapter)(nil)
	_ AccountManager   = (*CCPaymentAdapter)(nil)
	_ Swapper          = (*CCPaymentAdapter)(nil)
	_ RecordLister     = (*CCPaymentAdapter)(nil)
	_ MerchantReporter = (*CCPaymentAdapter)(nil)
)

// CCPaymentAdapter implements Adapter against the CCPayment API. Users are
// addressed by their provider account mapping, which must already exist.
type CCPaymentAdapter struct {
	client *ccpayment.Client
	store  store.LedgerStore

	group      singleflight.Group
	mu         sync.Mutex
	coins      []models.SupportedCoin
	fetchedAt  time.Time
	catalogTTL time.Duration
}

func NewCCPaymentAdapter(client *ccpayment.Client, ledger store.LedgerStore) *CCPaymentAdapter {
	return &CCPaymentAdapter{
		client:     client,
		store:      ledger,
		catalogTTL: defaultCatalogTTL,
	}
}

// trace logs method entry and, through the returned func, its exit
func trace(op string, fields ...zap.Field) func(err *error) {
	start := time.Now()
	zap.L().Debug("Provider call started", append([]zap.Field{zap.String("op", op)}, fields...)...)
	return func(err *error) {
		exit := append([]zap.Field{zap.String("op", op), zap.Duration("elapsed", time.Since(start))}, fields...)
		if err != nil && *err != nil {
			zap.L().Warn("Provider call failed", append(exit, zap.Error(*err))...)
			return
		}
		zap.L().Debug("Provider call finished", exit...)
	}
}

// wrap passes typed errors through and turns anything else into a
// PaymentProviderError. Errors from the local store go through storeErr first.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.PaymentProvider(op, err)
}

// storeErr classifies a local store failure; it is never a provider error
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, store.ErrProviderAccountNotFound) {
		return apperr.NotFound(op, "provider account not found").Wrap(err)
	}
	return apperr.Unknown(op, err)
}

// providerUserId resolves the CCPayment identity of userId
func (a *CCPaymentAdapter) providerUserId(ctx context.Context, op, userId string) (string, error) {
	account, err := a.store.GetProviderAccount(ctx, userId, CCPayment)
	if err != nil {
		return "", storeErr(op, err)
	}
	return account.ProviderUserId, nil
}

func (a *CCPaymentAdapter) EnsureAccount(ctx context.Context, userId string) (account *models.ProviderAccount, created bool, err error) {
	defer trace("ensureAccount", zap.String("user_id", userId))(&err)

	account, created, err = a.store.CreateProviderAccount(ctx, models.ProviderAccount{
		UserId:         userId,
		Provider:       CCPayment,
		ProviderUserId: ProviderUserIdFor(userId),
	})
	if err != nil {
		return nil, false, storeErr("ensureAccount", err)
	}
	return account, created, nil
}

func providerIdRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

// ProviderUserIdFor derives the CCPayment user id; the provider accepts
// alphanumerics, dash and underscore only. Ids that already fit map to
// dgt_<id>. Others are sanitized under a separate dgth_ prefix with a hash
// of the raw id appended, so distinct users never share a provider id.
func ProviderUserIdFor(userId string) string {
	if userId != "" && strings.IndexFunc(userId, func(r rune) bool { return !providerIdRune(r) }) < 0 {
		return "dgt_" + userId
	}

	var b strings.Builder
	b.WriteString("dgth_")
	for _, r := range userId {
		if providerIdRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	sum := sha256.Sum256([]byte(userId))
	b.WriteByte('_')
	b.WriteString(hex.EncodeToString(sum[:8]))
	return b.String()
}

func (a *CCPaymentAdapter) GetUserBalance(ctx context.Context, userId string) (balances []models.CryptoBalance, err error) {
	defer trace("getUserBalance", zap.String("user_id", userId))(&err)

	providerUser, err := a.providerUserId(ctx, "getUserBalance", userId)
	if err != nil {
		return nil, wrap("getUserBalance", err)
	}

	assets, err := a.client.GetUserCoinAssetList(ctx, providerUser)
	if err != nil {
		return nil, wrap("getUserBalance", err)
	}

	balances = make([]models.CryptoBalance, 0, len(assets))
	for _, asset := range assets {
		balances = append(balances, models.CryptoBalance{
			CoinId:     asset.CoinId,
			CoinSymbol: asset.CoinSymbol,
			Available:  asset.Available,
		})
	}
	return balances, nil
}

func (a *CCPaymentAdapter) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (address *models.DepositAddress, err error) {
	defer trace("createDepositAddress",
		zap.String("user_id", userId),
		zap.String("coin", coinSymbol),
		zap.String("chain", chain))(&err)

	providerUser, err := a.providerUserId(ctx, "createDepositAddress", userId)
	if err != nil {
		return nil, wrap("createDepositAddress", err)
	}

	result, err := a.client.GetOrCreateUserDepositAddress(ctx, providerUser, chain)
	if err != nil {
		return nil, wrap("createDepositAddress", err)
	}

	return &models.DepositAddress{
		UserId:     userId,
		CoinSymbol: strings.ToUpper(coinSymbol),
		Chain:      chain,
		Address:    result.Address,
		Memo:       result.Memo,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (a *CCPaymentAdapter) ValidateAddress(ctx context.Context, chain, address string) (valid bool, err error) {
	defer trace("validateAddress", zap.String("chain", chain))(&err)

	if !ValidateAddressFormat(chain, address) {
		return false, nil
	}
	valid, err = a.client.CheckWithdrawalAddressValidity(ctx, chain, address)
	if err != nil {
		return false, wrap("validateAddress", err)
	}
	return valid, nil
}

func (a *CCPaymentAdapter) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (response *models.WithdrawalResponse, err error) {
	defer trace("requestWithdrawal",
		zap.String("user_id", userId),
		zap.String("order_id", request.OrderId),
		zap.String("coin", request.CoinSymbol),
		zap.String("chain", request.Chain),
		zap.String("amount", request.Amount.String()))(&err)

	valid, err := a.ValidateAddress(ctx, request.Chain, request.Address)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperr.Validation("requestWithdrawal", "address %s is not valid on %s", request.Address, request.Chain).
			WithCode(apperr.CodeInvalidAddress).
			WithData("chain", request.Chain)
	}

	providerUser, err := a.providerUserId(ctx, "requestWithdrawal", userId)
	if err != nil {
		return nil, wrap("requestWithdrawal", err)
	}

	coin, err := a.findCoin(ctx, request.CoinSymbol)
	if err != nil {
		return nil, wrap("requestWithdrawal", err)
	}

	recordId, err := a.client.ApplyUserWithdrawToNetwork(ctx, ccpayment.UserWithdrawRequest{
		UserId:  providerUser,
		CoinId:  coin.CoinId,
		Chain:   request.Chain,
		Address: request.Address,
		Memo:    request.Memo,
		OrderId: request.OrderId,
		Amount:  request.Amount,
	})
	if err != nil {
		return nil, wrap("requestWithdrawal", err)
	}

	response = &models.WithdrawalResponse{
		OrderId:  request.OrderId,
		RecordId: recordId,
		Status:   models.TxStatusPending,
	}

	// The fee is informational; a failed lookup does not fail the withdrawal
	if fee, err := a.client.GetWithdrawFee(ctx, coin.CoinId, request.Chain); err == nil {
		response.Fee = &fee.Amount
	} else {
		zap.L().Warn("Unable to fetch withdrawal fee", zap.String("order_id", request.OrderId), zap.Error(err))
	}
	return response, nil
}

func (a *CCPaymentAdapter) RequestSwap(ctx context.Context, userId string, request models.SwapRequest) (response *models.SwapResponse, err error) {
	defer trace("requestSwap",
		zap.String("user_id", userId),
		zap.String("order_id", request.OrderId),
		zap.Int64("from_coin_id", request.FromCoinId),
		zap.Int64("to_coin_id", request.ToCoinId))(&err)

	providerUser, err := a.providerUserId(ctx, "requestSwap", userId)
	if err != nil {
		return nil, wrap("requestSwap", err)
	}

	result, err := a.client.UserSwap(ctx, ccpayment.UserSwapRequest{
		OrderId:   request.OrderId,
		UserId:    providerUser,
		CoinIdIn:  request.FromCoinId,
		AmountIn:  request.FromAmount,
		CoinIdOut: request.ToCoinId,
	})
	if err != nil {
		return nil, wrap("requestSwap", err)
	}

	return &models.SwapResponse{
		OrderId:  request.OrderId,
		RecordId: result.RecordId,
		ToAmount: result.AmountOut,
		Status:   models.TxStatusPending,
	}, nil
}

// GetTransactionHistory returns the newest Page*Limit provider records so
// the caller can merge them with the ledger before slicing a page.
func (a *CCPaymentAdapter) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) (transactions []models.Transaction, err error) {
	defer trace("getTransactionHistory",
		zap.String("user_id", userId),
		zap.Int("page", opts.Page),
		zap.Int("limit", opts.Limit))(&err)

	providerUser, err := a.providerUserId(ctx, "getTransactionHistory", userId)
	if err != nil {
		return nil, wrap("getTransactionHistory", err)
	}

	window := opts.Page * opts.Limit
	records, err := a.listRecords(ctx, providerUser, ccpayment.RecordQuery{UserId: providerUser}, window)
	if err != nil {
		return nil, wrap("getTransactionHistory", err)
	}

	transactions = make([]models.Transaction, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, recordToTransaction(userId, record))
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})
	if len(transactions) > window {
		transactions = transactions[:window]
	}
	return transactions, nil
}

func (a *CCPaymentAdapter) ListRecords(ctx context.Context, userId string, since time.Time) (records []models.ProviderRecord, err error) {
	defer trace("listRecords", zap.String("user_id", userId), zap.Time("since", since))(&err)

	providerUser, err := a.providerUserId(ctx, "listRecords", userId)
	if err != nil {
		return nil, wrap("listRecords", err)
	}

	records, err = a.listRecords(ctx, providerUser, ccpayment.RecordQuery{
		UserId:  providerUser,
		StartAt: since.Unix(),
	}, 0)
	if err != nil {
		return nil, wrap("listRecords", err)
	}
	return records, nil
}

// listRecords follows the deposit and withdrawal cursors until each list
// holds at least limit records; zero means every page.
func (a *CCPaymentAdapter) listRecords(ctx context.Context, providerUser string, query ccpayment.RecordQuery, limit int) ([]models.ProviderRecord, error) {
	var records []models.ProviderRecord

	depositQuery := query
	for page, count := 0, 0; page < maxRecordPages; page++ {
		deposits, next, err := a.client.GetUserDepositRecordList(ctx, depositQuery)
		if err != nil {
			return nil, fmt.Errorf("unable to list deposit records: %w", err)
		}
		for _, d := range deposits {
			records = append(records, depositToRecord(d))
		}
		count += len(deposits)
		if next == "" || (limit > 0 && count >= limit) {
			break
		}
		depositQuery.NextId = next
	}

	withdrawQuery := query
	for page, count := 0, 0; page < maxRecordPages; page++ {
		withdrawals, next, err := a.client.GetUserWithdrawRecordList(ctx, withdrawQuery)
		if err != nil {
			return nil, fmt.Errorf("unable to list withdrawal records: %w", err)
		}
		for _, w := range withdrawals {
			records = append(records, withdrawToRecord(w))
		}
		count += len(withdrawals)
		if next == "" || (limit > 0 && count >= limit) {
			break
		}
		withdrawQuery.NextId = next
	}

	return records, nil
}

func (a *CCPaymentAdapter) ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (event *models.WebhookEvent, err error) {
	defer trace("processWebhook", zap.Int("payload_size", len(delivery.Payload)))(&err)

	if err := a.client.VerifyWebhookSignature(delivery.AppId, delivery.Timestamp, delivery.Payload, delivery.Signature); err != nil {
		return nil, apperr.Validation("processWebhook", "webhook signature rejected").
			WithCode(apperr.CodeInvalidSignature).
			Wrap(err)
	}

	payload, err := ccpayment.ParseWebhook(delivery.Payload)
	if err != nil {
		return nil, apperr.Validation("processWebhook", "malformed webhook payload").Wrap(err)
	}

	msg := payload.Msg
	recordId := msg.RecordId
	if recordId == "" {
		recordId = msg.OrderId
	}
	if recordId == "" {
		return nil, apperr.Validation("processWebhook", "webhook payload carries neither record id nor order id").
			WithCode(apperr.CodeMissingEventId)
	}
	status := mapStatus(msg.Status)
	event = &models.WebhookEvent{
		Provider:   CCPayment,
		EventId:    EventId(recordId, status),
		Type:       webhookType(payload.Type),
		OrderId:    msg.OrderId,
		RecordId:   msg.RecordId,
		CoinId:     msg.CoinId,
		CoinSymbol: strings.ToUpper(msg.CoinSymbol),
		Chain:      msg.Chain,
		Amount:     msg.Amount,
		TxHash:     msg.TxId,
		Status:     status,
	}

	if msg.UserId != "" {
		account, err := a.store.FindProviderAccount(ctx, CCPayment, msg.UserId)
		if err != nil {
			return nil, storeErr("processWebhook", err)
		}
		event.UserId = account.UserId
	}

	// Deposit notifications may omit the amount; the record carries it
	if event.Type == models.WebhookDeposit && event.Amount.IsZero() && event.RecordId != "" {
		record, err := a.client.GetUserDepositRecord(ctx, event.RecordId)
		if err != nil {
			return nil, wrap("processWebhook", err)
		}
		event.Amount = record.Amount
		event.Chain = record.Chain
		event.TxHash = record.TxId
		if event.CoinId == 0 {
			event.CoinId = record.CoinId
		}
	}

	if msg.IsFlaggedAsRisky {
		zap.L().Warn("Provider flagged deposit as risky",
			zap.String("record_id", msg.RecordId),
			zap.String("user_id", event.UserId))
	}
	return event, nil
}

func (a *CCPaymentAdapter) GetSupportedCoins(ctx context.Context) (coins []models.SupportedCoin, err error) {
	defer trace("getSupportedCoins")(&err)

	catalog, err := a.catalog(ctx)
	if err != nil {
		return nil, wrap("getSupportedCoins", err)
	}

	tokens, err := a.store.ListSupportedTokens(ctx, false)
	if err != nil {
		return nil, storeErr("getSupportedCoins", err)
	}
	return overlayTokens(catalog, tokens), nil
}

func (a *CCPaymentAdapter) GetTokenInfo(ctx context.Context, coinSymbol string) (info *models.TokenInfo, err error) {
	defer trace("getTokenInfo", zap.String("coin", coinSymbol))(&err)

	coin, err := a.findCoin(ctx, coinSymbol)
	if err != nil {
		return nil, wrap("getTokenInfo", err)
	}

	prices, err := a.client.GetCoinUSDTPrice(ctx, []int64{coin.CoinId})
	if err != nil {
		return nil, wrap("getTokenInfo", err)
	}
	price, ok := prices[coin.CoinId]
	if !ok {
		return nil, apperr.NotFound("getTokenInfo", "no USDT price for %s", coin.Symbol)
	}

	return &models.TokenInfo{Coin: *coin, UsdtPrice: price}, nil
}

func (a *CCPaymentAdapter) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (fee *models.WithdrawFee, err error) {
	defer trace("getWithdrawFee", zap.String("coin", coinSymbol), zap.String("chain", chain))(&err)

	coin, err := a.findCoin(ctx, coinSymbol)
	if err != nil {
		return nil, wrap("getWithdrawFee", err)
	}

	result, err := a.client.GetWithdrawFee(ctx, coin.CoinId, chain)
	if err != nil {
		return nil, wrap("getWithdrawFee", err)
	}
	return &models.WithdrawFee{CoinSymbol: coin.Symbol, Chain: chain, Amount: result.Amount}, nil
}

// GetMerchantAssets returns the app-level custody balances
func (a *CCPaymentAdapter) GetMerchantAssets(ctx context.Context) (balances []models.CryptoBalance, err error) {
	defer trace("getMerchantAssets")(&err)

	assets, err := a.client.GetAppCoinAssetList(ctx)
	if err != nil {
		return nil, wrap("getMerchantAssets", err)
	}
	for _, asset := range assets {
		balances = append(balances, models.CryptoBalance{
			CoinId:     asset.CoinId,
			CoinSymbol: asset.CoinSymbol,
			Available:  asset.Available,
		})
	}
	return balances, nil
}

// GetSwapCoins lists the coins the provider can swap between
func (a *CCPaymentAdapter) GetSwapCoins(ctx context.Context) (coins []models.SupportedCoin, err error) {
	defer trace("getSwapCoins")(&err)

	swapCoins, err := a.client.GetSwapCoinList(ctx)
	if err != nil {
		return nil, wrap("getSwapCoins", err)
	}
	for _, c := range swapCoins {
		coins = append(coins, models.SupportedCoin{
			CoinId:  c.CoinId,
			Symbol:  c.CoinSymbol,
			LogoURL: c.LogoUrl,
			Status:  models.CoinStatusNormal,
		})
	}
	return coins, nil
}

// catalog returns the provider coin list, memoized for catalogTTL. Concurrent
// misses share one request.
func (a *CCPaymentAdapter) catalog(ctx context.Context) ([]models.SupportedCoin, error) {
	if coins, ok := a.memoizedCoins(); ok {
		return coins, nil
	}

	v, err, _ := a.group.Do("coins", func() (any, error) {
		if coins, ok := a.memoizedCoins(); ok {
			return coins, nil
		}
		list, err := a.client.GetCoinList(ctx)
		if err != nil {
			return nil, err
		}
		coins := make([]models.SupportedCoin, 0, len(list))
		for _, c := range list {
			coins = append(coins, coinToModel(c))
		}
		sort.Slice(coins, func(i, j int) bool { return coins[i].Symbol < coins[j].Symbol })

		a.mu.Lock()
		a.coins = coins
		a.fetchedAt = time.Now()
		a.mu.Unlock()
		return coins, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.SupportedCoin), nil
}

func (a *CCPaymentAdapter) memoizedCoins() ([]models.SupportedCoin, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.coins != nil && time.Since(a.fetchedAt) < a.catalogTTL {
		return a.coins, true
	}
	return nil, false
}

func (a *CCPaymentAdapter) findCoin(ctx context.Context, symbol string) (*models.SupportedCoin, error) {
	coins, err := a.catalog(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range coins {
		if strings.EqualFold(c.Symbol, symbol) {
			coin := c
			return &coin, nil
		}
	}
	return nil, apperr.NotFound("findCoin", "coin %s not offered by provider", symbol).WithCode(apperr.CodeUnsupportedCoin)
}
