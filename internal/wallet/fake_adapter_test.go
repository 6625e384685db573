package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"

	"github.com/shopspring/decimal"
)

// fakeAdapter is an in-memory provider. Fields set before use change its answers.
type fakeAdapter struct {
	mu    sync.Mutex
	calls map[string]int

	accounts     map[string]bool
	accountErr   error
	addressErr   error
	validAddress bool
	prices       map[string]decimal.Decimal
	history      []models.Transaction
	event        *models.WebhookEvent
	webhookErr   error
}

var (
	_ provider.Adapter        = (*fakeAdapter)(nil)
	_ provider.AccountManager = (*fakeAdapter)(nil)
	_ provider.Swapper        = (*fakeAdapter)(nil)
)

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		calls:        map[string]int{},
		accounts:     map[string]bool{},
		validAddress: true,
		prices:       map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1), "BTC": decimal.NewFromInt(60000)},
	}
}

func (f *fakeAdapter) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAdapter) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAdapter) GetUserBalance(ctx context.Context, userId string) ([]models.CryptoBalance, error) {
	f.record("GetUserBalance")
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accounts[userId] {
		return nil, apperr.NotFound("getUserBalance", "provider account not found")
	}
	return []models.CryptoBalance{{CoinId: 1280, CoinSymbol: "USDT", Available: decimal.NewFromInt(7)}}, nil
}

func (f *fakeAdapter) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error) {
	f.record("CreateDepositAddress")
	if f.addressErr != nil {
		return nil, f.addressErr
	}
	return &models.DepositAddress{
		UserId:     userId,
		CoinSymbol: coinSymbol,
		Chain:      chain,
		Address:    fmt.Sprintf("%s-%s-addr", chain, userId),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (f *fakeAdapter) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	f.record("ValidateAddress")
	if !f.validAddress {
		return nil, apperr.Validation("requestWithdrawal", "invalid address").WithCode(apperr.CodeInvalidAddress)
	}
	f.record("RequestWithdrawal")
	fee := decimal.RequireFromString("0.5")
	return &models.WithdrawalResponse{
		OrderId:  request.OrderId,
		RecordId: "rec-" + request.OrderId,
		Status:   models.TxStatusPending,
		Fee:      &fee,
	}, nil
}

func (f *fakeAdapter) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error) {
	f.record("GetTransactionHistory")
	return f.history, nil
}

func (f *fakeAdapter) ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (*models.WebhookEvent, error) {
	f.record("ProcessWebhook")
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	event := *f.event
	return &event, nil
}

func (f *fakeAdapter) GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	return []models.SupportedCoin{
		{CoinId: 1280, Symbol: "USDT", Status: models.CoinStatusNormal},
		{CoinId: 1155, Symbol: "BTC", Status: models.CoinStatusNormal},
		{CoinId: 9999, Symbol: "DOGE", Status: models.CoinStatusNormal},
	}, nil
}

func (f *fakeAdapter) GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error) {
	f.record("GetTokenInfo")
	price, ok := f.prices[coinSymbol]
	if !ok {
		return nil, apperr.NotFound("getTokenInfo", "no price for %s", coinSymbol)
	}
	return &models.TokenInfo{Coin: models.SupportedCoin{Symbol: coinSymbol}, UsdtPrice: price}, nil
}

func (f *fakeAdapter) ValidateAddress(ctx context.Context, chain, address string) (bool, error) {
	return f.validAddress, nil
}

func (f *fakeAdapter) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error) {
	return &models.WithdrawFee{CoinSymbol: coinSymbol, Chain: chain, Amount: decimal.NewFromInt(1)}, nil
}

func (f *fakeAdapter) EnsureAccount(ctx context.Context, userId string) (*models.ProviderAccount, bool, error) {
	f.record("EnsureAccount")
	if f.accountErr != nil {
		return nil, false, f.accountErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	created := !f.accounts[userId]
	f.accounts[userId] = true
	return &models.ProviderAccount{UserId: userId, Provider: provider.CCPayment, ProviderUserId: "dgt_" + userId}, created, nil
}

func (f *fakeAdapter) RequestSwap(ctx context.Context, userId string, request models.SwapRequest) (*models.SwapResponse, error) {
	f.record("RequestSwap")
	return &models.SwapResponse{
		OrderId:  request.OrderId,
		RecordId: "swap-" + request.OrderId,
		ToAmount: request.FromAmount.Mul(decimal.NewFromInt(2)),
		Status:   models.TxStatusPending,
	}, nil
}

func (f *fakeAdapter) GetSwapCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	return nil, nil
}
