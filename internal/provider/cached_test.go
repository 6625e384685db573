package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/cache"
	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter counts calls per method
type fakeAdapter struct {
	mu         sync.Mutex
	calls      map[string]int
	webhookErr error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{calls: map[string]int{}}
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
	f.record("balance")
	return []models.CryptoBalance{{CoinId: 1280, CoinSymbol: "USDT", Available: decimal.RequireFromString("12.5")}}, nil
}

func (f *fakeAdapter) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error) {
	f.record("address")
	return &models.DepositAddress{UserId: userId, CoinSymbol: coinSymbol, Chain: chain, Address: "addr"}, nil
}

func (f *fakeAdapter) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	f.record("withdrawal")
	return &models.WithdrawalResponse{OrderId: request.OrderId, Status: models.TxStatusPending}, nil
}

func (f *fakeAdapter) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error) {
	f.record("history")
	return []models.Transaction{{Id: "ccpayment:r1", UserId: userId, Amount: decimal.NewFromInt(5)}}, nil
}

func (f *fakeAdapter) ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (*models.WebhookEvent, error) {
	f.record("webhook")
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	return &models.WebhookEvent{Provider: CCPayment, EventId: "r1:completed", Type: models.WebhookDeposit}, nil
}

func (f *fakeAdapter) GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	return nil, nil
}

func (f *fakeAdapter) GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error) {
	return nil, nil
}

func (f *fakeAdapter) ValidateAddress(ctx context.Context, chain, address string) (bool, error) {
	return true, nil
}

func (f *fakeAdapter) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error) {
	return nil, nil
}

func newCached(t *testing.T) (*CachedAdapter, *fakeAdapter) {
	t.Helper()
	inner := newFakeAdapter()
	return NewCachedAdapter(inner, cache.NewMemory(time.Minute, time.Minute), 2*time.Minute, 5*time.Minute), inner
}

func TestCachedAdapter_BalanceHitsCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)

	first, err := cached.GetUserBalance(ctx, "alice")
	require.NoError(t, err)
	second, err := cached.GetUserBalance(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.count("balance"))
	require.Len(t, second, 1)
	assert.True(t, first[0].Available.Equal(second[0].Available))
	assert.Equal(t, first[0].CoinSymbol, second[0].CoinSymbol)
}

func TestCachedAdapter_HistoryKeyedByParameters(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)

	page1 := models.HistoryOptions{Page: 1, Limit: 20, SortBy: "created_at", SortOrder: "desc"}
	page2 := page1
	page2.Page = 2

	_, err := cached.GetTransactionHistory(ctx, "alice", page1)
	require.NoError(t, err)
	_, err = cached.GetTransactionHistory(ctx, "alice", page1)
	require.NoError(t, err)
	_, err = cached.GetTransactionHistory(ctx, "alice", page2)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.count("history"))
}

func TestCachedAdapter_NeverCachesAddresses(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)

	for i := 0; i < 3; i++ {
		_, err := cached.CreateDepositAddress(ctx, "alice", "USDT", "TRX")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.count("address"))
}

func TestCachedAdapter_WithdrawalInvalidatesUser(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)
	opts := models.HistoryOptions{Page: 1, Limit: 20, SortBy: "created_at", SortOrder: "desc"}

	_, _ = cached.GetUserBalance(ctx, "alice")
	_, _ = cached.GetTransactionHistory(ctx, "alice", opts)
	_, _ = cached.GetUserBalance(ctx, "bob")

	_, err := cached.RequestWithdrawal(ctx, "alice", models.WithdrawalRequest{OrderId: "o1"})
	require.NoError(t, err)

	_, _ = cached.GetUserBalance(ctx, "alice")
	_, _ = cached.GetTransactionHistory(ctx, "alice", opts)
	_, _ = cached.GetUserBalance(ctx, "bob")

	assert.Equal(t, 3, inner.count("balance"), "alice refetched, bob still cached")
	assert.Equal(t, 2, inner.count("history"))
	assert.Equal(t, 1, inner.count("withdrawal"))
}

func TestCachedAdapter_WebhookInvalidatesEverything(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)

	_, _ = cached.GetUserBalance(ctx, "alice")
	_, _ = cached.GetUserBalance(ctx, "bob")

	_, err := cached.ProcessWebhook(ctx, models.WebhookDelivery{Payload: []byte("{}")})
	require.NoError(t, err)

	_, _ = cached.GetUserBalance(ctx, "alice")
	_, _ = cached.GetUserBalance(ctx, "bob")
	assert.Equal(t, 4, inner.count("balance"))
}

func TestCachedAdapter_RejectedWebhookKeepsCache(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)
	inner.webhookErr = apperr.Validation("processWebhook", "bad signature").WithCode(apperr.CodeInvalidSignature)

	_, _ = cached.GetUserBalance(ctx, "alice")

	_, err := cached.ProcessWebhook(ctx, models.WebhookDelivery{Payload: []byte("{}")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, _ = cached.GetUserBalance(ctx, "alice")
	assert.Equal(t, 1, inner.count("balance"))
}

func TestCachedAdapter_OptionalCapabilitiesUnsupported(t *testing.T) {
	cached, _ := newCached(t)

	_, _, err := cached.EnsureAccount(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.ErrorIs(t, err, apperr.ErrPaymentProvider)
}
