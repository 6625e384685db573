package wallet

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/cache"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/database"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *config.Catalog {
	return config.NewCatalog([]models.CurrencyConfig{
		{Symbol: "USDT", Chains: []string{"TRX", "ETH"}, DefaultChain: "TRX",
			MinWithdraw: decimal.NewFromInt(10), MaxWithdraw: decimal.NewFromInt(1000), WithdrawFee: decimal.NewFromInt(1)},
		{Symbol: "BTC", Chains: []string{"BTC"}, DefaultChain: "BTC"},
	})
}

func testSettings() models.WalletSettings {
	return models.WalletSettings{
		MaxBalance:      decimal.NewFromInt(1_000_000_000),
		WelcomeBonus:    decimal.NewFromInt(100),
		DgtExchangeRate: decimal.NewFromInt(10),
	}
}

type fixture struct {
	svc     *Service
	db      *database.Service
	adapter *fakeAdapter
}

func setup(t *testing.T, settings models.WalletSettings) fixture {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "wallet.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 4,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	adapter := newFakeAdapter()
	cached := provider.NewCachedAdapter(adapter, cache.NewMemory(time.Minute, time.Minute), 2*time.Minute, 5*time.Minute)
	return fixture{svc: NewService(db, cached, testCatalog(), settings), db: db, adapter: adapter}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func adminCredit() models.AdminCredit {
	return models.AdminCredit{AdminId: "admin", Reason: "test"}
}

func adminDebit() models.AdminDebit {
	return models.AdminDebit{AdminId: "admin", Reason: "test"}
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func balanceOf(t *testing.T, f fixture, userId string) decimal.Decimal {
	t.Helper()
	w, err := f.db.GetWallet(context.Background(), userId)
	require.NoError(t, err)
	return w.Balance
}

func TestCreditDgt_FreshUser(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	tx, err := f.svc.CreditDgt(ctx, "u1", dec("100"), adminCredit())
	require.NoError(t, err)
	assert.Equal(t, models.TxAdminCredit, tx.Type)
	assert.Equal(t, models.TxStatusCompleted, tx.Status)
	assert.True(t, tx.Amount.Equal(dec("100")))

	assert.True(t, balanceOf(t, f, "u1").Equal(dec("100")))

	history, err := f.db.GetTransactionHistory(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)

	meta, err := models.DecodeMetadata(history[0].Metadata)
	require.NoError(t, err)
	assert.Equal(t, adminCredit(), meta)
}

func TestLedger_ValidationBoundaries(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "u1", decimal.Zero, adminCredit())
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.DebitDgt(ctx, "u1", dec("-5"), adminDebit())
	requireKind(t, err, apperr.KindValidation)

	_, err = f.svc.TransferDgt(ctx, models.TransferRequest{FromUserId: "a", ToUserId: "a", Amount: dec("5")})
	requireKind(t, err, apperr.KindValidation)
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeSelfTransfer})

	_, err = f.svc.CreditDgt(ctx, "u1", dec("5"), adminDebit())
	requireKind(t, err, apperr.KindValidation)

	_, err = f.db.GetWallet(ctx, "u1")
	assert.Error(t, err, "failed validation must not create a wallet")
}

func TestDebitDgt_InsufficientFundsLeavesBalance(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "u1", dec("40"), adminCredit())
	require.NoError(t, err)

	_, err = f.svc.DebitDgt(ctx, "u1", dec("41"), adminDebit())
	requireKind(t, err, apperr.KindInsufficient)
	assert.True(t, balanceOf(t, f, "u1").Equal(dec("40")))

	_, err = f.svc.DebitDgt(ctx, "nobody", dec("1"), adminDebit())
	requireKind(t, err, apperr.KindNotFound)
}

func TestCreditDgt_BalanceCap(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.MaxBalance = dec("100")
	f := setup(t, settings)

	_, err := f.svc.CreditDgt(ctx, "u1", dec("100"), adminCredit())
	require.NoError(t, err)

	_, err = f.svc.CreditDgt(ctx, "u1", dec("0.00000001"), adminCredit())
	requireKind(t, err, apperr.KindValidation)
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeBalanceCapExceeded})
}

func TestTransferDgt_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "alice", dec("50"), adminCredit())
	require.NoError(t, err)
	_, err = f.svc.CreditDgt(ctx, "bob", dec("20"), adminCredit())
	require.NoError(t, err)

	out, err := f.svc.TransferDgt(ctx, models.TransferRequest{FromUserId: "alice", ToUserId: "bob", Amount: dec("12.5"), Reason: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, models.TxTransferOut, out.Type)
	assert.True(t, out.Amount.Equal(dec("-12.5")))

	_, err = f.svc.TransferDgt(ctx, models.TransferRequest{FromUserId: "bob", ToUserId: "alice", Amount: dec("12.5")})
	require.NoError(t, err)

	assert.True(t, balanceOf(t, f, "alice").Equal(dec("50")))
	assert.True(t, balanceOf(t, f, "bob").Equal(dec("20")))

	sum := decimal.Zero
	rows := 0
	for _, user := range []string{"alice", "bob"} {
		history, err := f.db.GetTransactionHistory(ctx, user, 10, 0)
		require.NoError(t, err)
		for _, tx := range history {
			if tx.Type == models.TxTransferIn || tx.Type == models.TxTransferOut {
				sum = sum.Add(tx.Amount)
				rows++
			}
		}
		require.NoError(t, f.svc.ReconcileWallet(ctx, user))
	}
	assert.Equal(t, 4, rows)
	assert.True(t, sum.IsZero())
}

func TestTransferDgt_Failures(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "alice", dec("10"), adminCredit())
	require.NoError(t, err)
	_, err = f.svc.CreditDgt(ctx, "frozen", dec("10"), adminCredit())
	require.NoError(t, err)
	require.NoError(t, f.svc.SetWalletStatus(ctx, "frozen", models.WalletStatusFrozen))

	tests := []struct {
		name string
		req  models.TransferRequest
		kind apperr.Kind
	}{
		{"missing receiver", models.TransferRequest{FromUserId: "alice", ToUserId: "ghost", Amount: dec("1")}, apperr.KindNotFound},
		{"frozen receiver", models.TransferRequest{FromUserId: "alice", ToUserId: "frozen", Amount: dec("1")}, apperr.KindForbidden},
		{"frozen sender", models.TransferRequest{FromUserId: "frozen", ToUserId: "alice", Amount: dec("1")}, apperr.KindForbidden},
		{"short sender", models.TransferRequest{FromUserId: "alice", ToUserId: "frozen", Amount: dec("11")}, apperr.KindForbidden},
		{"zero amount", models.TransferRequest{FromUserId: "alice", ToUserId: "frozen", Amount: decimal.Zero}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.TransferDgt(ctx, tt.req)
			requireKind(t, err, tt.kind)
		})
	}

	require.NoError(t, f.svc.SetWalletStatus(ctx, "frozen", models.WalletStatusActive))
	_, err = f.svc.TransferDgt(ctx, models.TransferRequest{FromUserId: "alice", ToUserId: "frozen", Amount: dec("11")})
	requireKind(t, err, apperr.KindInsufficient)
	assert.True(t, balanceOf(t, f, "alice").Equal(dec("10")))
}

func TestDebitDgt_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "u1", dec("100"), adminCredit())
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, shortage int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.DebitDgt(ctx, "u1", dec("30"), models.ShopPurchase{ItemId: "frame", ItemName: "Gold frame"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperr.KindOf(err) == apperr.KindInsufficient {
				shortage++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, shortage)
	assert.True(t, balanceOf(t, f, "u1").Equal(dec("10")))
	require.NoError(t, f.svc.ReconcileWallet(ctx, "u1"))
}

func TestGetUserBalance_CachedWithinTTL(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	_, err := f.svc.CreditDgt(ctx, "u1", dec("25"), adminCredit())
	require.NoError(t, err)
	_, _, err = f.adapter.EnsureAccount(ctx, "u1")
	require.NoError(t, err)

	first, err := f.svc.GetUserBalance(ctx, "u1")
	require.NoError(t, err)
	second, err := f.svc.GetUserBalance(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.adapter.count("GetUserBalance"))
	assert.True(t, first.Dgt.Equal(dec("25")))
	assert.True(t, second.Dgt.Equal(first.Dgt))
	require.Len(t, second.Crypto, 1)
	assert.True(t, second.Crypto[0].Available.Equal(first.Crypto[0].Available))
}

func TestGetUserBalance_WithoutProviderAccount(t *testing.T) {
	f := setup(t, testSettings())

	balance, err := f.svc.GetUserBalance(context.Background(), "stranger")
	require.NoError(t, err)
	assert.True(t, balance.Dgt.IsZero())
	assert.Empty(t, balance.Crypto)

	_, err = f.db.GetWallet(context.Background(), "stranger")
	assert.Error(t, err, "reading a balance must not create a wallet")
}

func TestRequestWithdrawal(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())
	valid := models.WithdrawalRequest{CoinSymbol: "usdt", Address: "TXYZopYRdj2D9XRtbG411XZZ3kM5VkAeBf", Amount: dec("50")}

	invalid := []struct {
		name   string
		modify func(r *models.WithdrawalRequest)
	}{
		{"unsupported currency", func(r *models.WithdrawalRequest) { r.CoinSymbol = "DOGE" }},
		{"unsupported chain", func(r *models.WithdrawalRequest) { r.Chain = "SOL" }},
		{"zero amount", func(r *models.WithdrawalRequest) { r.Amount = decimal.Zero }},
		{"empty address", func(r *models.WithdrawalRequest) { r.Address = " " }},
		{"below minimum", func(r *models.WithdrawalRequest) { r.Amount = dec("9.99") }},
		{"above maximum", func(r *models.WithdrawalRequest) { r.Amount = dec("1000.01") }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.modify(&req)
			_, err := f.svc.RequestWithdrawal(ctx, "u1", req)
			requireKind(t, err, apperr.KindValidation)
		})
	}
	assert.Equal(t, 0, f.adapter.count("ValidateAddress"))

	f.adapter.validAddress = false
	_, err := f.svc.RequestWithdrawal(ctx, "u1", valid)
	requireKind(t, err, apperr.KindValidation)
	assert.Equal(t, 0, f.adapter.count("RequestWithdrawal"))

	f.adapter.validAddress = true
	resp, err := f.svc.RequestWithdrawal(ctx, "u1", valid)
	require.NoError(t, err)
	require.NotEmpty(t, resp.OrderId)

	record, err := f.db.GetWithdrawalRecord(ctx, resp.OrderId)
	require.NoError(t, err)
	assert.Equal(t, "TRX", record.Chain)
	assert.Equal(t, "USDT", record.CoinSymbol)
	assert.Equal(t, models.TxStatusPending, record.Status)
	assert.True(t, record.Fee.Equal(dec("0.5")))
}

func TestMaintenanceMode(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.MaintenanceMode = true
	f := setup(t, settings)

	_, err := f.svc.RequestWithdrawal(ctx, "u1", models.WithdrawalRequest{CoinSymbol: "USDT", Address: "T", Amount: dec("50")})
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.svc.CreateDepositAddress(ctx, "u1", "USDT", "")
	requireKind(t, err, apperr.KindForbidden)

	_, err = f.svc.RequestSwap(ctx, "u1", models.SwapRequest{FromCoinId: 1, ToCoinId: 2, FromAmount: dec("1")})
	requireKind(t, err, apperr.KindForbidden)

	assert.True(t, f.svc.GetWalletConfig().MaintenanceMode)

	_, err = f.svc.CreditDgt(ctx, "u1", dec("1"), adminCredit())
	assert.NoError(t, err, "ledger operations ignore maintenance mode")
}

func TestCreateDepositAddress_DefaultChainAndPersisted(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	addr, err := f.svc.CreateDepositAddress(ctx, "u1", "usdt", "")
	require.NoError(t, err)
	assert.Equal(t, "TRX", addr.Chain)
	assert.Equal(t, "USDT", addr.CoinSymbol)

	_, err = f.svc.CreateDepositAddress(ctx, "u1", "usdt", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.adapter.count("CreateDepositAddress"), "addresses are never cached")

	stored, err := f.svc.GetDepositAddresses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	_, err = f.svc.CreateDepositAddress(ctx, "u1", "DOGE", "")
	requireKind(t, err, apperr.KindValidation)
}

func TestGetTransactionHistory_MergesSources(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	for i := 1; i <= 3; i++ {
		_, err := f.svc.CreditDgt(ctx, "u1", decimal.NewFromInt(int64(i)), adminCredit())
		require.NoError(t, err)
	}
	now := time.Now().UTC()
	f.adapter.history = []models.Transaction{
		{Id: "ccpayment:new", UserId: "u1", Amount: dec("5"), Source: models.SourceProvider, CreatedAt: now.Add(time.Hour)},
		{Id: "ccpayment:old", UserId: "u1", Amount: dec("-2"), Source: models.SourceProvider, CreatedAt: now.Add(-time.Hour)},
	}

	page1, err := f.svc.GetTransactionHistory(ctx, "u1", models.HistoryOptions{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "ccpayment:new", page1[0].Id)
	assert.Equal(t, models.SourceLedger, page1[1].Source)
	assert.True(t, page1[1].Amount.Equal(dec("3")))

	page3, err := f.svc.GetTransactionHistory(ctx, "u1", models.HistoryOptions{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "ccpayment:old", page3[0].Id)

	clamped, err := f.svc.GetTransactionHistory(ctx, "u1", models.HistoryOptions{Page: 1, Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, clamped, 5)

	_, err = f.svc.GetTransactionHistory(ctx, "u1", models.HistoryOptions{SortBy: "color"})
	requireKind(t, err, apperr.KindValidation)
}

func TestGetSupportedCoins_RestrictedToCatalog(t *testing.T) {
	f := setup(t, testSettings())

	coins, err := f.svc.GetSupportedCoins(context.Background())
	require.NoError(t, err)
	symbols := make([]string, 0, len(coins))
	for _, c := range coins {
		symbols = append(symbols, c.Symbol)
	}
	assert.ElementsMatch(t, []string{"USDT", "BTC"}, symbols)
}

func TestRequestSwap_Recorded(t *testing.T) {
	ctx := context.Background()
	f := setup(t, testSettings())

	resp, err := f.svc.RequestSwap(ctx, "u1", models.SwapRequest{FromCoinId: 1280, ToCoinId: 1155, FromAmount: dec("3")})
	require.NoError(t, err)

	record, err := f.db.GetSwapRecord(ctx, resp.RecordId)
	require.NoError(t, err)
	assert.True(t, record.ToAmount.Equal(dec("6")))
	assert.Equal(t, models.TxStatusPending, record.Status)

	_, err = f.svc.RequestSwap(ctx, "u1", models.SwapRequest{FromCoinId: 1280, ToCoinId: 1280, FromAmount: dec("3")})
	requireKind(t, err, apperr.KindValidation)
}

func TestConvertToDgt_RoundsDown(t *testing.T) {
	got := ConvertToDgt(dec("0.123456789"), dec("1.5"), dec("10"))
	assert.Equal(t, "1.85185183", got.String())
}

func TestGetWalletConfig(t *testing.T) {
	f := setup(t, testSettings())
	cfg := f.svc.GetWalletConfig()

	assert.Equal(t, []string{"BTC", "USDT"}, cfg.SupportedCurrencies)
	assert.True(t, cfg.MinimumWithdrawal["USDT"].Equal(dec("10")))
	assert.True(t, cfg.DgtExchangeRate.Equal(dec("10")))
	assert.False(t, cfg.MaintenanceMode)
}
