package database

import (
	"context"
	"errors"
	"testing"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"github.com/shopspring/decimal"
)

func depositEvent(eventId string) store.ApplyWebhookParams {
	return store.ApplyWebhookParams{
		Event: models.WebhookEvent{
			Provider: "ccpayment",
			EventId:  eventId,
			Type:     models.WebhookDeposit,
			UserId:   "u1",
			Amount:   decimal.RequireFromString("0.5"),
			Status:   models.TxStatusCompleted,
		},
		Payload: []byte(`{"type":"UserDeposit"}`),
		Credit: &store.EntryParams{
			UserId:     "u1",
			Amount:     decimal.NewFromInt(25),
			Type:       models.TxCryptoDeposit,
			ExternalId: eventId,
		},
	}
}

func TestApplyWebhookEvent_DuplicateIsNoop(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	first, err := service.ApplyWebhookEvent(ctx, depositEvent("rec-1"))
	if err != nil {
		t.Fatalf("ApplyWebhookEvent failed: %v", err)
	}
	if first.Credit == nil || first.Credit.Type != models.TxCryptoDeposit {
		t.Fatalf("Expected crypto deposit credit, got %+v", first.Credit)
	}

	_, err = service.ApplyWebhookEvent(ctx, depositEvent("rec-1"))
	if !errors.Is(err, store.ErrDuplicateEvent) {
		t.Fatalf("Expected duplicate event error, got %v", err)
	}

	mustBalance(t, service, "u1", 25)
}

func TestApplyWebhookEvent_FailedCreditRollsBackEvent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := depositEvent("rec-2")
	params.Credit.MaxBalance = decimal.NewFromInt(10)

	if _, err := service.ApplyWebhookEvent(ctx, params); !errors.Is(err, store.ErrBalanceCapExceeded) {
		t.Fatalf("Expected balance cap error, got %v", err)
	}

	// The event was not recorded, so a corrected delivery still applies
	params.Credit.MaxBalance = decimal.Zero
	if _, err := service.ApplyWebhookEvent(ctx, params); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	mustBalance(t, service, "u1", 25)
}

func TestApplyWebhookEvent_WithdrawalTransitions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.CreateWithdrawalRecord(ctx, models.WithdrawalRecord{
		OrderId:    "order-1",
		UserId:     "u1",
		CoinSymbol: "USDT",
		Chain:      "TRX",
		Address:    "TXYZ",
		Amount:     decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("CreateWithdrawalRecord failed: %v", err)
	}

	apply := func(eventId string, status models.TransactionStatus) *store.ApplyWebhookResult {
		res, err := service.ApplyWebhookEvent(ctx, store.ApplyWebhookParams{
			Event: models.WebhookEvent{Provider: "ccpayment", EventId: eventId, Type: models.WebhookWithdrawal, OrderId: "order-1", Status: status},
			Withdrawal: &store.StatusTransition{
				Key:      "order-1",
				Status:   status,
				RecordId: "rec-" + eventId,
				TxHash:   "0xhash",
			},
		})
		if err != nil {
			t.Fatalf("ApplyWebhookEvent(%s) failed: %v", eventId, err)
		}
		return res
	}

	if res := apply("e1", models.TxStatusCompleted); !res.Transitioned {
		t.Fatal("Expected pending -> completed")
	}
	if res := apply("e2", models.TxStatusFailed); res.Transitioned {
		t.Fatal("Terminal state must not be left")
	}

	record, err := service.GetWithdrawalRecord(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetWithdrawalRecord failed: %v", err)
	}
	if record.Status != models.TxStatusCompleted || record.TxHash != "0xhash" || record.RecordId != "rec-e1" {
		t.Errorf("Unexpected record %+v", record)
	}
}

func TestApplyWebhookEvent_SwapTransition(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	err := service.CreateSwapRecord(ctx, models.SwapRecord{
		RecordId:   "swap-1",
		OrderId:    "order-s",
		UserId:     "u1",
		FromCoinId: 1280,
		ToCoinId:   1329,
		FromAmount: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("CreateSwapRecord failed: %v", err)
	}

	res, err := service.ApplyWebhookEvent(ctx, store.ApplyWebhookParams{
		Event: models.WebhookEvent{Provider: "ccpayment", EventId: "swap-1", Type: models.WebhookSwap, Status: models.TxStatusCancelled},
		Swap:  &store.StatusTransition{Key: "swap-1", Status: models.TxStatusCancelled},
	})
	if err != nil {
		t.Fatalf("ApplyWebhookEvent failed: %v", err)
	}
	if !res.Transitioned {
		t.Error("Expected swap transition")
	}

	record, err := service.GetSwapRecord(ctx, "swap-1")
	if err != nil {
		t.Fatalf("GetSwapRecord failed: %v", err)
	}
	if record.Status != models.TxStatusCancelled {
		t.Errorf("Expected cancelled, got %s", record.Status)
	}
}

func TestProviderAccounts_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.GetProviderAccount(ctx, "u1", "ccpayment"); !errors.Is(err, store.ErrProviderAccountNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}

	account := models.ProviderAccount{UserId: "u1", Provider: "ccpayment", ProviderUserId: "u1"}
	_, created, err := service.CreateProviderAccount(ctx, account)
	if err != nil || !created {
		t.Fatalf("Expected creation, got created=%v err=%v", created, err)
	}
	_, created, err = service.CreateProviderAccount(ctx, account)
	if err != nil || created {
		t.Fatalf("Expected existing mapping, got created=%v err=%v", created, err)
	}

	found, err := service.FindProviderAccount(ctx, "ccpayment", "u1")
	if err != nil {
		t.Fatalf("FindProviderAccount failed: %v", err)
	}
	if found.UserId != "u1" {
		t.Errorf("Unexpected user %s", found.UserId)
	}

	accounts, err := service.ListProviderAccounts(ctx, "ccpayment")
	if err != nil || len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d (%v)", len(accounts), err)
	}
}

func TestStoreDepositAddress_Upserts(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	addr := models.DepositAddress{UserId: "u1", CoinSymbol: "USDT", Chain: "TRX", Address: "TOld"}
	if _, err := service.StoreDepositAddress(ctx, addr); err != nil {
		t.Fatalf("StoreDepositAddress failed: %v", err)
	}
	addr.Address = "TNew"
	stored, err := service.StoreDepositAddress(ctx, addr)
	if err != nil {
		t.Fatalf("StoreDepositAddress failed: %v", err)
	}
	if stored.Address != "TNew" {
		t.Errorf("Expected latest address, got %s", stored.Address)
	}

	all, err := service.GetDepositAddresses(ctx, "u1")
	if err != nil || len(all) != 1 {
		t.Fatalf("Expected a single address row, got %d (%v)", len(all), err)
	}
}

func TestSupportedTokens(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	tokens := []models.SupportedToken{
		{CoinSymbol: "BTC", CoinId: 1155, Chains: []string{"BTC"}, IsActive: true},
		{CoinSymbol: "USDT", CoinId: 1280, Chains: []string{"TRX", "ETH"}, IsActive: true},
		{CoinSymbol: "DOGE", CoinId: 1, Chains: []string{"DOGE"}, IsActive: false},
	}
	for _, token := range tokens {
		if err := service.UpsertSupportedToken(ctx, token); err != nil {
			t.Fatalf("UpsertSupportedToken failed: %v", err)
		}
	}

	active, err := service.ListSupportedTokens(ctx, true)
	if err != nil {
		t.Fatalf("ListSupportedTokens failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("Expected 2 active tokens, got %d", len(active))
	}
	if active[1].CoinSymbol != "USDT" || len(active[1].Chains) != 2 {
		t.Errorf("Unexpected token %+v", active[1])
	}

	all, err := service.ListSupportedTokens(ctx, false)
	if err != nil || len(all) != 3 {
		t.Fatalf("Expected 3 tokens, got %d (%v)", len(all), err)
	}
}
