package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"

	"github.com/shopspring/decimal"
)

type fakeAccounts struct {
	accounts []models.ProviderAccount
	err      error
}

func (f *fakeAccounts) ListProviderAccounts(ctx context.Context, providerName string) ([]models.ProviderAccount, error) {
	return f.accounts, f.err
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[string][]models.ProviderRecord
	failFor string
	calls   int
}

func (f *fakeRecords) ListRecords(ctx context.Context, userId string, since time.Time) ([]models.ProviderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if userId == f.failFor {
		return nil, errors.New("provider unavailable")
	}
	return f.records[userId], nil
}

// fakeIngester dedupes by event id the way the store does
type fakeIngester struct {
	mu     sync.Mutex
	seen   map[string]bool
	events []models.WebhookEvent
}

func (f *fakeIngester) IngestEvent(ctx context.Context, event models.WebhookEvent, payload []byte) (*models.WebhookResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[event.EventId] {
		return &models.WebhookResult{Success: true, Duplicate: true, EventId: event.EventId}, nil
	}
	f.seen[event.EventId] = true
	f.events = append(f.events, event)
	return &models.WebhookResult{Success: true, EventId: event.EventId}, nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) InvalidateUser(ctx context.Context, userId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userId)
}

func newTestListener(t *testing.T, records *fakeRecords, ingester *fakeIngester) *ReconcileListener {
	t.Helper()
	l, err := NewReconcileListener(ReconcileListenerConfig{
		Provider: provider.CCPayment,
		Accounts: &fakeAccounts{accounts: []models.ProviderAccount{
			{UserId: "alice", Provider: provider.CCPayment, ProviderUserId: "dgt_alice"},
			{UserId: "bob", Provider: provider.CCPayment, ProviderUserId: "dgt_bob"},
		}},
		Records:         records,
		Ingester:        ingester,
		LookbackWindow:  time.Hour,
		PollingInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("NewReconcileListener failed: %v", err)
	}
	return l
}

func TestPollOnce_IngestsTerminalRecordsOnce(t *testing.T) {
	records := &fakeRecords{records: map[string][]models.ProviderRecord{
		"alice": {
			{RecordId: "d1", Type: models.WebhookDeposit, CoinSymbol: "USDT", Amount: decimal.NewFromInt(5), Status: models.TxStatusCompleted},
			{RecordId: "d2", Type: models.WebhookDeposit, CoinSymbol: "USDT", Amount: decimal.NewFromInt(3), Status: models.TxStatusPending},
		},
		"bob": {
			{RecordId: "w1", OrderId: "o1", Type: models.WebhookWithdrawal, Status: models.TxStatusFailed},
			{RecordId: "w2", Type: models.WebhookWithdrawal, Status: models.TxStatusCompleted},
		},
	}}
	ingester := &fakeIngester{seen: map[string]bool{}}
	l := newTestListener(t, records, ingester)

	stats := l.PollOnce(context.Background())
	if stats.Accounts != 2 || stats.Records != 4 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.Ingested != 2 || stats.Skipped != 2 {
		t.Fatalf("expected 2 ingested and 2 skipped, got %+v", stats)
	}

	byId := map[string]models.WebhookEvent{}
	for _, e := range ingester.events {
		byId[e.EventId] = e
	}
	deposit, ok := byId["d1:completed"]
	if !ok || deposit.UserId != "alice" || !deposit.Amount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("deposit event not recovered: %+v", byId)
	}
	if w, ok := byId["w1:failed"]; !ok || w.OrderId != "o1" {
		t.Fatalf("withdrawal event not recovered: %+v", byId)
	}

	// Second pass hits the in-memory set and never reaches the ingester
	again := l.PollOnce(context.Background())
	if again.Ingested != 0 || again.Duplicates != 0 {
		t.Fatalf("expected no new work on second poll, got %+v", again)
	}
	if len(ingester.events) != 2 {
		t.Fatalf("expected 2 events total, got %d", len(ingester.events))
	}
}

func TestPollOnce_AccountFailureDoesNotStopOthers(t *testing.T) {
	records := &fakeRecords{
		failFor: "alice",
		records: map[string][]models.ProviderRecord{
			"bob": {{RecordId: "d9", Type: models.WebhookDeposit, Amount: decimal.NewFromInt(1), Status: models.TxStatusCompleted}},
		},
	}
	ingester := &fakeIngester{seen: map[string]bool{}}
	l := newTestListener(t, records, ingester)

	stats := l.PollOnce(context.Background())
	if stats.Failed != 1 || stats.Ingested != 1 {
		t.Fatalf("expected one failure and one ingest, got %+v", stats)
	}
}

func TestPollOnce_DuplicateAfterRestart(t *testing.T) {
	records := &fakeRecords{records: map[string][]models.ProviderRecord{
		"alice": {{RecordId: "d1", Type: models.WebhookDeposit, Amount: decimal.NewFromInt(5), Status: models.TxStatusCompleted}},
	}}
	ingester := &fakeIngester{seen: map[string]bool{"d1:completed": true}}
	l := newTestListener(t, records, ingester)

	stats := l.PollOnce(context.Background())
	if stats.Duplicates != 1 || stats.Ingested != 0 {
		t.Fatalf("expected the webhook-applied event to be a duplicate, got %+v", stats)
	}
}

func TestPollOnce_InvalidatesCacheForRecoveredEvents(t *testing.T) {
	records := &fakeRecords{records: map[string][]models.ProviderRecord{
		"alice": {{RecordId: "d1", Type: models.WebhookDeposit, Amount: decimal.NewFromInt(5), Status: models.TxStatusCompleted}},
		"bob":   {{RecordId: "d2", Type: models.WebhookDeposit, Amount: decimal.NewFromInt(7), Status: models.TxStatusCompleted}},
	}}
	ingester := &fakeIngester{seen: map[string]bool{"d2:completed": true}}
	l := newTestListener(t, records, ingester)
	invalidator := &fakeInvalidator{}
	l.invalidator = invalidator

	stats := l.PollOnce(context.Background())
	if stats.Ingested != 1 || stats.Duplicates != 1 {
		t.Fatalf("expected 1 ingested and 1 duplicate, got %+v", stats)
	}
	if len(invalidator.users) != 1 || invalidator.users[0] != "alice" {
		t.Fatalf("expected only alice to be invalidated, got %v", invalidator.users)
	}
}

func TestCleanupProcessedEvents(t *testing.T) {
	l := newTestListener(t, &fakeRecords{}, &fakeIngester{seen: map[string]bool{}})

	l.markEventProcessed("old")
	l.processedEventIds["old"] = time.Now().Add(-2 * time.Hour)
	l.markEventProcessed("fresh")

	l.cleanupProcessedEvents(time.Now())

	if l.isEventProcessed("old") {
		t.Fatal("expected old event id to be forgotten")
	}
	if !l.isEventProcessed("fresh") {
		t.Fatal("expected fresh event id to be kept")
	}
}

func TestStartStop(t *testing.T) {
	records := &fakeRecords{}
	l := newTestListener(t, records, &fakeIngester{seen: map[string]bool{}})

	l.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for {
		records.mu.Lock()
		calls := records.calls
		records.mu.Unlock()
		if calls >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	l.Stop()

	if records.calls < 2 {
		t.Fatalf("expected the startup poll to cover both accounts, got %d calls", records.calls)
	}
}

func TestNewReconcileListener_Validation(t *testing.T) {
	_, err := NewReconcileListener(ReconcileListenerConfig{})
	if err == nil {
		t.Fatal("expected error for missing dependencies")
	}

	_, err = NewReconcileListener(ReconcileListenerConfig{
		Accounts: &fakeAccounts{}, Records: &fakeRecords{}, Ingester: &fakeIngester{},
		LookbackWindow: time.Hour,
	})
	if err == nil {
		t.Fatal("expected error for zero polling interval")
	}
}
