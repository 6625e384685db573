package ccpayment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	testAppId     = "app-123"
	testAppSecret = "secret-456"
)

func testConfig(baseURL string) models.CCPaymentConfig {
	return models.CCPaymentConfig{
		BaseURL:                    baseURL,
		AppId:                      testAppId,
		AppSecret:                  testAppSecret,
		RequestTimeout:             2 * time.Second,
		BreakerTimeout:             time.Minute,
		BreakerConsecutiveFailures: 2,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestCall_SignsRequests(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ccpayment/v2/getOrCreateUserDepositAddress" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		want := Sign(testAppId, testAppSecret, r.Header.Get("Timestamp"), body)
		if r.Header.Get("Sign") != want {
			t.Errorf("Bad signature %q, want %q", r.Header.Get("Sign"), want)
		}
		if r.Header.Get("Appid") != testAppId {
			t.Errorf("Bad app id %q", r.Header.Get("Appid"))
		}
		_, _ = io.WriteString(w, `{"code":10000,"msg":"success","data":{"address":"TXabc","memo":""}}`)
	})

	addr, err := client.GetOrCreateUserDepositAddress(context.Background(), "u1", "TRX")
	if err != nil {
		t.Fatalf("GetOrCreateUserDepositAddress failed: %v", err)
	}
	if addr.Address != "TXabc" {
		t.Errorf("Expected TXabc, got %s", addr.Address)
	}
}

func TestCall_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":11000,"msg":"Invalid userId","data":null}`)
	})

	_, err := client.GetUserCoinAssetList(context.Background(), "u1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Code != 11000 || apiErr.Endpoint != "getUserCoinAssetList" {
		t.Errorf("Unexpected API error %+v", apiErr)
	}
}

func TestCall_BusinessErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":10002,"msg":"bad request"}`)
	})

	for i := 0; i < 5; i++ {
		_, err := client.GetCoinList(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Call %d: expected APIError, got %v", i, err)
		}
	}
}

func TestCall_ServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		if _, err := client.GetCoinList(context.Background()); err == nil {
			t.Fatal("Expected error from failing provider")
		}
	}

	_, err := client.GetCoinList(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Expected open breaker, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 requests to reach the server, got %d", hits.Load())
	}
}

func TestGetCoinUSDTPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":10000,"msg":"success","data":{"prices":{"1280":"1.0001","1155":"64000.5"}}}`)
	})

	prices, err := client.GetCoinUSDTPrice(context.Background(), []int64{1280, 1155})
	if err != nil {
		t.Fatalf("GetCoinUSDTPrice failed: %v", err)
	}
	if !prices[1155].Equal(decimal.RequireFromString("64000.5")) {
		t.Errorf("Unexpected BTC price %s", prices[1155])
	}
}

func TestCall_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RequestTimeout = 50 * time.Millisecond
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	start := time.Now()
	if _, err := client.GetCoinList(context.Background()); err == nil {
		t.Fatal("Expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Call was not bounded by the request timeout: %v", elapsed)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client, err := NewClient(testConfig("http://unused"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	fixed := time.Unix(1_700_000_000, 0)
	client.now = func() time.Time { return fixed }
	client.maxSkew = 5 * time.Minute

	body := []byte(`{"type":"UserDeposit","msg":{"recordId":"r1"}}`)
	ts := strconv.FormatInt(fixed.Unix(), 10)
	good := Sign(testAppId, testAppSecret, ts, body)

	tests := []struct {
		name    string
		appId   string
		ts      string
		body    []byte
		sign    string
		wantErr error
	}{
		{"valid", testAppId, ts, body, good, nil},
		{"valid without app id header", "", ts, body, good, nil},
		{"tampered body", testAppId, ts, []byte(`{"type":"UserDeposit"}`), good, ErrInvalidSignature},
		{"wrong app", "other", ts, body, good, ErrAppIdMismatch},
		{"missing sign", testAppId, ts, body, "", ErrInvalidSignature},
		{"stale", testAppId, "1699990000", body, Sign(testAppId, testAppSecret, "1699990000", body), ErrStaleTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.VerifyWebhookSignature(tt.appId, tt.ts, tt.body, tt.sign)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseWebhook(t *testing.T) {
	payload, err := ParseWebhook([]byte(`{"type":"UserDeposit","msg":{"recordId":"r1","userId":"p1","coinId":1280,"coinSymbol":"USDT","amount":"25.5","status":"Success"}}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if payload.Type != WebhookUserDeposit || payload.Msg.RecordId != "r1" {
		t.Errorf("Unexpected payload %+v", payload)
	}
	if !payload.Msg.Amount.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("Unexpected amount %s", payload.Msg.Amount)
	}

	if _, err := ParseWebhook([]byte(`{"msg":{}}`)); err == nil {
		t.Error("Expected error for missing type")
	}
}
