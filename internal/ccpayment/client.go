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

package ccpayment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dgt-wallet-go/internal/metrics"
	"dgt-wallet-go/internal/models"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// CodeSuccess is the envelope code of a successful call
const CodeSuccess = 10000

const (
	apiPrefix       = "/ccpayment/v2/"
	maxResponseSize = 4 << 20
)

// APIError is a business error reported inside the response envelope
type APIError struct {
	Endpoint string
	Code     int
	Msg      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ccpayment %s: code %d: %s", e.Endpoint, e.Code, e.Msg)
}

// HTTPError is a non-2xx response from the provider
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	appId      string
	appSecret  string
	httpClient http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxSkew    time.Duration
	now        func() time.Time
}

func NewClient(cfg models.CCPaymentConfig) (*Client, error) {
	if cfg.AppId == "" || cfg.AppSecret == "" {
		return nil, fmt.Errorf("ccpayment app id and secret are required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %v", cfg.RequestTimeout)
	}

	httpClient, err := createCustomHttpClient(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appId:      cfg.AppId,
		appSecret:  cfg.AppSecret,
		httpClient: httpClient,
		timeout:    cfg.RequestTimeout,
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(cfg),
		maxSkew:    cfg.WebhookMaxSkew,
		now:        time.Now,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   10 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   2 * timeout,
	}, nil
}

func newBreaker(cfg models.CCPaymentConfig) *gobreaker.CircuitBreaker[[]byte] {
	failures := cfg.BreakerConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ccpayment",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// Client errors mean the request was wrong, not that the provider is down
		IsSuccessful: func(err error) bool {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				return httpErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.BreakerState.WithLabelValues(name, from.String()).Set(0)
			metrics.BreakerState.WithLabelValues(name, to.String()).Set(1)
		},
	})
}

// Sign computes hex(HMAC-SHA256(secret, appId + timestamp + body))
func Sign(appId, appSecret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(appId))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// call posts request to endpoint and decodes the envelope data into result
func (c *Client) call(ctx context.Context, endpoint string, request, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, metrics.ResultRejected).Inc()
		return fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
	}

	var body []byte
	if request != nil {
		var err error
		if body, err = json.Marshal(request); err != nil {
			return fmt.Errorf("unable to encode %s request: %w", endpoint, err)
		}
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, body)
	})
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, metrics.ResultError).Inc()
		return fmt.Errorf("unable to call %s: %w", endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, metrics.ResultError).Inc()
		return fmt.Errorf("unable to decode %s response: %w", endpoint, err)
	}
	if env.Code != CodeSuccess {
		metrics.ProviderRequests.WithLabelValues(endpoint, metrics.ResultRejected).Inc()
		return &APIError{Endpoint: endpoint, Code: env.Code, Msg: env.Msg}
	}

	metrics.ProviderRequests.WithLabelValues(endpoint, metrics.ResultOK).Inc()
	if result == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unable to decode %s data: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Appid", c.appId)
	req.Header.Set("Timestamp", timestamp)
	req.Header.Set("Sign", Sign(c.appId, c.appSecret, timestamp, body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Debug("Failed to close response body", zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
