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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

type durationVar struct {
	key          string
	defaultValue time.Duration
	dst          *time.Duration
}

func Load() (*models.Config, error) {
	cfg := &models.Config{}

	durations := []durationVar{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"CCPAYMENT_REQUEST_TIMEOUT", 15 * time.Second, &cfg.CCPayment.RequestTimeout},
		{"CCPAYMENT_WEBHOOK_MAX_SKEW", 0, &cfg.CCPayment.WebhookMaxSkew},
		{"CCPAYMENT_BREAKER_INTERVAL", time.Minute, &cfg.CCPayment.BreakerInterval},
		{"CCPAYMENT_BREAKER_TIMEOUT", 30 * time.Second, &cfg.CCPayment.BreakerTimeout},
		{"CACHE_BALANCE_TTL", 2 * time.Minute, &cfg.Cache.BalanceTTL},
		{"CACHE_HISTORY_TTL", 5 * time.Minute, &cfg.Cache.HistoryTTL},
		{"CACHE_SWEEP_INTERVAL", time.Minute, &cfg.Cache.SweepInterval},
		{"LISTENER_LOOKBACK_WINDOW", 6 * time.Hour, &cfg.Listener.LookbackWindow},
		{"LISTENER_POLLING_INTERVAL", 30 * time.Second, &cfg.Listener.PollingInterval},
		{"LISTENER_CLEANUP_INTERVAL", 15 * time.Minute, &cfg.Listener.CleanupInterval},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultValue)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	maxBalance, err := getEnvDecimal("WALLET_MAX_BALANCE", decimal.NewFromInt(1_000_000_000))
	if err != nil {
		return nil, err
	}
	welcomeBonus, err := getEnvDecimal("WALLET_WELCOME_BONUS", decimal.NewFromInt(100))
	if err != nil {
		return nil, err
	}
	exchangeRate, err := getEnvDecimal("WALLET_DGT_EXCHANGE_RATE", decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvFloat("CCPAYMENT_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	cfg.Database.Driver = getEnvString("DATABASE_DRIVER", "sqlite3")
	cfg.Database.Path = getEnvString("DATABASE_PATH", "wallet.db")
	cfg.Database.DSN = getEnvString("DATABASE_URL", "")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)

	cfg.CCPayment.BaseURL = getEnvString("CCPAYMENT_BASE_URL", "https://ccpayment.com")
	cfg.CCPayment.AppId = getEnvString("CCPAYMENT_APP_ID", "")
	cfg.CCPayment.AppSecret = getEnvString("CCPAYMENT_APP_SECRET", "")
	cfg.CCPayment.RateLimit = rateLimit
	cfg.CCPayment.RateBurst = getEnvInt("CCPAYMENT_RATE_BURST", 5)
	cfg.CCPayment.BreakerMaxRequests = uint32(getEnvInt("CCPAYMENT_BREAKER_MAX_REQUESTS", 3))
	cfg.CCPayment.BreakerConsecutiveFailures = uint32(getEnvInt("CCPAYMENT_BREAKER_FAILURES", 5))

	cfg.Cache.Backend = getEnvString("CACHE_BACKEND", "memory")
	cfg.Cache.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.Cache.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.Cache.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.Cache.RedisPrefix = getEnvString("REDIS_PREFIX", "dgt:")

	cfg.Wallet.MaxBalance = maxBalance
	cfg.Wallet.WelcomeBonus = welcomeBonus
	cfg.Wallet.DgtExchangeRate = exchangeRate
	cfg.Wallet.MaintenanceMode = getEnvBool("WALLET_MAINTENANCE_MODE", false)
	cfg.Wallet.CurrenciesFile = getEnvString("CURRENCIES_FILE", "currencies.yaml")

	cfg.Server.ListenAddr = getEnvString("LISTEN_ADDR", ":8080")

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
