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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	CCPayment CCPaymentConfig
	Cache     CacheConfig
	Wallet    WalletSettings
	Listener  ListenerConfig
	Server    ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Driver is either "sqlite3" or "pgx"
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// CCPaymentConfig holds payment provider credentials and client limits
type CCPaymentConfig struct {
	BaseURL        string
	AppId          string
	AppSecret      string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	// WebhookMaxSkew bounds the age of a webhook timestamp; zero disables the check
	WebhookMaxSkew time.Duration

	BreakerMaxRequests         uint32
	BreakerInterval            time.Duration
	BreakerTimeout             time.Duration
	BreakerConsecutiveFailures uint32
}

// CacheConfig holds provider cache settings
type CacheConfig struct {
	// Backend is either "memory" or "redis"
	Backend       string
	BalanceTTL    time.Duration
	HistoryTTL    time.Duration
	SweepInterval time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// WalletSettings holds ledger policy
type WalletSettings struct {
	MaxBalance      decimal.Decimal
	WelcomeBonus    decimal.Decimal
	DgtExchangeRate decimal.Decimal
	MaintenanceMode bool
	CurrenciesFile  string
}

// ListenerConfig holds reconciliation poller settings
type ListenerConfig struct {
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// ServerConfig holds webhook server settings
type ServerConfig struct {
	ListenAddr string
}
