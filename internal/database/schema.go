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

package database

// Amounts are TEXT in SQLite so that decimals round-trip exactly; all
// arithmetic happens in Go.
var sqliteSchema = []string{
	// Wallets (current state - hot data)
	`CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		balance TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		last_transaction TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	// Transactions (audit trail - cold data)
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		wallet_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'DGT',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		from_user_id TEXT NOT NULL DEFAULT '',
		to_user_id TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_reference ON transactions(reference)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_external_id ON transactions(external_id)`,

	`CREATE TABLE IF NOT EXISTS provider_accounts (
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, provider),
		UNIQUE (provider, provider_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS crypto_wallets (
		user_id TEXT NOT NULL,
		coin_symbol TEXT NOT NULL,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		qr_code_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, coin_symbol, chain)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crypto_wallets_address ON crypto_wallets(address)`,

	`CREATE TABLE IF NOT EXISTS supported_tokens (
		coin_symbol TEXT PRIMARY KEY,
		coin_id INTEGER NOT NULL DEFAULT 0,
		chains TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS withdrawal_records (
		order_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		coin_symbol TEXT NOT NULL,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		fee TEXT NOT NULL DEFAULT '0',
		record_id TEXT NOT NULL DEFAULT '',
		tx_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawal_records_user ON withdrawal_records(user_id)`,

	`CREATE TABLE IF NOT EXISTS swap_records (
		record_id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		from_coin_id INTEGER NOT NULL,
		to_coin_id INTEGER NOT NULL,
		from_amount TEXT NOT NULL,
		to_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swap_records_user ON swap_records(user_id)`,

	`CREATE TABLE IF NOT EXISTS webhook_events (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		event_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		payload TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (provider, event_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		balance NUMERIC(38, 8) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		status TEXT NOT NULL DEFAULT 'active',
		last_transaction TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		wallet_id TEXT NOT NULL REFERENCES wallets(id),
		amount NUMERIC(38, 8) NOT NULL,
		currency TEXT NOT NULL DEFAULT 'DGT',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		metadata JSONB,
		from_user_id TEXT NOT NULL DEFAULT '',
		to_user_id TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions(wallet_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_reference ON transactions(reference)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_external_id ON transactions(external_id)`,

	`CREATE TABLE IF NOT EXISTS provider_accounts (
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, provider),
		UNIQUE (provider, provider_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS crypto_wallets (
		user_id TEXT NOT NULL,
		coin_symbol TEXT NOT NULL,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		qr_code_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, coin_symbol, chain)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crypto_wallets_address ON crypto_wallets(address)`,

	`CREATE TABLE IF NOT EXISTS supported_tokens (
		coin_symbol TEXT PRIMARY KEY,
		coin_id BIGINT NOT NULL DEFAULT 0,
		chains TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS withdrawal_records (
		order_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		coin_symbol TEXT NOT NULL,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		amount NUMERIC(38, 18) NOT NULL,
		fee NUMERIC(38, 18) NOT NULL DEFAULT 0,
		record_id TEXT NOT NULL DEFAULT '',
		tx_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawal_records_user ON withdrawal_records(user_id)`,

	`CREATE TABLE IF NOT EXISTS swap_records (
		record_id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		from_coin_id BIGINT NOT NULL,
		to_coin_id BIGINT NOT NULL,
		from_amount NUMERIC(38, 18) NOT NULL,
		to_amount NUMERIC(38, 18) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swap_records_user ON swap_records(user_id)`,

	`CREATE TABLE IF NOT EXISTS webhook_events (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		event_id TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		payload TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (provider, event_id)
	)`,
}
