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

// Queries use ? placeholders; dialect.q rebinds them for PostgreSQL.
const (
	// Wallet queries
	walletColumns = `id, user_id, balance, status, last_transaction, created_at, updated_at`

	queryInsertWalletIfAbsent = `
		INSERT INTO wallets (id, user_id, balance, status, created_at, updated_at)
		VALUES (?, ?, '0', 'active', ?, ?)
		ON CONFLICT (user_id) DO NOTHING`

	queryGetWallet = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = ?`

	queryListWallets = `
		SELECT ` + walletColumns + `
		FROM wallets
		ORDER BY user_id`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = ?, last_transaction = ?, updated_at = ?
		WHERE id = ?`

	queryUpdateWalletStatus = `
		UPDATE wallets
		SET status = ?, updated_at = ?
		WHERE user_id = ?`

	// Transaction queries
	transactionColumns = `id, user_id, wallet_id, amount, currency, type, status, description, metadata,
		from_user_id, to_user_id, reference, external_id, created_at, updated_at`

	queryInsertTransaction = `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryGetCompletedAmounts = `
		SELECT amount
		FROM transactions
		WHERE wallet_id = ? AND status = 'completed'`

	// Provider account queries
	queryInsertProviderAccount = `
		INSERT INTO provider_accounts (user_id, provider, provider_user_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO NOTHING`

	queryGetProviderAccount = `
		SELECT user_id, provider, provider_user_id, created_at
		FROM provider_accounts
		WHERE user_id = ? AND provider = ?`

	queryFindProviderAccount = `
		SELECT user_id, provider, provider_user_id, created_at
		FROM provider_accounts
		WHERE provider = ? AND provider_user_id = ?`

	queryListProviderAccounts = `
		SELECT user_id, provider, provider_user_id, created_at
		FROM provider_accounts
		WHERE provider = ?
		ORDER BY created_at, user_id`

	// Deposit address queries
	queryUpsertDepositAddress = `
		INSERT INTO crypto_wallets (user_id, coin_symbol, chain, address, memo, qr_code_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, coin_symbol, chain) DO UPDATE
		SET address = excluded.address, memo = excluded.memo, qr_code_url = excluded.qr_code_url`

	queryGetDepositAddress = `
		SELECT user_id, coin_symbol, chain, address, memo, qr_code_url, created_at
		FROM crypto_wallets
		WHERE user_id = ? AND coin_symbol = ? AND chain = ?`

	queryGetDepositAddresses = `
		SELECT user_id, coin_symbol, chain, address, memo, qr_code_url, created_at
		FROM crypto_wallets
		WHERE user_id = ?
		ORDER BY coin_symbol, chain`

	// Supported token queries
	queryUpsertSupportedToken = `
		INSERT INTO supported_tokens (coin_symbol, coin_id, chains, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (coin_symbol) DO UPDATE
		SET coin_id = excluded.coin_id, chains = excluded.chains,
		    is_active = excluded.is_active, updated_at = excluded.updated_at`

	queryListSupportedTokens = `
		SELECT coin_symbol, coin_id, chains, is_active, updated_at
		FROM supported_tokens
		ORDER BY coin_symbol`

	queryListActiveSupportedTokens = `
		SELECT coin_symbol, coin_id, chains, is_active, updated_at
		FROM supported_tokens
		WHERE is_active = ?
		ORDER BY coin_symbol`

	// Withdrawal record queries
	withdrawalColumns = `order_id, user_id, coin_symbol, chain, address, memo, amount, fee,
		record_id, tx_hash, status, created_at, updated_at`

	queryInsertWithdrawalRecord = `
		INSERT INTO withdrawal_records (` + withdrawalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetWithdrawalRecord = `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_records
		WHERE order_id = ?`

	queryUpdateWithdrawalStatus = `
		UPDATE withdrawal_records
		SET status = ?, record_id = CASE WHEN ? = '' THEN record_id ELSE ? END,
		    tx_hash = CASE WHEN ? = '' THEN tx_hash ELSE ? END, updated_at = ?
		WHERE order_id = ?`

	// Swap record queries
	swapColumns = `record_id, order_id, user_id, from_coin_id, to_coin_id, from_amount, to_amount,
		status, created_at, updated_at`

	queryInsertSwapRecord = `
		INSERT INTO swap_records (` + swapColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetSwapRecord = `
		SELECT ` + swapColumns + `
		FROM swap_records
		WHERE record_id = ?`

	queryUpdateSwapStatus = `
		UPDATE swap_records
		SET status = ?, updated_at = ?
		WHERE record_id = ?`

	// Webhook event queries
	queryInsertWebhookEvent = `
		INSERT INTO webhook_events (id, provider, event_id, type, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, event_id) DO NOTHING`
)
