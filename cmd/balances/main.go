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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"dgt-wallet-go/internal/common"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers  int
	withWallet  int
	mismatched  int
	totalDgt    decimal.Decimal
	cryptoTotal map[string]decimal.Decimal
}

func printUser(balance *models.WalletBalance, reconciled error) {
	status := "ok"
	if reconciled != nil {
		status = "MISMATCH"
	}
	fmt.Printf("\n┌─ User: %s\n", balance.UserId)
	fmt.Printf("│  DGT: %s (%s, ledger %s)\n", common.FormatDgt(balance.Dgt), balance.DgtStatus, status)
	for i, c := range balance.Crypto {
		fmt.Printf("%s %-8s: %s\n", common.BoxPrefix(i == len(balance.Crypto)-1), c.CoinSymbol, c.Available.String())
	}
}

func processUser(ctx context.Context, services *common.Services, userId string, stats *balanceStats) error {
	balance, err := services.Wallet.GetUserBalance(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	reconciled := services.Wallet.ReconcileWallet(ctx, userId)
	if errors.Is(reconciled, store.ErrWalletNotFound) {
		reconciled = nil
	} else {
		stats.withWallet++
	}
	if reconciled != nil {
		stats.mismatched++
		zap.L().Error("Wallet does not reconcile", zap.String("user_id", userId), zap.Error(reconciled))
	}

	stats.totalDgt = stats.totalDgt.Add(balance.Dgt)
	for _, c := range balance.Crypto {
		stats.cryptoTotal[c.CoinSymbol] = stats.cryptoTotal[c.CoinSymbol].Add(c.Available)
	}

	printUser(balance, reconciled)
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usersFlag := flag.String("users", "", "Comma-separated user ids (default: all users)")
	withProvider := flag.Bool("provider", false, "Include provider-held crypto balances (needs CCPayment credentials)")
	flag.Parse()

	logger.Info("Starting balance report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var services *common.Services
	if *withProvider {
		services, err = common.InitializeServices(ctx, cfg)
	} else {
		services, err = common.InitializeLedgerOnly(ctx, cfg)
	}
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.ResolveUsers(ctx, services.DbService, *usersFlag)
	if err != nil {
		logger.Fatal("Failed to resolve users", zap.Error(err))
	}

	common.PrintHeader("DGT BALANCE REPORT")

	stats := balanceStats{totalDgt: decimal.Zero, cryptoTotal: map[string]decimal.Decimal{}}
	for _, userId := range users {
		stats.totalUsers++
		if err := processUser(ctx, services, userId, &stats); err != nil {
			logger.Error("Failed to process user", zap.String("user_id", userId), zap.Error(err))
		}
	}

	summary := fmt.Sprintf("Users: %d | Wallets: %d | Total: %s | Mismatched: %d",
		stats.totalUsers, stats.withWallet, common.FormatDgt(stats.totalDgt), stats.mismatched)
	for symbol, total := range stats.cryptoTotal {
		summary += fmt.Sprintf(" | %s %s", symbol, total)
	}
	common.PrintFooter(summary)

	if stats.mismatched > 0 {
		logger.Fatal("Ledger reconciliation failed", zap.Int("wallets", stats.mismatched))
	}
}
