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
	"flag"
	"fmt"

	"dgt-wallet-go/internal/common"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/models"

	"go.uber.org/zap"
)

type reportStats struct {
	totalUsers       int
	initialized      int
	failed           int
	addressesCreated int
}

func printUserHeader(userId string, addresses []models.DepositAddress) {
	fmt.Printf("\n┌─ User: %s\n", userId)
	fmt.Printf("│  Addresses: %d\n", len(addresses))
	for i, addr := range addresses {
		chain := fmt.Sprintf("%s-%s", addr.CoinSymbol, addr.Chain)
		fmt.Printf("%s %-16s → %s\n", common.BoxPrefix(i == len(addresses)-1), chain, addr.Address)
		if addr.Memo != "" {
			fmt.Printf("      memo: %s\n", addr.Memo)
		}
	}
}

func printSteps(result models.InitializationResult) {
	for i, step := range result.Steps {
		mark := "✓"
		if !step.Success {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s %s", common.BoxPrefix(i == len(result.Steps)-1), mark, step.Name)
		if step.Error != "" {
			line += ": " + step.Error
		}
		fmt.Println(line)
	}
}

// initializeUser runs the full bootstrap, which is safe to repeat
func initializeUser(ctx context.Context, services *common.Services, userId string, stats *reportStats) {
	result := services.Wallet.InitializeWallet(ctx, userId)
	fmt.Printf("\n┌─ Initialize %s (bonus: %t, provider account: %t)\n",
		userId, result.WelcomeBonusAdded, result.ProviderAccountCreated)
	printSteps(result)

	stats.addressesCreated += result.WalletsCreated
	if result.DgtWalletCreated {
		stats.addressesCreated--
	}
	if result.Success {
		stats.initialized++
	} else {
		stats.failed++
	}
}

func ensureAddresses(ctx context.Context, services *common.Services, userId string, stats *reportStats) {
	if services.Wallet.EnsureProviderWallet(ctx, userId) == nil {
		stats.failed++
		return
	}
	created, err := services.Wallet.EnsureDepositAddresses(ctx, userId)
	stats.addressesCreated += created
	if err != nil {
		zap.L().Error("Some deposit addresses failed", zap.String("user_id", userId), zap.Error(err))
		stats.failed++
		return
	}
	stats.initialized++
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usersFlag := flag.String("users", "", "Comma-separated user ids (default: all known users)")
	initFlag := flag.Bool("init", false, "Run the full wallet bootstrap including the welcome bonus")
	listFlag := flag.Bool("list", false, "Only list stored addresses")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var services *common.Services
	if *listFlag {
		services, err = common.InitializeLedgerOnly(ctx, cfg)
	} else {
		services, err = common.InitializeServices(ctx, cfg)
	}
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.ResolveUsers(ctx, services.DbService, *usersFlag)
	if err != nil {
		logger.Fatal("Failed to resolve users", zap.Error(err))
	}

	ctx = models.WithOrigin(ctx, &models.Origin{Channel: "cli"})
	common.PrintHeader("DEPOSIT ADDRESSES")

	stats := reportStats{}
	for _, userId := range users {
		stats.totalUsers++
		switch {
		case *listFlag:
		case *initFlag:
			initializeUser(ctx, services, userId, &stats)
		default:
			ensureAddresses(ctx, services, userId, &stats)
		}

		addresses, err := services.Wallet.GetDepositAddresses(ctx, userId)
		if err != nil {
			logger.Error("Failed to list addresses", zap.String("user_id", userId), zap.Error(err))
			continue
		}
		printUserHeader(userId, addresses)
	}

	common.PrintFooter(fmt.Sprintf("Users: %d | Completed: %d | Failed: %d | New addresses: %d",
		stats.totalUsers, stats.initialized, stats.failed, stats.addressesCreated))
}
