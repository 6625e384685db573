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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	userId  string
	request models.WithdrawalRequest
	dryRun  bool
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	userFlag := flag.String("user", "", "User id (required)")
	coinFlag := flag.String("coin", "", "Coin symbol, e.g. USDT (required)")
	chainFlag := flag.String("chain", "", "Chain, e.g. TRX (default: the coin's default chain)")
	amountFlag := flag.String("amount", "", "Amount to withdraw (required)")
	addressFlag := flag.String("address", "", "Destination address (required)")
	memoFlag := flag.String("memo", "", "Destination memo or tag")
	orderFlag := flag.String("order-id", "", "Idempotent order id (default: generated)")
	dryRunFlag := flag.Bool("dry-run", false, "Only show the fee and limits")
	flag.Parse()

	if *userFlag == "" || *coinFlag == "" || *amountFlag == "" || *addressFlag == "" {
		return nil, fmt.Errorf("required flags: --user, --coin, --amount, --address")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	return &withdrawalRequest{
		userId: *userFlag,
		request: models.WithdrawalRequest{
			OrderId:    *orderFlag,
			CoinSymbol: *coinFlag,
			Chain:      *chainFlag,
			Address:    *addressFlag,
			Memo:       *memoFlag,
			Amount:     amount,
		},
		dryRun: *dryRunFlag,
	}, nil
}

func printLimits(cfg models.WalletConfig, symbol string) {
	fmt.Printf("  Minimum: %s\n", cfg.MinimumWithdrawal[symbol])
	fmt.Printf("  Maximum: %s\n", cfg.MaximumWithdrawal[symbol])
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		logger.Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	ctx = models.WithOrigin(ctx, &models.Origin{Channel: "cli"})

	fee, err := services.Wallet.GetWithdrawFee(ctx, req.request.CoinSymbol, req.request.Chain)
	if err != nil {
		logger.Fatal("Failed to get withdrawal fee", zap.Error(err))
	}

	common.PrintHeader("WITHDRAWAL")
	fmt.Printf("  User:    %s\n", req.userId)
	fmt.Printf("  Amount:  %s %s on %s\n", req.request.Amount, fee.CoinSymbol, fee.Chain)
	fmt.Printf("  To:      %s\n", req.request.Address)
	fmt.Printf("  Fee:     %s %s\n", fee.Amount, fee.CoinSymbol)
	printLimits(services.Wallet.GetWalletConfig(), fee.CoinSymbol)

	if req.dryRun {
		common.PrintFooter("Dry run, nothing submitted")
		return
	}

	response, err := services.Wallet.RequestWithdrawal(ctx, req.userId, req.request)
	if err != nil {
		logger.Fatal("Withdrawal failed", zap.Error(err))
	}

	common.PrintFooter(fmt.Sprintf("✓ Withdrawal submitted | order %s | record %s | %s",
		response.OrderId, response.RecordId, response.Status))
}
