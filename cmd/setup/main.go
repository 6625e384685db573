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
	"strings"

	"dgt-wallet-go/internal/common"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/models"

	"go.uber.org/zap"
)

// resolveCoinIds maps symbols to provider coin ids using the live catalog
func resolveCoinIds(ctx context.Context, services *common.Services) map[string]int64 {
	ids := map[string]int64{}
	coins, err := services.Adapter.GetSupportedCoins(ctx)
	if err != nil {
		zap.L().Warn("Could not load provider catalog, coin ids left unset", zap.Error(err))
		return ids
	}
	for _, coin := range coins {
		ids[strings.ToUpper(coin.Symbol)] = coin.CoinId
	}
	return ids
}

func importCurrencies(ctx context.Context, services *common.Services, coinIds map[string]int64) (int, error) {
	imported := 0
	for _, cur := range services.Catalog.Currencies() {
		token := models.SupportedToken{
			CoinSymbol: cur.Symbol,
			CoinId:     coinIds[cur.Symbol],
			Chains:     cur.Chains,
			IsActive:   true,
		}
		if err := services.DbService.UpsertSupportedToken(ctx, token); err != nil {
			return imported, fmt.Errorf("failed to store %s: %w", cur.Symbol, err)
		}
		zap.L().Info("Supported token stored",
			zap.String("symbol", cur.Symbol),
			zap.Int64("coin_id", token.CoinId),
			zap.Strings("chains", cur.Chains))
		imported++
	}
	return imported, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	resolveFlag := flag.Bool("resolve", false, "Look up coin ids from the provider catalog (needs CCPayment credentials)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the store creates the schema
	var services *common.Services
	if *resolveFlag {
		services, err = common.InitializeServices(ctx, cfg)
	} else {
		services, err = common.InitializeLedgerOnly(ctx, cfg)
	}
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	coinIds := map[string]int64{}
	if *resolveFlag {
		coinIds = resolveCoinIds(ctx, services)
	}

	imported, err := importCurrencies(ctx, services, coinIds)
	if err != nil {
		zap.L().Fatal("Failed to import currencies", zap.Error(err))
	}

	zap.L().Info("Setup complete",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("currencies", imported))
}
