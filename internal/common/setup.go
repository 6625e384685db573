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


package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"dgt-wallet-go/internal/cache"
	"dgt-wallet-go/internal/ccpayment"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/database"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"
	"dgt-wallet-go/internal/wallet"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is everything a command needs to drive the wallet
type Services struct {
	DbService *database.Service
	Client    *ccpayment.Client
	Adapter   provider.Adapter
	Cached    *provider.CachedAdapter
	Catalog   *config.Catalog
	Wallet    *wallet.Service

	redis *cache.Redis
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, the CCPayment client behind the cache
// decorator, and the wallet service.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	catalog, err := config.LoadCatalog(cfg.Wallet.CurrenciesFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Creating CCPayment client", zap.String("base_url", cfg.CCPayment.BaseURL))
	client, err := ccpayment.NewClient(cfg.CCPayment)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	services := &Services{DbService: dbService, Client: client, Catalog: catalog}

	backend, err := services.newCache(ctx, cfg.Cache)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	services.Adapter = provider.NewCCPaymentAdapter(client, dbService)
	services.Cached = provider.NewCachedAdapter(services.Adapter, backend, cfg.Cache.BalanceTTL, cfg.Cache.HistoryTTL)
	services.Wallet = wallet.NewService(dbService, services.Cached, catalog, cfg.Wallet)

	zap.L().Info("Services initialized",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Strings("currencies", catalog.Symbols()),
		zap.Bool("maintenance_mode", cfg.Wallet.MaintenanceMode))
	return services, nil
}

// InitializeLedgerOnly wires the wallet service without provider
// credentials. Useful for DGT-only operations like admin credits and reports.
func InitializeLedgerOnly(ctx context.Context, cfg *models.Config) (*Services, error) {
	catalog, err := config.LoadCatalog(cfg.Wallet.CurrenciesFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &Services{
		DbService: dbService,
		Adapter:   provider.Offline{},
		Catalog:   catalog,
		Wallet:    wallet.NewService(dbService, provider.Offline{}, catalog, cfg.Wallet),
	}, nil
}

func (cs *Services) newCache(ctx context.Context, cfg models.CacheConfig) (cache.Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return cache.NewMemory(cfg.BalanceTTL, cfg.SweepInterval), nil
	case "redis":
		r, err := cache.NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		cs.redis = r
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

func (cs *Services) Close() {
	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis cache", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
