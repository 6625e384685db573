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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dgt-wallet-go/internal/api"
	"dgt-wallet-go/internal/common"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/listener"
	"dgt-wallet-go/internal/provider"

	"go.uber.org/zap"
)

func main() {
	noPoll := flag.Bool("no-poll", false, "Serve webhooks only; do not run the reconciliation poller")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting DGT wallet daemon")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	server := api.NewServer(services.Wallet, services.DbService.Ping).HTTPServer(cfg.Server.ListenAddr)
	go func() {
		zap.L().Info("Webhook server listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Webhook server failed", zap.Error(err))
		}
	}()

	var poller *listener.ReconcileListener
	if !*noPoll {
		poller, err = listener.NewReconcileListener(listener.ReconcileListenerConfig{
			Provider:        provider.CCPayment,
			Accounts:        services.DbService,
			Records:         services.Cached,
			Ingester:        services.Wallet,
			Invalidator:     services.Cached,
			LookbackWindow:  cfg.Listener.LookbackWindow,
			PollingInterval: cfg.Listener.PollingInterval,
			CleanupInterval: cfg.Listener.CleanupInterval,
		})
		if err != nil {
			zap.L().Fatal("Failed to create reconciliation listener", zap.Error(err))
		}
		poller.Start(ctx)
	}

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Webhook server did not shut down cleanly", zap.Error(err))
	}

	if poller != nil {
		done := make(chan struct{})
		go func() {
			poller.Stop()
			close(done)
		}()

		select {
		case <-done:
			zap.L().Info("Reconciliation listener stopped gracefully")
		case <-shutdownCtx.Done():
			zap.L().Warn("Forced shutdown after timeout")
		}
	}
}
