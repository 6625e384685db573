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

package wallet

import (
	"context"
	"errors"
	"fmt"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/provider"
	"dgt-wallet-go/internal/store"

	"go.uber.org/zap"
)

const (
	stepDgtWallet       = "dgt_wallet"
	stepProviderAccount = "provider_account"
	stepDepositAddress  = "deposit_addresses"
)

// InitializeWallet bootstraps a new user in three independent steps: the DGT
// wallet with its welcome bonus, the provider account, and deposit
// addresses. It never returns an error; failures are reported per step and
// can be retried with EnsureProviderWallet and EnsureDepositAddresses.
func (s *Service) InitializeWallet(ctx context.Context, userId string) (result models.InitializationResult) {
	const op = "initializeWallet"
	fields := []zap.Field{zap.String("user_id", userId)}

	defer func() {
		if r := recover(); r != nil {
			_ = fail(op, fmt.Errorf("panic: %v", r), fields...)
			result = models.InitializationResult{Success: false}
		}
	}()

	if err := validateUser(op, userId); err != nil {
		_ = fail(op, err, fields...)
		return models.InitializationResult{Success: false}
	}

	// Step a
	bonus, err := s.initializeDgtWallet(ctx, userId)
	if err != nil {
		result.Steps = append(result.Steps, failedStep(stepDgtWallet, fail(op, err, fields...)))
	} else {
		result.Steps = append(result.Steps, models.StepOutcome{Name: stepDgtWallet, Success: true})
		result.DgtWalletCreated = bonus.Created
		result.WelcomeBonusAdded = bonus.Bonus != nil
		if bonus.Created {
			result.WalletsCreated++
		}
	}

	// Step b
	account, created, err := s.ensureProviderAccount(ctx, userId)
	if err != nil {
		result.Steps = append(result.Steps, failedStep(stepProviderAccount, fail(op, err, fields...)))
	} else {
		result.Steps = append(result.Steps, models.StepOutcome{Name: stepProviderAccount, Success: true})
		result.ProviderAccountCreated = created
	}

	// Step c needs the provider account
	if account == nil {
		result.Steps = append(result.Steps, models.StepOutcome{
			Name:  stepDepositAddress,
			Error: "skipped: provider account unavailable",
		})
	} else {
		n, err := s.EnsureDepositAddresses(ctx, userId)
		result.WalletsCreated += n
		if err != nil {
			result.Steps = append(result.Steps, failedStep(stepDepositAddress, err))
		} else {
			result.Steps = append(result.Steps, models.StepOutcome{Name: stepDepositAddress, Success: true})
		}
	}

	result.Success = true
	for _, step := range result.Steps {
		if !step.Success {
			result.Success = false
		}
	}

	zap.L().Info("Wallet initialization finished", append(fields,
		zap.Bool("success", result.Success),
		zap.Int("wallets_created", result.WalletsCreated),
		zap.Bool("welcome_bonus_added", result.WelcomeBonusAdded))...)
	return result
}

func failedStep(name string, err error) models.StepOutcome {
	return models.StepOutcome{Name: name, Error: err.Error()}
}

func (s *Service) initializeDgtWallet(ctx context.Context, userId string) (*store.InitializeWalletResult, error) {
	bonus := models.WelcomeBonus{}
	raw, err := models.EncodeMetadata(bonus)
	if err != nil {
		return nil, err
	}
	return s.store.InitializeWallet(ctx, store.InitializeWalletParams{
		UserId:       userId,
		WelcomeBonus: s.settings.WelcomeBonus,
		Description:  bonus.Description(),
		Metadata:     raw,
	})
}

func (s *Service) ensureProviderAccount(ctx context.Context, userId string) (*models.ProviderAccount, bool, error) {
	manager, ok := s.adapter.(provider.AccountManager)
	if !ok {
		return nil, false, apperr.PaymentProvider("ensureProviderAccount", provider.ErrNotSupported)
	}
	return manager.EnsureAccount(ctx, userId)
}

// EnsureProviderWallet creates the provider account mapping if missing. It
// returns nil when the provider cannot be reached; callers retry later.
func (s *Service) EnsureProviderWallet(ctx context.Context, userId string) *models.ProviderAccount {
	const op = "ensureProviderWallet"
	account, _, err := s.ensureProviderAccount(ctx, userId)
	if err != nil {
		_ = fail(op, err, zap.String("user_id", userId))
		return nil
	}
	return account
}

// EnsureDepositAddresses issues an address for every configured coin and
// chain the user does not have yet. It returns how many were created.
func (s *Service) EnsureDepositAddresses(ctx context.Context, userId string) (int, error) {
	const op = "ensureDepositAddresses"
	fields := []zap.Field{zap.String("user_id", userId)}

	existing, err := s.store.GetDepositAddresses(ctx, userId)
	if err != nil {
		return 0, fail(op, err, fields...)
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.CoinSymbol+"/"+a.Chain] = true
	}

	// One address per chain; coins on the same chain share it at the provider
	created := 0
	var errs []error
	for _, cur := range s.catalog.Currencies() {
		for _, chain := range cur.Chains {
			if have[cur.Symbol+"/"+chain] {
				continue
			}
			if _, err := s.CreateDepositAddress(ctx, userId, cur.Symbol, chain); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", cur.Symbol, chain, err))
				continue
			}
			created++
		}
	}

	if len(errs) > 0 {
		return created, apperr.PaymentProvider(op, errors.Join(errs...)).
			WithData("created", created).
			WithData("failed", len(errs))
	}
	return created, nil
}
