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
	"sort"
	"strings"

	"dgt-wallet-go/internal/provider"
	"dgt-wallet-go/internal/store"

	"go.uber.org/zap"
)

// ResolveUsers turns an optional comma-separated filter into user ids. An
// empty filter selects every user known to the ledger or the provider.
func ResolveUsers(ctx context.Context, dbService store.LedgerStore, userFilter string) ([]string, error) {
	if userFilter != "" {
		var users []string
		for _, id := range strings.Split(userFilter, ",") {
			if id = strings.TrimSpace(id); id != "" {
				users = append(users, id)
			}
		}
		if len(users) == 0 {
			return nil, fmt.Errorf("no user ids in filter %q", userFilter)
		}
		return users, nil
	}

	seen := map[string]bool{}
	wallets, err := dbService.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	for _, w := range wallets {
		seen[w.UserId] = true
	}

	accounts, err := dbService.ListProviderAccounts(ctx, provider.CCPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider accounts: %w", err)
	}
	for _, a := range accounts {
		seen[a.UserId] = true
	}

	users := make([]string, 0, len(seen))
	for id := range seen {
		users = append(users, id)
	}
	sort.Strings(users)

	zap.L().Info("Resolved users", zap.Int("count", len(users)))
	return users, nil
}
