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
	"os"
	"os/user"

	"dgt-wallet-go/internal/common"
	"dgt-wallet-go/internal/config"
	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const usage = `usage: dgt <command> [flags]

commands:
  credit    --user ID --amount N [--reason TEXT]
  debit     --user ID --amount N [--reason TEXT]
  transfer  --from ID --to ID --amount N [--reason TEXT]
  status    --user ID --status active|frozen|suspended
  history   --user ID [--page N] [--limit N]
`

type command struct {
	flags  *flag.FlagSet
	user   *string
	from   *string
	to     *string
	amount *string
	reason *string
	status *string
	page   *int
	limit  *int
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &command{
		flags:  fs,
		user:   fs.String("user", "", "User id"),
		from:   fs.String("from", "", "Sending user id"),
		to:     fs.String("to", "", "Receiving user id"),
		amount: fs.String("amount", "", "DGT amount"),
		reason: fs.String("reason", "", "Reason recorded with the entry"),
		status: fs.String("status", "", "Wallet status"),
		page:   fs.Int("page", 1, "History page"),
		limit:  fs.Int("limit", models.DefaultHistoryLimit, "History page size"),
	}
}

func (c *command) parseAmount() (decimal.Decimal, error) {
	if *c.amount == "" {
		return decimal.Zero, fmt.Errorf("--amount is required")
	}
	amount, err := decimal.NewFromString(*c.amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}
	return amount, nil
}

func actor() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "cli"
}

func printTransaction(tx *models.Transaction) {
	fmt.Printf("✓ %s %s\n", tx.Type, common.FormatDgt(tx.Amount))
	fmt.Printf("  Transaction: %s\n", tx.Id)
	fmt.Printf("  Description: %s\n", tx.Description)
}

func run(ctx context.Context, services *common.Services, name string, c *command) error {
	admin := actor()
	ctx = models.WithOrigin(ctx, &models.Origin{ActorId: admin, Channel: "cli"})

	switch name {
	case "credit":
		amount, err := c.parseAmount()
		if err != nil {
			return err
		}
		tx, err := services.Wallet.CreditDgt(ctx, *c.user, amount, models.AdminCredit{AdminId: admin, Reason: *c.reason})
		if err != nil {
			return err
		}
		printTransaction(tx)

	case "debit":
		amount, err := c.parseAmount()
		if err != nil {
			return err
		}
		tx, err := services.Wallet.DebitDgt(ctx, *c.user, amount, models.AdminDebit{AdminId: admin, Reason: *c.reason})
		if err != nil {
			return err
		}
		printTransaction(tx)

	case "transfer":
		amount, err := c.parseAmount()
		if err != nil {
			return err
		}
		tx, err := services.Wallet.TransferDgt(ctx, models.TransferRequest{
			FromUserId: *c.from,
			ToUserId:   *c.to,
			Amount:     amount,
			Reason:     *c.reason,
			Metadata:   map[string]string{"admin_id": admin},
		})
		if err != nil {
			return err
		}
		printTransaction(tx)
		fmt.Printf("  Reference: %s\n", tx.Reference)

	case "status":
		if err := services.Wallet.SetWalletStatus(ctx, *c.user, models.WalletStatus(*c.status)); err != nil {
			return err
		}
		fmt.Printf("✓ Wallet of %s is now %s\n", *c.user, *c.status)

	case "history":
		txs, err := services.Wallet.GetTransactionHistory(ctx, *c.user, models.HistoryOptions{Page: *c.page, Limit: *c.limit})
		if err != nil {
			return err
		}
		common.PrintHeader(fmt.Sprintf("HISTORY %s (page %d)", *c.user, *c.page))
		for i, tx := range txs {
			fmt.Printf("%s %s  %-14s %20s  %s  %s\n",
				common.BoxPrefix(i == len(txs)-1),
				tx.CreatedAt.Format("2006-01-02 15:04:05"),
				tx.Type,
				tx.Amount.String(),
				common.ShortId(tx.Id),
				common.DescribeTransaction(tx))
		}

	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name := os.Args[1]
	c := newCommand(name)
	if err := c.flags.Parse(os.Args[2:]); err != nil {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeLedgerOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := run(ctx, services, name, c); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s failed: %v\n", name, err)
		loggerCleanup()
		services.Close()
		os.Exit(1)
	}
}
