package provider

import (
	"context"
	"errors"

	"dgt-wallet-go/internal/apperr"
	"dgt-wallet-go/internal/models"
)

// ErrNotConfigured is returned by Offline for every provider call
var ErrNotConfigured = errors.New("payment provider not configured")

// Offline stands in for the provider in ledger-only tools. Balances and
// history degrade to ledger data; every other call fails.
type Offline struct{}

var _ Adapter = Offline{}

func offline(op string) error {
	return apperr.PaymentProvider(op, ErrNotConfigured)
}

func (Offline) GetUserBalance(ctx context.Context, userId string) ([]models.CryptoBalance, error) {
	return nil, apperr.NotFound("getUserBalance", "no provider configured")
}

func (Offline) CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error) {
	return nil, offline("createDepositAddress")
}

func (Offline) RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error) {
	return nil, offline("requestWithdrawal")
}

func (Offline) GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error) {
	return nil, apperr.NotFound("getTransactionHistory", "no provider configured")
}

func (Offline) ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (*models.WebhookEvent, error) {
	return nil, offline("processWebhook")
}

func (Offline) GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error) {
	return nil, offline("getSupportedCoins")
}

func (Offline) GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error) {
	return nil, offline("getTokenInfo")
}

func (Offline) ValidateAddress(ctx context.Context, chain, address string) (bool, error) {
	return false, offline("validateAddress")
}

func (Offline) GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error) {
	return nil, offline("getWithdrawFee")
}
