package provider

import (
	"context"
	"time"

	"dgt-wallet-go/internal/models"
)

// Provider names accepted by the webhook endpoint
const (
	CCPayment = "ccpayment"
)

// Adapter is the capability contract every payment provider implements
type Adapter interface {
	GetUserBalance(ctx context.Context, userId string) ([]models.CryptoBalance, error)
	CreateDepositAddress(ctx context.Context, userId, coinSymbol, chain string) (*models.DepositAddress, error)
	// RequestWithdrawal validates the destination address before submitting
	RequestWithdrawal(ctx context.Context, userId string, request models.WithdrawalRequest) (*models.WithdrawalResponse, error)
	// GetTransactionHistory returns the provider-side history, newest first
	GetTransactionHistory(ctx context.Context, userId string, opts models.HistoryOptions) ([]models.Transaction, error)
	// ProcessWebhook verifies and parses a delivery; it applies nothing
	ProcessWebhook(ctx context.Context, delivery models.WebhookDelivery) (*models.WebhookEvent, error)
	GetSupportedCoins(ctx context.Context) ([]models.SupportedCoin, error)
	GetTokenInfo(ctx context.Context, coinSymbol string) (*models.TokenInfo, error)
	ValidateAddress(ctx context.Context, chain, address string) (bool, error)
	GetWithdrawFee(ctx context.Context, coinSymbol, chain string) (*models.WithdrawFee, error)
}

// AccountManager creates the provider-side identity of a user
type AccountManager interface {
	// EnsureAccount returns the mapping, creating it when absent
	EnsureAccount(ctx context.Context, userId string) (*models.ProviderAccount, bool, error)
}

type Swapper interface {
	RequestSwap(ctx context.Context, userId string, request models.SwapRequest) (*models.SwapResponse, error)
	GetSwapCoins(ctx context.Context) ([]models.SupportedCoin, error)
}

// MerchantReporter exposes the app-level custody balances
type MerchantReporter interface {
	GetMerchantAssets(ctx context.Context) ([]models.CryptoBalance, error)
}

// RecordLister lists provider records for reconciliation polling
type RecordLister interface {
	ListRecords(ctx context.Context, userId string, since time.Time) ([]models.ProviderRecord, error)
}
