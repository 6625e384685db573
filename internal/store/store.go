package store

import (
	"context"
	"encoding/json"
	"errors"

	"dgt-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrWalletInactive          = errors.New("wallet is not active")
	ErrBalanceCapExceeded      = errors.New("balance cap exceeded")
	ErrProviderAccountNotFound = errors.New("provider account not found")
	ErrDuplicateEvent          = errors.New("duplicate webhook event")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrRecordNotFound          = errors.New("record not found")
	ErrBalanceMismatch         = errors.New("balance does not reconcile with ledger")
)

// EntryParams describes one ledger entry. Amount is always positive; the
// store applies the sign from the operation.
type EntryParams struct {
	UserId      string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Description string
	Metadata    json.RawMessage
	FromUserId  string
	ToUserId    string
	Reference   string
	ExternalId  string
	// MaxBalance caps the resulting balance of a credit; zero disables the cap
	MaxBalance decimal.Decimal
}

// TransferParams moves Amount between two active wallets in one transaction.
type TransferParams struct {
	FromUserId     string
	ToUserId       string
	Amount         decimal.Decimal
	Reference      string
	OutDescription string
	InDescription  string
	OutMetadata    json.RawMessage
	InMetadata     json.RawMessage
	MaxBalance     decimal.Decimal
}

type TransferResult struct {
	Out *models.Transaction
	In  *models.Transaction
}

// InitializeWalletParams creates a wallet if absent, crediting WelcomeBonus
// in the same transaction when the wallet is new.
type InitializeWalletParams struct {
	UserId       string
	WelcomeBonus decimal.Decimal
	Description  string
	Metadata     json.RawMessage
}

type InitializeWalletResult struct {
	Wallet  *models.Wallet
	Created bool
	Bonus   *models.Transaction
}

// StatusTransition moves a withdrawal (by order id) or swap (by record id)
// from pending to a terminal status.
type StatusTransition struct {
	Key      string
	Status   models.TransactionStatus
	RecordId string
	TxHash   string
}

// ApplyWebhookParams records a provider event and applies its effects
// atomically. A repeated (provider, event id) applies nothing.
type ApplyWebhookParams struct {
	Event      models.WebhookEvent
	Payload    []byte
	Credit     *EntryParams
	Withdrawal *StatusTransition
	Swap       *StatusTransition
}

type ApplyWebhookResult struct {
	Credit       *models.Transaction
	Transitioned bool
}

// LedgerStore defines the contract that every backend (SQLite, PostgreSQL) must satisfy.
type LedgerStore interface {
	// --- Wallets ---
	GetWallet(ctx context.Context, userId string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)
	InitializeWallet(ctx context.Context, params InitializeWalletParams) (*InitializeWalletResult, error)
	SetWalletStatus(ctx context.Context, userId string, status models.WalletStatus) error

	// --- Ledger ---
	CreditWallet(ctx context.Context, params EntryParams) (*models.Transaction, error)
	DebitWallet(ctx context.Context, params EntryParams) (*models.Transaction, error)
	Transfer(ctx context.Context, params TransferParams) (*TransferResult, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	ReconcileWallet(ctx context.Context, userId string) error

	// --- Provider accounts ---
	GetProviderAccount(ctx context.Context, userId, provider string) (*models.ProviderAccount, error)
	FindProviderAccount(ctx context.Context, provider, providerUserId string) (*models.ProviderAccount, error)
	CreateProviderAccount(ctx context.Context, account models.ProviderAccount) (*models.ProviderAccount, bool, error)
	ListProviderAccounts(ctx context.Context, provider string) ([]models.ProviderAccount, error)

	// --- Deposit addresses ---
	StoreDepositAddress(ctx context.Context, address models.DepositAddress) (*models.DepositAddress, error)
	GetDepositAddresses(ctx context.Context, userId string) ([]models.DepositAddress, error)

	// --- Supported tokens ---
	UpsertSupportedToken(ctx context.Context, token models.SupportedToken) error
	ListSupportedTokens(ctx context.Context, activeOnly bool) ([]models.SupportedToken, error)

	// --- Withdrawals and swaps ---
	CreateWithdrawalRecord(ctx context.Context, record models.WithdrawalRecord) error
	GetWithdrawalRecord(ctx context.Context, orderId string) (*models.WithdrawalRecord, error)
	CreateSwapRecord(ctx context.Context, record models.SwapRecord) error
	GetSwapRecord(ctx context.Context, recordId string) (*models.SwapRecord, error)

	// --- Webhooks ---
	ApplyWebhookEvent(ctx context.Context, params ApplyWebhookParams) (*ApplyWebhookResult, error)

	// --- Lifecycle ---
	Close()
}
