package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"dgt-wallet-go/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

func TestDialectRebind(t *testing.T) {
	query := `UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?`

	if got := sqliteDialect.q(query); got != query {
		t.Errorf("sqlite must keep ? placeholders, got %s", got)
	}

	want := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`
	if got := postgresDialect.q(query); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	if got := postgresDialect.forUpdate(`SELECT id FROM wallets WHERE user_id = ?`); got != `SELECT id FROM wallets WHERE user_id = $1 FOR UPDATE` {
		t.Errorf("Unexpected lock query %s", got)
	}
}

func walletRows(id, userId, balance string) *sqlmock.Rows {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "user_id", "balance", "status", "last_transaction", "created_at", "updated_at"}).
		AddRow(id, userId, balance, "active", nil, ts, ts)
}

// Whatever the direction, the lower user id is locked first.
func TestTransfer_PostgresLockOrder(t *testing.T) {
	for _, tt := range []struct {
		name     string
		from, to string
	}{
		{"ascending", "alice", "bob"},
		{"descending", "bob", "alice"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock.New failed: %v", err)
			}
			defer db.Close()

			service := newService(db, postgresDialect)
			lock := regexp.QuoteMeta("WHERE user_id = $1 FOR UPDATE")

			mock.ExpectBegin()
			mock.ExpectQuery(lock).WithArgs("alice").WillReturnRows(walletRows("w-alice", "alice", "100.00000000"))
			mock.ExpectQuery(lock).WithArgs("bob").WillReturnRows(walletRows("w-bob", "bob", "5.00000000"))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			_, err = service.Transfer(context.Background(), store.TransferParams{
				FromUserId: tt.from,
				ToUserId:   tt.to,
				Amount:     decimal.NewFromInt(3),
			})
			if err != nil {
				t.Fatalf("Transfer failed: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unmet expectations: %v", err)
			}
		})
	}
}

func TestDebitWallet_PostgresInsufficientRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	service := newService(db, postgresDialect)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(walletRows("w-1", "u1", "10.00000000"))
	mock.ExpectRollback()

	_, err = service.DebitWallet(context.Background(), store.EntryParams{UserId: "u1", Amount: decimal.NewFromInt(11)})
	if err == nil {
		t.Fatal("Expected insufficient funds")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
