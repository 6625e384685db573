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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dgt-wallet-go/internal/models"
	"dgt-wallet-go/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// dialect covers the two differences between the supported backends:
// placeholder syntax and the row lock clause. SQLite has no row locks; its
// write transactions are opened IMMEDIATE so writers are serialised at BEGIN.
type dialect struct {
	name     string
	numbered bool
	lock     string
}

var (
	sqliteDialect   = dialect{name: DriverSQLite}
	postgresDialect = dialect{name: DriverPostgres, numbered: true, lock: " FOR UPDATE"}
)

// q rebinds ? placeholders to $n where needed
func (d dialect) q(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate appends the row lock clause to a SELECT
func (d dialect) forUpdate(query string) string {
	return d.q(query + d.lock)
}

type Service struct {
	db      *sql.DB
	dialect dialect
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	var (
		d   dialect
		dsn string
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path cannot be empty")
		}
		d = sqliteDialect
		dsn = cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=1"
		zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN cannot be empty for driver %s", cfg.Driver)
		}
		d = postgresDialect
		dsn = cfg.DSN
		zap.L().Info("Opening PostgreSQL database")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newService(db, d)
	if err := service.initSchema(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(cerr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully", zap.String("driver", d.name))
	return service, nil
}

func newService(db *sql.DB, d dialect) *Service {
	return &Service{db: db, dialect: d}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping checks that the database is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) initSchema(ctx context.Context) error {
	statements := sqliteSchema
	if s.dialect.name == DriverPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn inside one database transaction, committing on nil error.
// fn must only use tx; the pool may hold a single connection.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

// now is the timestamp written by every mutation; stored in UTC so that
// text ordering in SQLite matches time ordering.
func now() time.Time {
	return time.Now().UTC()
}

type scanner interface {
	Scan(dest ...any) error
}
