package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Session is the explicit store handle every repository is built from.
// It holds the connection pool and the executor currently in use (the pool
// itself, or an open transaction).
type Session struct {
	db       *sqlx.DB
	executor DBExecutor
}

func NewSession(db *sqlx.DB) *Session {
	return &Session{
		db:       db,
		executor: db,
	}
}

func (s *Session) Executor() DBExecutor {
	return s.executor
}

func (s *Session) DB() *sqlx.DB {
	return s.db
}

// InTransaction reports whether the session is bound to an open transaction.
func (s *Session) InTransaction() bool {
	_, ok := s.executor.(*sqlx.Tx)
	return ok
}

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ToTxOptions converts TransactionOptions to sql.TxOptions
func (o *TransactionOptions) ToTxOptions() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: o.Isolation,
		ReadOnly:  o.ReadOnly,
	}
}

func (s *Session) WithTransaction(ctx context.Context, fn func(*Session) error) error {
	return s.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions runs fn inside a transaction. A session that is already
// inside a transaction runs fn directly so nested calls share it.
func (s *Session) WithTransactionOptions(ctx context.Context, opts *TransactionOptions, fn func(*Session) error) error {
	if s.InTransaction() {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, opts.ToTxOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Session{db: s.db, executor: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return ParsePostgreSQLError(err, "commit", "")
	}
	committed = true

	return nil
}
