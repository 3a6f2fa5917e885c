package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
)

type contextKey string

const txKey contextKey = "tx"

const (
	// beginAttempts bounds how often BEGIN IMMEDIATE is retried while another
	// connection holds the write lock past the driver's busy timeout
	beginAttempts = 3
	busyBackoff   = 50 * time.Millisecond
)

// DB is the transaction manager for the SQLite repositories. Each
// transaction travels in the context so repositories join it.
type DB struct {
	*sql.DB
	logger *zap.Logger

	beginTx func(ctx context.Context) (*sql.Tx, error)
	backoff time.Duration
}

// NewDB creates a transaction manager over sqlDB
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	db := &DB{
		DB:      sqlDB,
		logger:  logger,
		backoff: busyBackoff,
	}
	db.beginTx = func(ctx context.Context) (*sql.Tx, error) {
		return sqlDB.BeginTx(ctx, nil)
	}
	return db
}

// WithTransaction runs fn inside a transaction carried by the context.
// Nested calls join the outer transaction. fn itself is never retried.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := db.begin(ctx)
	if err != nil {
		db.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) begin(ctx context.Context) (*sql.Tx, error) {
	var lastErr error
	for attempt := 1; attempt <= beginAttempts; attempt++ {
		tx, err := db.beginTx(ctx)
		if err == nil {
			return tx, nil
		}
		lastErr = err
		if !IsBusy(err) || attempt == beginAttempts {
			break
		}

		db.logger.Info("Database busy, retrying begin",
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * db.backoff):
		}
	}
	return nil, lastErr
}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFrom returns the transaction carried by ctx, or db when there is none
func ExecutorFrom(ctx context.Context, db *sql.DB) Executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db
}

// InTransaction reports whether ctx carries a transaction
func InTransaction(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

func extractTx(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey).(*sql.Tx)
	return tx
}

var _ port.TransactionManager = (*DB)(nil)
