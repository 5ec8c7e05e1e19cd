// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/config"
)

const (
	pgUniqueViolation = "23505"
	pgQueryCanceled   = "57014"
)

// Database owns the Postgres pool backing users and the product catalog.
type Database struct {
	DB      *sqlx.DB
	timeout time.Duration
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
	opTimeout time.Duration,
) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(spreadLifetime(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db, timeout: opTimeout}
	if err := d.Ping(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // pool never became usable
		return nil, err
	}

	return d, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// Ping satisfies the readiness checker.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := WithTimeout(ctx, d.timeout)
	defer cancel()

	return StoreError("ping database", d.DB.PingContext(ctx))
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

// WithTimeout bounds ctx by d. A non-positive d only adds cancellation.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// StoreError maps a database error onto the domain sentinels.
//
// Missing rows become ErrNotFound and unique violations ErrDuplicateKey.
// Statement errors Postgres answered are wrapped as-is. Deadlines, dead
// connections and dial failures are upstream failures. Errors that already
// carry a domain sentinel pass through.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
		case pgQueryCanceled:
			return fmt.Errorf("%s: %w: %w", op, ErrUpstreamTimeout, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if IsUpstreamError(err) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return Upstream(op, context.DeadlineExceeded)
	}

	var netErr net.Error
	var connectErr *pgconn.ConnectError
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) || errors.As(err, &connectErr) {
		return Upstream(op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// InTx runs fn in a transaction, committing only when fn returns nil.
// Errors from fn are returned untouched; begin and commit failures go
// through StoreError.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return StoreError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // re-panicking below
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback() //nolint:errcheck // fn's error is the one that matters
		return err
	}

	return StoreError("commit transaction", tx.Commit())
}

// spreadLifetime adds up to a seventh of base so pooled connections
// opened together do not all expire in the same instant.
func spreadLifetime(base time.Duration) time.Duration {
	window := int64(base / 7)
	if window <= 0 {
		return base
	}
	//nolint:gosec // G404: pool expiry spread, not security sensitive
	return base + time.Duration(rand.Int64N(window))
}
