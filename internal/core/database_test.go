// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   error
		not  []error
	}{
		{name: "no rows", err: sql.ErrNoRows, is: ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, is: ErrDuplicateKey},
		{name: "statement timeout", err: &pgconn.PgError{Code: "57014"}, is: ErrUpstreamTimeout},
		{
			name: "deadline",
			err:  fmt.Errorf("query: %w", context.DeadlineExceeded),
			is:   ErrUpstreamTimeout,
			not:  []error{ErrUpstreamUnavailable},
		},
		{name: "bad conn", err: driver.ErrBadConn, is: ErrUpstreamUnavailable},
		{name: "conn done", err: sql.ErrConnDone, is: ErrUpstreamUnavailable},
		{
			name: "dial refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			is:   ErrUpstreamUnavailable,
		},
		{name: "domain sentinel", err: ErrInvalidInput, is: ErrInvalidInput, not: []error{ErrUpstreamUnavailable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StoreError("op", tt.err)
			assert.ErrorIs(t, err, tt.is)
			for _, n := range tt.not {
				assert.NotErrorIs(t, err, n)
			}
		})
	}

	assert.NoError(t, StoreError("op", nil))
}

func TestStoreErrorKeepsSQLFailuresInternal(t *testing.T) {
	err := StoreError("list", &pgconn.PgError{Code: "42P01", Message: "relation missing"})
	require.Error(t, err)
	assert.False(t, IsUpstreamError(err))

	err = StoreError("scan", errors.New("sql: Scan error on column"))
	assert.False(t, IsUpstreamError(err))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, cancel = WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestSpreadLifetime(t *testing.T) {
	assert.Equal(t, time.Duration(0), spreadLifetime(0))
	assert.Equal(t, 3*time.Nanosecond, spreadLifetime(3*time.Nanosecond))

	for range 50 {
		got := spreadLifetime(7 * time.Minute)
		assert.GreaterOrEqual(t, got, 7*time.Minute)
		assert.Less(t, got, 8*time.Minute)
	}
}
