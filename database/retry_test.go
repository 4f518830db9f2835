package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return cfg
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), false},
		{"cancelled", context.Canceled, false},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"starting up", &pgconn.PgError{Code: "57P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"network", errors.New("dial tcp: connection refused"), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
			calls++
			if calls < 3 {
				return &pgconn.PgError{Code: "40P01"}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
			calls++
			return &pgconn.PgError{Code: "23505"}
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry(), func() error {
			calls++
			return errors.New("connection reset by peer")
		})
		assert.EqualError(t, err, "connection reset by peer")
		assert.Equal(t, 3, calls)
	})

	t.Run("disabled runs once", func(t *testing.T) {
		calls := 0
		_ = RetryWithBackoff(context.Background(), NoRetry(), func() error {
			calls++
			return errors.New("connection reset by peer")
		})
		assert.Equal(t, 1, calls)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, EscapeLike(`50% off_now\`))
}
