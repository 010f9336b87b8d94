package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func pgError(code string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", pgError(pgerrcode.SerializationFailure), true},
		{"deadlock", pgError(pgerrcode.DeadlockDetected), true},
		{"connection failure", pgError(pgerrcode.ConnectionFailure), true},
		{"unique violation", pgError(pgerrcode.UniqueViolation), false},
		{"context canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgError(pgerrcode.UniqueViolation)))
	assert.False(t, IsUniqueViolation(pgError(pgerrcode.DeadlockDetected)))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

func TestRetry(t *testing.T) {
	t.Run("succeeds after transient errors", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return pgError(pgerrcode.SerializationFailure)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
			calls++
			return pgError(pgerrcode.DeadlockDetected)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, IsTransient(err))
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("permanent")
		err := Retry(context.Background(), fastPolicy, func(ctx context.Context) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		slow := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
		err := Retry(ctx, slow, func(ctx context.Context) error {
			calls++
			return pgError(pgerrcode.SerializationFailure)
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
