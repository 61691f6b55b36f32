package database

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithRetry(t *testing.T) {
	errDown := errors.New("connection refused")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, zerolog.Nop(), func(context.Context) error {
			calls++
			if calls < 2 {
				return errDown
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("single attempt returns the first error", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 0, zerolog.Nop(), func(context.Context) error {
			calls++
			return errDown
		})
		if !errors.Is(err, errDown) {
			t.Fatalf("err = %v, want %v", err, errDown)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("cancelled context stops the backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, 5, zerolog.Nop(), func(context.Context) error {
			return errDown
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}
