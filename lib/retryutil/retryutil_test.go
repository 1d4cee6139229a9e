package retryutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{Attempts: 3}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("table still empty")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("control not interactive")
	calls := 0
	err := Do(context.Background(), Options{Attempts: 3}, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 3, calls)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Options{Attempts: 3}, func(ctx context.Context) error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
