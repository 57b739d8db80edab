package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollStopsWhenDone(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 5, time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return attempt == 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPollExhaustsAfterExactAttempts(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 10, time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 10, calls)
}

func TestPollKeepsGoingThroughErrors(t *testing.T) {
	readErr := errors.New("subgraph unreachable")
	calls := 0
	err := Poll(context.Background(), 3, time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		calls++
		if attempt < 3 {
			return false, readErr
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollWrapsLastError(t *testing.T) {
	readErr := errors.New("boom")
	err := Poll(context.Background(), 2, time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		return false, readErr
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, readErr)
}

func TestPollHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, 5, 50*time.Millisecond, func(ctx context.Context, attempt int) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
