package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePendingLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePending(ctx, Payout{
		TxHash:      "0xfeed",
		Phone:       "+254712345678",
		LocalAmount: "1300",
		Currency:    "KES",
		Network:     "Safaricom",
	}))

	got, err := store.Get(ctx, "0xfeed")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "1300", got.LocalAmount)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.MarkCompleted(ctx, "0xfeed", "rcpt-1"))

	got, err = store.Get(ctx, "0xfeed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "rcpt-1", got.ReceiptID)

	pending, err = store.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStoreRejectsDuplicateHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := Payout{TxHash: "0xfeed", Phone: "+254712345678", LocalAmount: "10", Currency: "KES", Network: "Safaricom"}
	require.NoError(t, store.CreatePending(ctx, p))
	assert.Error(t, store.CreatePending(ctx, p))
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRecordAttemptKeepsPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreatePending(ctx, Payout{
		TxHash: "0xfeed", Phone: "+254712345678", LocalAmount: "10", Currency: "KES", Network: "Safaricom",
	}))
	require.NoError(t, store.RecordAttempt(ctx, "0xfeed", "provider timeout"))

	got, err := store.Get(ctx, "0xfeed")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "provider timeout", got.LastError)
}

func TestStoreMarkMissingIsNotFound(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.MarkCompleted(context.Background(), "0xmissing", "r"), ErrNotFound)
}
