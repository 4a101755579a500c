package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/domain/providers"
)

func TestMemoryAdapter_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	_, err := a.Get(ctx, "service:s-1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, a.Set(ctx, "service:s-1", []byte(`{"id":"s-1"}`), 60))
	got, err := a.Get(ctx, "service:s-1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"s-1"}`, string(got))

	exists, err := a.Exists(ctx, "service:s-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, a.Delete(ctx, "service:s-1"))
	_, err = a.Get(ctx, "service:s-1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()
	now := time.Now()
	a.now = func() time.Time { return now }

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 10))
	now = now.Add(11 * time.Second)

	_, err := a.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_IncrementWindow(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()
	now := time.Now()
	a.now = func() time.Time { return now }

	for i := int64(1); i <= 3; i++ {
		n, err := a.Increment(ctx, "login:1.2.3.4:jane@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	now = now.Add(time.Minute)
	n, err := a.Increment(ctx, "login:1.2.3.4:jane@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter restarts after the window")
}
