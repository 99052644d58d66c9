package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s := newMemoryStore(func() time.Time { return now })

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "short", "a", time.Minute))
	require.NoError(t, s.Set(ctx, "forever", "b", 0))

	val, found, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a", val)

	now = now.Add(time.Minute)

	_, found, err = s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found, "entry must expire at its ttl")

	val, found, err = s.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", val)

	require.NoError(t, s.Delete(ctx, "forever"))
	_, found, err = s.Get(ctx, "forever")
	require.NoError(t, err)
	assert.False(t, found)
}
