package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/folio/cache"
)

type record struct {
	ID    string `json:"id"`
	Width *int   `json:"width"`
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemory_SetGetDelete(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	w := 640

	require.NoError(t, m.Set(ctx, "image:1", record{ID: "1", Width: &w}, time.Minute))

	var got record
	require.NoError(t, m.Get(ctx, "image:1", &got))
	assert.Equal(t, "1", got.ID)
	require.NotNil(t, got.Width)
	assert.Equal(t, 640, *got.Width)

	require.NoError(t, m.Delete(ctx, "image:1"))
	err := m.Get(ctx, "image:1", &got)
	assert.True(t, cache.IsCacheMiss(err))
}

func TestMemory_Miss(t *testing.T) {
	m := newTestMemory(t)
	var got record
	assert.True(t, cache.IsCacheMiss(m.Get(context.Background(), "absent", &got)))
	assert.Equal(t, "memory", m.Name())
}
