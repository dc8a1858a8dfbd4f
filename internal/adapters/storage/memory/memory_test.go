package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tasks", "[]"))
	got, ok, err := s.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", got)

	require.NoError(t, s.Delete(ctx, "tasks"))
	require.NoError(t, s.Delete(ctx, "missing"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoreFailWrites(t *testing.T) {
	ctx := context.Background()
	s := NewWithValues(map[string]string{"tasks": "old"})
	boom := errors.New("quota exceeded")

	s.FailWrites(boom)
	assert.ErrorIs(t, s.Set(ctx, "tasks", "new"), boom)
	got, _, _ := s.Get(ctx, "tasks")
	assert.Equal(t, "old", got)

	s.FailWrites(nil)
	require.NoError(t, s.Set(ctx, "tasks", "new"))
	got, _, _ = s.Get(ctx, "tasks")
	assert.Equal(t, "new", got)
}

func TestStoreKeysSorted(t *testing.T) {
	s := NewWithValues(map[string]string{"b": "2", "a": "1"})
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestStoreUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewWithValues(map[string]string{"seeded": "x"})
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, ok, err := s.UpdatedAt(ctx, "tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	seeded, ok, err := s.UpdatedAt(ctx, "seeded")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, seeded.IsZero())

	require.NoError(t, s.Set(ctx, "tasks", "[]"))
	got, ok, err := s.UpdatedAt(ctx, "tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(now))

	require.NoError(t, s.Delete(ctx, "tasks"))
	_, ok, _ = s.UpdatedAt(ctx, "tasks")
	assert.False(t, ok)
}
