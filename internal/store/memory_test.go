package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetUnknownContextIsEmpty(t *testing.T) {
	s := NewMemoryStore()

	key, err := s.Get(context.Background(), "freenode/#dev")
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "freenode/#dev", "PROJ-1"))
	require.NoError(t, s.Set(ctx, "freenode/#dev", "PROJ-2"))

	key, err := s.Get(ctx, "freenode/#dev")
	require.NoError(t, err)
	require.Equal(t, "PROJ-2", key)
}

func TestMemoryStoreContextsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "freenode/#a", "PROJ-1"))

	key, err := s.Get(ctx, "freenode/#b")
	require.NoError(t, err)
	require.Empty(t, key)
}
