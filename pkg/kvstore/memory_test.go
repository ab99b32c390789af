package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v1", got)

	require.NoError(t, m.Set(ctx, "k", "v2"))
	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v2", got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, m.Delete(ctx, "k"))
	require.NoError(t, m.Close())
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "hospital_token", "tok"))
	require.NoError(t, m.Set(ctx, "hospital_session_info", "{}"))
	require.NoError(t, m.Delete(ctx, "hospital_token"))

	got, err := m.Get(ctx, "hospital_session_info")
	require.NoError(t, err)
	require.Equal(t, "{}", got)
}
