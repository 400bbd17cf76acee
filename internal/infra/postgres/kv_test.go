package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

// newTestStore connects to TEST_DATABASE_URL and empties kv_store.
func newTestStore(t *testing.T) *KVStore {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, PoolConfig{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	kv := NewKVStore(pool)
	require.NoError(t, kv.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `DELETE FROM kv_store`)
	require.NoError(t, err)
	return kv
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newTestStore(t)

	_, err := kv.Get(ctx, "progress:1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set(ctx, "progress:1", []byte(`{"version":1}`)))
	require.NoError(t, kv.Set(ctx, "progress:1", []byte(`{"version":1,"total_score":50}`)))

	val, err := kv.Get(ctx, "progress:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"total_score":50}`, string(val))

	require.NoError(t, kv.Delete(ctx, "progress:1"))
	_, err = kv.Get(ctx, "progress:1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKVStore_KeysMatchPrefixLiterally(t *testing.T) {
	ctx := context.Background()
	kv := newTestStore(t)

	require.NoError(t, storage.SetMany(ctx, kv, map[string][]byte{
		"progress:a_1": []byte("{}"),
		"progress:ab1": []byte("{}"),
		"progress:a%2": []byte("{}"),
	}))

	keys, err := kv.Keys(ctx, "progress:a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"progress:a_1"}, keys)

	keys, err = kv.Keys(ctx, "progress:")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}
