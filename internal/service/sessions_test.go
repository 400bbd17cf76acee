package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

func TestSessionRegistry_Get(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t, makeItems(6))
	kv := storage.NewMemoryStore()

	var created []string
	r := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop(),
		WithListenerFactory(func(learner string) Listener {
			created = append(created, learner)
			return NopListener{}
		}),
	)

	a := r.Get(ctx, "1")
	assert.Same(t, a, r.Get(ctx, "1"))
	b := r.Get(ctx, "2")
	assert.NotSame(t, a, b)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"1", "2"}, created)

	sessions := r.Sessions()
	require.Len(t, sessions, 2)
	assert.Same(t, a, sessions[0])
	assert.Same(t, b, sessions[1])
}

func TestSessionRegistry_CloseAndReload(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t, makeItems(6))
	kv := storage.NewMemoryStore()

	r := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop())
	_, err := r.Get(ctx, "7").SetFavorite("3", true)
	require.NoError(t, err)

	r.Close()
	assert.Zero(t, r.Len())

	_, err = kv.Get(ctx, ProgressKey("7"))
	require.NoError(t, err, "closing flushes pending progress")

	reopened := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop())
	defer reopened.Close()
	assert.True(t, reopened.Get(ctx, "7").Progress("3").IsFavorite)
}

func TestAutosaveService_SaveAll(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t, makeItems(6))

	t.Run("WritesEverySession", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		r := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop())
		defer r.Close()

		r.Get(ctx, "1")
		r.Get(ctx, "2")

		s := NewAutosaveService(r, "", 0, zap.NewNop())
		assert.Equal(t, 2, s.SaveAll(ctx))

		keys, err := kv.Keys(ctx, ProgressKey(""))
		require.NoError(t, err)
		assert.Equal(t, []string{"progress:1", "progress:2"}, keys)
	})

	t.Run("StorageDown", func(t *testing.T) {
		rec := &recorder{}
		r := NewSessionRegistry(catalog, failingKV{}, DefaultEngineConfig(), zap.NewNop(),
			WithListenerFactory(func(string) Listener { return rec }),
		)
		defer r.Close()

		c := r.Get(ctx, "1")
		assert.Equal(t, 1, rec.warningCount(), "a failed load is reported")
		assert.True(t, c.MemoryOnly())

		s := NewAutosaveService(r, "", 0, zap.NewNop())
		assert.Zero(t, s.SaveAll(ctx))
		assert.Equal(t, 1, rec.warningCount(), "held back writes are not reported again")
		assert.True(t, c.MemoryOnly())
	})

	t.Run("StorageBack", func(t *testing.T) {
		kv := &flakyKV{MemoryStore: storage.NewMemoryStore()}
		seedProgress(t, kv)
		require.NoError(t, copyKey(ctx, kv, "progress:test", ProgressKey("1")))
		kv.failures = 1

		r := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop())
		defer r.Close()

		c := r.Get(ctx, "1")
		require.True(t, c.MemoryOnly())
		_, err := c.SetFavorite("6", true)
		require.NoError(t, err)

		s := NewAutosaveService(r, "", 0, zap.NewNop())
		assert.Equal(t, 1, s.SaveAll(ctx))
		assert.False(t, c.MemoryOnly())
		assert.True(t, c.Progress("1").IsFavorite)
		assert.True(t, c.Progress("6").IsFavorite)
		assert.Equal(t, 500, c.Stats().Score)
	})
}

func copyKey(ctx context.Context, kv storage.KV, from, to string) error {
	data, err := kv.Get(ctx, from)
	if err != nil {
		return err
	}
	return kv.Set(ctx, to, data)
}

func TestSessionRegistry_SlowLoad(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t, makeItems(6))
	kv := &hangKV{
		MemoryStore: storage.NewMemoryStore(),
		key:         ProgressKey("slow"),
		entered:     make(chan struct{}, 1),
	}

	cfg := DefaultEngineConfig()
	cfg.PersistTimeout = 300 * time.Millisecond
	r := NewSessionRegistry(catalog, kv, cfg, zap.NewNop())
	defer r.Close()

	const callers = 3
	got := make(chan *Coordinator, callers)
	for i := 0; i < callers; i++ {
		go func() { got <- r.Get(ctx, "slow") }()
	}
	<-kv.entered

	fast := make(chan *Coordinator, 1)
	go func() { fast <- r.Get(ctx, "fast") }()
	select {
	case c := <-fast:
		assert.False(t, c.MemoryOnly())
	case <-got:
		t.Fatal("slow load finished before another learner was served")
	case <-time.After(cfg.PersistTimeout / 2):
		t.Fatal("another learner waited for a slow load")
	}

	first := <-got
	assert.True(t, first.MemoryOnly(), "a load past its deadline continues memory only")
	for i := 0; i < callers-1; i++ {
		assert.Same(t, first, <-got)
	}
	assert.Equal(t, 2, r.Len())
}

func TestAutosaveService_StartStopsWithContext(t *testing.T) {
	catalog := newCatalog(t, makeItems(6))
	kv := storage.NewMemoryStore()
	r := NewSessionRegistry(catalog, kv, DefaultEngineConfig(), zap.NewNop())
	defer r.Close()

	r.Get(context.Background(), "5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewAutosaveService(r, "@every 1h", 0, zap.NewNop())
	require.NoError(t, s.Start(ctx))

	_, err := kv.Get(context.Background(), ProgressKey("5"))
	assert.NoError(t, err, "stopping saves once more")
}

func TestAutosaveService_InvalidSchedule(t *testing.T) {
	r := NewSessionRegistry(newCatalog(t, makeItems(6)), storage.NewMemoryStore(), DefaultEngineConfig(), zap.NewNop())
	defer r.Close()

	s := NewAutosaveService(r, "not a schedule", 0, zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}
