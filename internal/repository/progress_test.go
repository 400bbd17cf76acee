package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

var errBroken = errors.New("connection refused")

// brokenKV fails every call.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenKV) Set(context.Context, string, []byte) error   { return errBroken }

// flakyKV fails the next failures Get calls, then serves from memory.
type flakyKV struct {
	*storage.MemoryStore

	mu       sync.Mutex
	failures int
}

func newFlakyKV(failures int) *flakyKV {
	return &flakyKV{MemoryStore: storage.NewMemoryStore(), failures: failures}
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return nil, errBroken
	}
	return f.MemoryStore.Get(ctx, key)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProgressStore_GetDefaults(t *testing.T) {
	s := NewProgressStore(nil, "progress:test")

	first := s.Get("7")
	second := s.Get("7")

	assert.Equal(t, entities.ProgressRecord{ItemID: "7"}, first)
	assert.Equal(t, first, second)
	assert.Empty(t, s.Snapshot(), "reads must not create records")
}

func TestProgressStore_RecordAnswer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewProgressStore(nil, "progress:test", WithClock(fixedClock(now)))

	t.Run("WrongAddsTwo", func(t *testing.T) {
		p := s.RecordAnswer("1", false)
		assert.Equal(t, 2.0, p.DifficultyScore)
		assert.Equal(t, 1, p.TimesWrong)
		require.NotNil(t, p.LastSeenAt)
		assert.True(t, now.Equal(*p.LastSeenAt))
	})

	t.Run("CorrectSubtractsOne", func(t *testing.T) {
		p := s.RecordAnswer("1", true)
		assert.Equal(t, 1.0, p.DifficultyScore)
		assert.Equal(t, 1, p.TimesCorrect)
	})

	t.Run("FloorAtZero", func(t *testing.T) {
		s.RecordAnswer("1", true)
		p := s.RecordAnswer("1", true)
		assert.Equal(t, 0.0, p.DifficultyScore)
		assert.Equal(t, 3, p.TimesCorrect)
	})

	t.Run("CorrectNeverIncreases", func(t *testing.T) {
		for _, start := range []float64{0, 0.5, 1, 7} {
			s.Update("x", func(p entities.ProgressRecord) entities.ProgressRecord {
				p.DifficultyScore = start
				return p
			})
			p := s.RecordAnswer("x", true)
			assert.LessOrEqual(t, p.DifficultyScore, start)
			assert.GreaterOrEqual(t, p.DifficultyScore, 0.0)
		}
	})
}

func TestProgressStore_Flags(t *testing.T) {
	s := NewProgressStore(nil, "progress:test")

	p := s.MarkFavorite("3", true)
	assert.True(t, p.IsFavorite)
	assert.False(t, p.IsMemorized)

	p = s.MarkMemorized("3", true)
	assert.True(t, p.IsFavorite)
	assert.True(t, p.IsMemorized)

	p = s.MarkFavorite("3", false)
	assert.False(t, p.IsFavorite)
	assert.Equal(t, p, s.Get("3"))
}

func TestProgressStore_ConcurrentUpdates(t *testing.T) {
	s := NewProgressStore(nil, "progress:test")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.RecordAnswer("same", false)
		}()
		go func() {
			defer wg.Done()
			s.RecordAnswer("other", true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Get("same").TimesWrong)
	assert.Equal(t, 100.0, s.Get("same").DifficultyScore)
	assert.Equal(t, 50, s.Get("other").TimesCorrect)
	assert.Equal(t, 0.0, s.Get("other").DifficultyScore)
}

func TestProgressStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewProgressStore(kv, "progress:1", WithClock(fixedClock(now)))
	s.MarkFavorite("1", true)
	s.RecordAnswer("2", false)
	s.MarkMemorized("retired-item", true)

	meta := SessionMeta{
		TotalScore:        150,
		QuestionsAnswered: 4,
		LifetimeScore:     900,
		LifetimeAnswered:  25,
		Streak:            entities.Streak{Days: 3, LastVisit: "2026-03-01"},
		SearchHistory:     []string{"rah"},
	}
	require.NoError(t, s.Persist(ctx, meta))

	restored := NewProgressStore(kv, "progress:1")
	got, err := restored.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, meta, got)
	assert.True(t, restored.Get("1").IsFavorite)
	assert.Equal(t, 2.0, restored.Get("2").DifficultyScore)
	assert.True(t, restored.Get("retired-item").IsMemorized, "records of unknown items are retained")
	require.NotNil(t, restored.Get("2").LastSeenAt)
	assert.True(t, now.Equal(*restored.Get("2").LastSeenAt))
}

func TestProgressStore_LoadDegrades(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		s := NewProgressStore(storage.NewMemoryStore(), "progress:new")
		meta, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SessionMeta{}, meta)
		assert.Empty(t, s.Snapshot())
	})

	t.Run("StorageFailure", func(t *testing.T) {
		s := NewProgressStore(brokenKV{}, "progress:1")
		s.MarkFavorite("1", true)

		meta, err := s.Load(ctx)
		assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
		assert.ErrorIs(t, err, errBroken)
		assert.Equal(t, SessionMeta{}, meta)

		assert.Empty(t, s.Snapshot())
		assert.Equal(t, entities.ProgressRecord{ItemID: "1"}, s.Get("1"))
	})

	t.Run("Corrupt", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		require.NoError(t, kv.Set(ctx, "progress:1", []byte(`{"records": {`)))

		s := NewProgressStore(kv, "progress:1")
		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
		assert.ErrorIs(t, err, entities.ErrCorruptSnapshot)
		assert.Empty(t, s.Snapshot())
	})

	t.Run("PersistFailure", func(t *testing.T) {
		s := NewProgressStore(brokenKV{}, "progress:1")
		err := s.Persist(ctx, SessionMeta{})
		assert.ErrorIs(t, err, entities.ErrStorageUnavailable)
	})
}

func TestProgressStore_FailedLoadHoldsWrites(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, kv storage.KV) {
		t.Helper()
		stored := NewProgressStore(kv, "progress:1")
		for _, id := range []entities.ItemID{"1", "2", "3", "4", "5"} {
			stored.MarkFavorite(id, true)
		}
		require.NoError(t, stored.Persist(ctx, SessionMeta{TotalScore: 500, QuestionsAnswered: 10}))
	}

	storedFavorites := func(t *testing.T, kv storage.KV) int {
		t.Helper()
		check := NewProgressStore(kv, "progress:1")
		_, err := check.Load(ctx)
		require.NoError(t, err)

		var n int
		for _, p := range check.Snapshot() {
			if p.IsFavorite {
				n++
			}
		}
		return n
	}

	t.Run("PersistRefused", func(t *testing.T) {
		kv := newFlakyKV(0)
		seed(t, kv)
		kv.failures = 1

		s := NewProgressStore(kv, "progress:1")
		_, err := s.Load(ctx)
		require.ErrorIs(t, err, entities.ErrStorageUnavailable)
		assert.True(t, s.MemoryOnly())
		assert.Empty(t, s.Snapshot())

		s.MarkFavorite("9", true)
		err = s.Persist(ctx, SessionMeta{})
		assert.ErrorIs(t, err, ErrMemoryOnly)
		assert.ErrorIs(t, err, entities.ErrStorageUnavailable)

		assert.Equal(t, 5, storedFavorites(t, kv))
	})

	t.Run("RetryMerges", func(t *testing.T) {
		kv := newFlakyKV(0)
		seed(t, kv)
		kv.failures = 2

		s := NewProgressStore(kv, "progress:1")
		_, err := s.Load(ctx)
		require.Error(t, err)

		s.MarkFavorite("9", true)
		s.MarkFavorite("1", false)

		_, err = s.Load(ctx)
		require.Error(t, err)
		assert.True(t, s.MemoryOnly())
		assert.True(t, s.Get("9").IsFavorite, "a failed retry keeps in-memory changes")

		meta, err := s.Load(ctx)
		require.NoError(t, err)
		assert.False(t, s.MemoryOnly())
		assert.Equal(t, 500, meta.TotalScore)

		assert.True(t, s.Get("9").IsFavorite)
		assert.False(t, s.Get("1").IsFavorite, "in-memory records win")
		assert.True(t, s.Get("2").IsFavorite)

		require.NoError(t, s.Persist(ctx, meta))
		assert.Equal(t, 5, storedFavorites(t, kv))
	})

	t.Run("ResetWipes", func(t *testing.T) {
		kv := newFlakyKV(0)
		seed(t, kv)
		kv.failures = 1

		s := NewProgressStore(kv, "progress:1")
		_, err := s.Load(ctx)
		require.Error(t, err)

		s.Reset()
		assert.False(t, s.MemoryOnly())
		require.NoError(t, s.Persist(ctx, SessionMeta{}))
		assert.Zero(t, storedFavorites(t, kv))
	})
}
