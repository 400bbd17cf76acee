package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/repository"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

var testCategories = []entities.Category{
	entities.CategoryMajesty,
	entities.CategoryBeauty,
	entities.CategoryPerfection,
}

// makeItems returns n items with ids and sequence numbers 1..n.
func makeItems(n int) []entities.Item {
	items := make([]entities.Item, n)
	for i := range items {
		seq := i + 1
		items[i] = entities.Item{
			ID:             entities.ItemID(strconv.Itoa(seq)),
			PrimaryText:    fmt.Sprintf("ord%d", seq),
			Translation:    fmt.Sprintf("word %d", seq),
			Category:       testCategories[i%len(testCategories)],
			SequenceNumber: seq,
		}
	}
	return items
}

func newCatalog(t *testing.T, items []entities.Item) *repository.Catalog {
	t.Helper()
	c, err := repository.NewCatalog(items)
	require.NoError(t, err)
	return c
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newStore(kv storage.KV) *repository.ProgressStore {
	return repository.NewProgressStore(kv, "progress:test", repository.WithClock(func() time.Time { return testNow }))
}

var errUnavailable = errors.New("disk unavailable")

// failingKV fails every call.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errUnavailable }
func (failingKV) Set(context.Context, string, []byte) error   { return errUnavailable }

// flakyKV fails the next failures Get calls, then serves from memory.
type flakyKV struct {
	*storage.MemoryStore

	mu       sync.Mutex
	failures int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return nil, errUnavailable
	}
	return f.MemoryStore.Get(ctx, key)
}

// hangKV blocks Get of key until the context is done.
type hangKV struct {
	*storage.MemoryStore
	key     string
	entered chan struct{}
}

func (h *hangKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key != h.key {
		return h.MemoryStore.Get(ctx, key)
	}
	h.entered <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

// recorder collects listener notifications.
type recorder struct {
	mu       sync.Mutex
	changed  []entities.ItemID
	decks    [][]entities.ItemID
	ready    []entities.Question
	results  []entities.AnswerResult
	warnings []error
}

func (r *recorder) OnProgressChanged(id entities.ItemID, _ entities.ProgressRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, id)
}

func (r *recorder) OnDeckRebuilt(deck []entities.ItemID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks = append(r.decks, deck)
}

func (r *recorder) OnQuestionReady(q entities.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, q)
}

func (r *recorder) OnAnswerResult(res entities.AnswerResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) OnWarning(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, err)
}

func (r *recorder) warningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}
