package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/m760622/snabbaLexinTSR/internal/repository"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

// progressKeyPrefix namespaces learner snapshots in the KV store.
const progressKeyPrefix = "progress:"

// ProgressKey returns the storage key of a learner's snapshot.
func ProgressKey(learner string) string {
	return progressKeyPrefix + learner
}

// SessionRegistry keeps one coordinator per learner, created on first use.
type SessionRegistry struct {
	catalog CatalogReader
	kv      storage.KV
	cfg     EngineConfig
	logger  *zap.Logger

	listeners func(learner string) Listener

	loads    singleflight.Group
	mu       sync.Mutex
	sessions map[string]*Coordinator
}

// RegistryOption configures a SessionRegistry.
type RegistryOption func(*SessionRegistry)

// WithListenerFactory gives every new session its own listener.
func WithListenerFactory(fn func(learner string) Listener) RegistryOption {
	return func(r *SessionRegistry) { r.listeners = fn }
}

// NewSessionRegistry creates an empty registry. Sessions persist into kv.
func NewSessionRegistry(
	catalog CatalogReader,
	kv storage.KV,
	cfg EngineConfig,
	logger *zap.Logger,
	opts ...RegistryOption,
) *SessionRegistry {
	r := &SessionRegistry{
		catalog:  catalog,
		kv:       kv,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Coordinator),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session of learner, loading it from storage on first use.
// Loads run outside the registry lock and are bounded by the storage
// timeout; concurrent first calls for one learner share a single load.
func (r *SessionRegistry) Get(ctx context.Context, learner string) *Coordinator {
	if c, ok := r.lookup(learner); ok {
		return c
	}

	v, _, _ := r.loads.Do(learner, func() (any, error) {
		if c, ok := r.lookup(learner); ok {
			return c, nil
		}

		c := r.load(ctx, learner)

		r.mu.Lock()
		r.sessions[learner] = c
		r.mu.Unlock()
		return c, nil
	})
	return v.(*Coordinator)
}

func (r *SessionRegistry) lookup(learner string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[learner]
	return c, ok
}

func (r *SessionRegistry) load(ctx context.Context, learner string) *Coordinator {
	var opts []CoordinatorOption
	if r.listeners != nil {
		opts = append(opts, WithListener(r.listeners(learner)))
	}

	store := repository.NewProgressStore(r.kv, ProgressKey(learner))
	c := NewCoordinator(r.catalog, store, r.cfg, r.logger.With(zap.String("learner", learner)), opts...)

	report := c.LoadProgress(ctx)
	r.logger.Debug("session loaded",
		zap.String("learner", learner),
		zap.Int("records", report.Records),
		zap.Bool("degraded", report.Warning != nil),
	)
	return c
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns the live sessions ordered by learner.
func (r *SessionRegistry) Sessions() []*Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	learners := make([]string, 0, len(r.sessions))
	for l := range r.sessions {
		learners = append(learners, l)
	}
	sort.Strings(learners)

	out := make([]*Coordinator, 0, len(learners))
	for _, l := range learners {
		out = append(out, r.sessions[l])
	}
	return out
}

// Close flushes and stops all sessions.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Coordinator)
	r.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}
