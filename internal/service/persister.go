package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/repository"
)

// DefaultPersistTimeout bounds a single snapshot write.
const DefaultPersistTimeout = 5 * time.Second

var ErrPersisterClosed = errors.New("persister is closed")

// Persister writes progress snapshots in the background. Requests made while
// a write is pending are merged: only the newest state is written, and every
// merged request is completed by that write.
type Persister struct {
	store   SnapshotStore
	timeout time.Duration
	logger  *zap.Logger
	onError func(error)

	mu      sync.Mutex
	meta    repository.SessionMeta
	waiters []chan error
	closed  bool

	dirty   chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewPersister starts the background writer for store. onError, if not nil,
// is called from the writer goroutine for every failed write.
func NewPersister(
	store SnapshotStore,
	timeout time.Duration,
	logger *zap.Logger,
	onError func(error),
) *Persister {
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}

	p := &Persister{
		store:   store,
		timeout: timeout,
		logger:  logger,
		onError: onError,
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

// Request schedules a write of the current records with meta and returns
// immediately. The channel receives the result of the write that covers this
// request.
func (p *Persister) Request(meta repository.SessionMeta) <-chan error {
	result := make(chan error, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		result <- ErrPersisterClosed
		return result
	}
	p.meta = meta
	p.waiters = append(p.waiters, result)
	p.mu.Unlock()

	select {
	case p.dirty <- struct{}{}:
	default: // a write is already scheduled
	}
	return result
}

// Flush requests a write and waits for it or for ctx.
func (p *Persister) Flush(ctx context.Context, meta repository.SessionMeta) error {
	select {
	case err := <-p.Request(meta):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes pending requests and stops the writer.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.stopped
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	<-p.stopped
}

func (p *Persister) run() {
	defer close(p.stopped)

	for {
		select {
		case <-p.dirty:
			p.write()
		case <-p.done:
			p.write()
			return
		}
	}
}

func (p *Persister) write() {
	p.mu.Lock()
	meta := p.meta
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	if len(waiters) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	err := p.store.Persist(ctx, meta)
	cancel()

	switch {
	case errors.Is(err, repository.ErrMemoryOnly):
		p.logger.Debug("progress kept in memory",
			zap.String("key", p.store.Key()),
		)
	case err != nil:
		p.logger.Warn("failed to persist progress",
			zap.String("key", p.store.Key()),
			zap.Int("requests", len(waiters)),
			zap.Error(err),
		)
		if p.onError != nil {
			p.onError(err)
		}
	default:
		p.logger.Debug("progress persisted",
			zap.String("key", p.store.Key()),
			zap.Int("requests", len(waiters)),
		)
	}

	for _, w := range waiters {
		w <- err
	}
}
