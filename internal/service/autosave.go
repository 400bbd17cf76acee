package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAutosaveSpec is the cron schedule of periodic saves.
const DefaultAutosaveSpec = "@every 1m"

// AutosaveService periodically writes every live session to storage.
type AutosaveService struct {
	registry *SessionRegistry
	spec     string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAutosaveService creates a new autosave service.
func NewAutosaveService(
	registry *SessionRegistry,
	spec string,
	timeout time.Duration,
	logger *zap.Logger,
) *AutosaveService {
	if spec == "" {
		spec = DefaultAutosaveSpec
	}
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &AutosaveService{
		registry: registry,
		spec:     spec,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start runs the save schedule until ctx is done, then saves once more.
func (s *AutosaveService) Start(ctx context.Context) error {
	s.logger.Info("autosave service started", zap.String("spec", s.spec))

	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.spec, func() {
		saved := s.SaveAll(ctx)
		s.logger.Debug("autosave finished", zap.Int("saved", saved))
	})
	if err != nil {
		s.logger.Error("failed to add cron job", zap.Error(err))
		return err
	}

	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()
	saved := s.SaveAll(context.Background())
	s.logger.Info("autosave service stopped", zap.Int("saved", saved))
	return nil
}

// SaveAll writes all live sessions concurrently and returns how many
// succeeded. Memory only sessions first retry loading their stored progress
// and are skipped while it stays unavailable.
func (s *AutosaveService) SaveAll(ctx context.Context) int {
	const maxConcurrent = 10
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	saved := 0

	for _, session := range s.registry.Sessions() {
		session := session
		wg.Add(1)
		sem <- struct{}{} // Acquire

		go func() {
			defer wg.Done()
			defer func() { <-sem }() // Release

			saveCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := session.Recover(saveCtx); err != nil {
				s.logger.Warn("stored progress still unavailable",
					zap.String("session_id", session.SessionID()),
					zap.Error(err))
				return
			}

			if err := session.Persist(saveCtx); err != nil {
				s.logger.Warn("failed to save session",
					zap.String("session_id", session.SessionID()),
					zap.Error(err))
				return
			}

			mu.Lock()
			saved++
			mu.Unlock()
		}()
	}

	wg.Wait()
	return saved
}
