// Package bootstrap turns configuration into the runtime components shared
// by the bot and the admin tool.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/config"
	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/infra/postgres"
	"github.com/m760622/snabbaLexinTSR/internal/infra/sqlite"
	"github.com/m760622/snabbaLexinTSR/internal/service"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

// OpenKV opens the progress store selected by cfg.Storage.Driver. The
// returned func releases it.
func OpenKV(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KV, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("progress is kept in memory and lost on restart")
		return storage.NewMemoryStore(), func() {}, nil

	case config.DriverSQLite:
		kv, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("sqlite progress store opened", zap.String("path", cfg.Storage.SQLitePath))

		return kv, func() {
			if err := kv.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}, nil

	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, fmt.Errorf("database url: %w", err)
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		kv := postgres.NewKVStore(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("postgres progress store opened")

		return kv, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Storage.Driver)
}

// EngineConfig maps the engine section of cfg to session settings.
func EngineConfig(cfg *config.Config) service.EngineConfig {
	e := cfg.Engine
	return service.EngineConfig{
		RequeueLookahead:     e.RequeueLookahead,
		QuizLength:           e.QuizLength,
		PointsPerQuestion:    e.PointsPerQuestion,
		RecentExclusion:      e.RecentExclusion,
		QuizKind:             entities.QuestionKind(e.QuizKind),
		MarkMemorizedOnKnown: e.MarkMemorizedOnKnown,
		SearchHistorySize:    e.SearchHistorySize,
		PersistTimeout:       cfg.Storage.Timeout,
	}
}
