package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "TELEGRAM_API_TOKEN", "DATABASE_URL", "STORAGE_DRIVER", "CATALOG_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "assets/data/asma-ul-husna.json", cfg.CatalogPath)
	assert.Equal(t, Storage{
		Driver:     DriverSQLite,
		SQLitePath: "data/progress.db",
		Timeout:    5 * time.Second,
		Autosave:   "@every 1m",
	}, cfg.Storage)
	assert.Equal(t, 20, cfg.DB.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.DB.MaxConnLifetime)
	assert.Equal(t, Engine{
		RequeueLookahead:     5,
		QuizLength:           10,
		PointsPerQuestion:    50,
		RecentExclusion:      5,
		QuizKind:             "mixed",
		MarkMemorizedOnKnown: true,
		SearchHistorySize:    10,
	}, cfg.Engine)

	_, err = cfg.BotToken()
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
	_, err = cfg.DB.DSN()
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TELEGRAM_API_TOKEN", "123:abc")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("STORAGE_TIMEOUT", "250ms")
	t.Setenv("ENGINE_QUIZ_LENGTH", "20")
	t.Setenv("ENGINE_QUIZ_KIND", "fill_blank")
	t.Setenv("ENGINE_MARK_MEMORIZED_ON_KNOWN", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.Timeout)
	assert.Equal(t, 20, cfg.Engine.QuizLength)
	assert.Equal(t, "fill_blank", cfg.Engine.QuizKind)
	assert.False(t, cfg.Engine.MarkMemorizedOnKnown)

	token, err := cfg.BotToken()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", token)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("PostgresWithoutURL", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "redis")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("UnknownQuizKind", func(t *testing.T) {
		t.Setenv("ENGINE_QUIZ_KIND", "essay")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
