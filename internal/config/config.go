package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidConfig               = errors.New("invalid configuration")
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"`          // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`            // Telegram API token loaded from environment
	CatalogPath      string  `mapstructure:"catalog_path"` // path to the item catalog (JSON, CSV or XLSX)
	Storage          Storage `mapstructure:"storage"`      // progress storage section
	DB               DB      `mapstructure:"database"`     // database configuration section
	Engine           Engine  `mapstructure:"engine"`       // study engine tuning
}

// Storage selects and configures the key-value store for progress snapshots.
type Storage struct {
	Driver     string        `mapstructure:"driver"`      // memory, sqlite or postgres
	SQLitePath string        `mapstructure:"sqlite_path"` // database file for the sqlite driver
	Timeout    time.Duration `mapstructure:"timeout"`     // bound for a single snapshot read or write
	Autosave   string        `mapstructure:"autosave"`    // cron spec of periodic saves
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Engine holds the study session constants.
type Engine struct {
	RequeueLookahead     int    `mapstructure:"requeue_lookahead"`       // cards until an unknown card returns
	QuizLength           int    `mapstructure:"quiz_length"`             // questions per quiz round
	PointsPerQuestion    int    `mapstructure:"points_per_question"`     // score of a correct answer
	RecentExclusion      int    `mapstructure:"recent_exclusion"`        // recent quiz targets not asked again
	QuizKind             string `mapstructure:"quiz_kind"`               // multiple_choice, fill_blank or mixed
	MarkMemorizedOnKnown bool   `mapstructure:"mark_memorized_on_known"` // a known flashcard marks the item memorized
	SearchHistorySize    int    `mapstructure:"search_history_size"`     // recent searches kept per learner
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// BotToken returns the Telegram API token if it is configured.
func (c *Config) BotToken() (string, error) {
	if c.TelegramAPIToken == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return c.TelegramAPIToken, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("catalog_path", "assets/data/asma-ul-husna.json")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "data/progress.db")
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("storage.autosave", "@every 1m")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("engine.requeue_lookahead", 5)
	v.SetDefault("engine.quiz_length", 10)
	v.SetDefault("engine.points_per_question", 50)
	v.SetDefault("engine.recent_exclusion", 5)
	v.SetDefault("engine.quiz_kind", "mixed")
	v.SetDefault("engine.mark_memorized_on_known", true)
	v.SetDefault("engine.search_history_size", 10)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables. They are checked by
	// the components that need them.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DB.URL == "" {
			return ErrMissingEnvironmentVariables
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Engine.QuizKind {
	case "multiple_choice", "fill_blank", "mixed":
	default:
		return fmt.Errorf("%w: unknown quiz kind %q", ErrInvalidConfig, c.Engine.QuizKind)
	}

	if c.Engine.QuizLength <= 0 || c.Engine.RequeueLookahead <= 0 {
		return fmt.Errorf("%w: quiz length and requeue lookahead must be positive", ErrInvalidConfig)
	}

	return nil
}
