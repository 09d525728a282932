package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

type Config struct {
	Server   ServerConfig
	Firebase FirebaseConfig
	Redis    RedisConfig
	Sweep    SweepConfig
	App      AppConfig
}

type ServerConfig struct {
	Port          string `env:"PORT" envDefault:"8080"`
	TriggerSecret string `env:"TRIGGER_SECRET"`
}

type FirebaseConfig struct {
	Backend         string `env:"STORE_BACKEND" envDefault:"firebase"`
	CredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	ProjectID       string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`
}

// RedisConfig configures the invocation ledger. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" envDefault:"0"`
	LedgerTTL time.Duration `env:"LEDGER_TTL" envDefault:"72h"`
}

type SweepConfig struct {
	Schedule         string  `env:"SWEEP_SCHEDULE" envDefault:"0 0 3 * * *"`
	DeletesPerSecond float64 `env:"SWEEP_DELETES_PER_SECOND" envDefault:"20"`
}

type AppConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
	Region      string `env:"REGION" envDefault:"asia-south1"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Firebase.Backend {
	case BackendFirebase:
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFirebase, BackendMemory, c.Firebase.Backend)
	}

	if c.Redis.Addr != "" && c.Redis.LedgerTTL <= 0 {
		return fmt.Errorf("LEDGER_TTL must be positive")
	}

	if c.Sweep.DeletesPerSecond <= 0 {
		return fmt.Errorf("SWEEP_DELETES_PER_SECOND must be positive")
	}

	return nil
}
