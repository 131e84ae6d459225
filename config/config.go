package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Planner  PlannerConfig
	Ollama   OllamaConfig
	RAG      RAGConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Calendar CalendarConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"SERVER_HOST"`
	Port            int           `mapstructure:"SERVER_PORT"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
}

// PlannerConfig selects the plan generation backend.
type PlannerConfig struct {
	DefaultUserID    string `mapstructure:"DEFAULT_USER_ID"`
	Backend          string `mapstructure:"PLANNER_BACKEND"` // "mock" or "ollama"
	Fallback         bool   `mapstructure:"PLANNER_FALLBACK"`
	SearchWindowDays int    `mapstructure:"PLANNER_SEARCH_WINDOW_DAYS"`
}

// OllamaConfig holds the external text-generation endpoint settings.
type OllamaConfig struct {
	Host    string        `mapstructure:"OLLAMA_HOST"`
	Model   string        `mapstructure:"OLLAMA_MODEL"`
	Timeout time.Duration `mapstructure:"OLLAMA_TIMEOUT"`
}

// RAGConfig controls the retrieval store. An empty Dir disables it.
type RAGConfig struct {
	Dir         string `mapstructure:"RAG_DIR"`
	Glob        string `mapstructure:"RAG_GLOB"`
	Dim         int    `mapstructure:"RAG_DIM"`
	Accelerated bool   `mapstructure:"RAG_ACCELERATED"`
	Workers     int    `mapstructure:"RAG_WORKERS"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `mapstructure:"STORE_DRIVER"` // "memory" or "postgres"
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
	Migrate  bool   `mapstructure:"POSTGRES_MIGRATE"`
}

// RedisConfig holds Redis connection settings for the plan cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"REDIS_ENABLED"`
	Host     string        `mapstructure:"REDIS_HOST"`
	Port     int           `mapstructure:"REDIS_PORT"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	PoolSize int           `mapstructure:"REDIS_POOL_SIZE"`
	PlanTTL  time.Duration `mapstructure:"REDIS_PLAN_TTL"`
}

// RabbitMQConfig holds the booking event broker settings. An empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL   string `mapstructure:"RABBITMQ_URL"`
	Queue string `mapstructure:"RABBITMQ_QUEUE"`
}

// CalendarConfig controls demo calendar seeding for the default user.
type CalendarConfig struct {
	Seed bool `mapstructure:"CALENDAR_SEED"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and an optional
// .env file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing .env is fine; env vars are used instead.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
	}

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:            v.GetString("SERVER_HOST"),
		Port:            v.GetInt("SERVER_PORT"),
		ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
	}

	// ── Planner ─────────────────────────────────────────
	cfg.Planner = PlannerConfig{
		DefaultUserID:    v.GetString("DEFAULT_USER_ID"),
		Backend:          strings.ToLower(strings.TrimSpace(v.GetString("PLANNER_BACKEND"))),
		Fallback:         v.GetBool("PLANNER_FALLBACK"),
		SearchWindowDays: v.GetInt("PLANNER_SEARCH_WINDOW_DAYS"),
	}
	cfg.Ollama = OllamaConfig{
		Host:    v.GetString("OLLAMA_HOST"),
		Model:   v.GetString("OLLAMA_MODEL"),
		Timeout: v.GetDuration("OLLAMA_TIMEOUT"),
	}

	// ── Retrieval ───────────────────────────────────────
	cfg.RAG = RAGConfig{
		Dir:         v.GetString("RAG_DIR"),
		Glob:        v.GetString("RAG_GLOB"),
		Dim:         v.GetInt("RAG_DIM"),
		Accelerated: v.GetBool("RAG_ACCELERATED"),
		Workers:     v.GetInt("RAG_WORKERS"),
	}

	// ── Persistence ─────────────────────────────────────
	cfg.Store = StoreConfig{
		Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
	}
	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("POSTGRES_HOST"),
		Port:     v.GetInt("POSTGRES_PORT"),
		User:     v.GetString("POSTGRES_USER"),
		Password: v.GetString("POSTGRES_PASSWORD"),
		DBName:   v.GetString("POSTGRES_DB"),
		SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: v.GetInt32("POSTGRES_MIN_CONNS"),
		Migrate:  v.GetBool("POSTGRES_MIGRATE"),
	}
	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		PlanTTL:  v.GetDuration("REDIS_PLAN_TTL"),
	}

	// ── Messaging ───────────────────────────────────────
	cfg.RabbitMQ = RabbitMQConfig{
		URL:   v.GetString("RABBITMQ_URL"),
		Queue: v.GetString("RABBITMQ_QUEUE"),
	}

	cfg.Calendar = CalendarConfig{Seed: v.GetBool("CALENDAR_SEED")}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	// Leaves room for one OLLAMA_TIMEOUT call plus the fallback.
	v.SetDefault("SERVER_WRITE_TIMEOUT", "45s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DEFAULT_USER_ID", "demo-user")
	v.SetDefault("PLANNER_BACKEND", "mock")
	v.SetDefault("PLANNER_FALLBACK", true)
	v.SetDefault("PLANNER_SEARCH_WINDOW_DAYS", 90)

	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("OLLAMA_MODEL", "llama3")
	v.SetDefault("OLLAMA_TIMEOUT", "30s")

	v.SetDefault("RAG_DIR", "")
	v.SetDefault("RAG_GLOB", "*.txt")
	v.SetDefault("RAG_DIM", 128)
	v.SetDefault("RAG_ACCELERATED", true)
	v.SetDefault("RAG_WORKERS", 0)

	v.SetDefault("STORE_DRIVER", "memory")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "planner")
	v.SetDefault("POSTGRES_PASSWORD", "planner_secret")
	v.SetDefault("POSTGRES_DB", "tripplanner")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_PLAN_TTL", "10m")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "trip.booked")

	v.SetDefault("CALENDAR_SEED", true)
}

func (c *Config) validate() error {
	switch c.Planner.Backend {
	case "mock", "ollama":
	default:
		return fmt.Errorf("config: PLANNER_BACKEND must be mock or ollama, got %q", c.Planner.Backend)
	}
	switch c.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("config: STORE_DRIVER must be memory or postgres, got %q", c.Store.Driver)
	}
	if c.Planner.SearchWindowDays < 1 {
		return fmt.Errorf("config: PLANNER_SEARCH_WINDOW_DAYS must be positive")
	}
	if c.RAG.Dim < 1 {
		return fmt.Errorf("config: RAG_DIM must be positive")
	}
	return nil
}
