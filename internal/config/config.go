package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the process configuration, read from the environment (and a
// .env file when present).
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DatabaseDriver string
	Postgres       PostgresConfig
	SQLitePath     string

	KafkaBrokers []string
	KafkaTopic   string

	RedisURL     string
	RedisChannel string

	LogLevel  slog.Level
	LogFormat string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func (p PostgresConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     p.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// PostgresFromEnv reads the POSTGRES_* variables, defaulting host and port
// to localhost:5432.
func PostgresFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     envString("POSTGRES_HOST", "localhost"),
		Port:     envString("POSTGRES_PORT", "5432"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("POSTGRES_DB"),
	}
}

// LoadEnv reads .env into the environment if the file exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
}

func Load() (Config, error) {
	LoadEnv()

	cfg := Config{
		HTTPAddr:        envString("HTTP_ADDR", "0.0.0.0:8080"),
		ShutdownTimeout: 30 * time.Second,
		DatabaseDriver:  strings.ToLower(envString("DATABASE_DRIVER", DriverPostgres)),
		Postgres:        PostgresFromEnv(),
		SQLitePath:      envString("SQLITE_PATH", "polls.db"),
		KafkaBrokers:    envList("KAFKA_BROKERS"),
		KafkaTopic:      envString("KAFKA_TOPIC", "polls.votes"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisChannel:    envString("REDIS_CHANNEL", "polls:votes"),
		LogFormat:       strings.ToLower(envString("LOG_FORMAT", "text")),
	}

	if raw := os.Getenv("SHUTDOWN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envString("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.Postgres.User == "" || c.Postgres.DBName == "" {
			return errors.New("POSTGRES_USER and POSTGRES_DB are required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger described by the config.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func envString(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envList(name string) []string {
	var values []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}
