// Package config provides configuration for the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDBUriNotSetInProduction is returned when DB_URI is not set in production. We need this to prevent accidental
	// production deployments without a database.
	ErrDBUriNotSetInProduction = errors.New("DB_URI must be set in production")
	// ErrInvalidQuestionsPerPage is returned when QUESTIONS_PER_PAGE is not a positive integer.
	ErrInvalidQuestionsPerPage = errors.New("QUESTIONS_PER_PAGE must be positive")
)

const (
	// AppEnvironmentDefault is the default application environment.
	AppEnvironmentDefault = "development"
	// AppEnvironmentProduction is the production application environment.
	AppEnvironmentProduction = "production"
	// HostDefault is the default host to listen on. Can be an IP address or hostname.
	HostDefault = "localhost"
	// PortDefault is the default port to listen on.
	PortDefault = "8080"

	// DBDriverDefault is the default database driver. Currently, only sqlite is supported.
	DBDriverDefault = "sqlite"
	// DBURIDefault is the default database URI. Default is trivia.sqlite in the current directory.
	DBURIDefault = "file:trivia.sqlite?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	// DBMaxOpenConnsDefault is the default maximum number of open database connections.
	DBMaxOpenConnsDefault = 10
	// DBMaxIdleConnsDefault is the default maximum number of idle database connections.
	DBMaxIdleConnsDefault = 10
	// DBConnMaxLifetimeDefault is the default maximum lifetime of a database connection.
	DBConnMaxLifetimeDefault = 5 * time.Minute

	// LogLevelDefault is the default log level.
	LogLevelDefault = slog.LevelInfo

	// QuestionsPerPageDefault is the page size of GET /questions.
	QuestionsPerPageDefault = 10
	// CORSAllowedOriginsDefault allows every origin.
	CORSAllowedOriginsDefault = "*"

	// CategoryCacheTTLDefault is how long categories stay in Redis when REDIS_ADDR is set.
	CategoryCacheTTLDefault = 5 * time.Minute
)

// Config represents the application configuration.
type Config struct {
	AppEnvironment string

	Host string
	Port string

	DBDriver string
	DBURI    string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	LogLevel slog.Level

	QuestionsPerPage   int
	CORSAllowedOrigins []string

	// RedisAddr enables the category cache when not empty.
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CategoryCacheTTL time.Duration

	// SeedFile is a YAML file with categories and questions loaded on startup.
	SeedFile string

	// ClientDir serves the quiz client from disk instead of the embedded files. Ignored in production.
	ClientDir string
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnvironment == AppEnvironmentProduction
}

// Parse parses environment variables into the config.
//
//nolint:cyclop,funlen // A flat list of keys is easier to follow than a table here.
func Parse(getenv func(string) string) (*Config, error) {
	c := Config{
		AppEnvironment:     AppEnvironmentDefault,
		Host:               HostDefault,
		Port:               PortDefault,
		DBDriver:           DBDriverDefault,
		DBURI:              DBURIDefault,
		DBMaxOpenConns:     DBMaxOpenConnsDefault,
		DBMaxIdleConns:     DBMaxIdleConnsDefault,
		DBConnMaxLifetime:  DBConnMaxLifetimeDefault,
		LogLevel:           LogLevelDefault,
		QuestionsPerPage:   QuestionsPerPageDefault,
		CORSAllowedOrigins: []string{CORSAllowedOriginsDefault},
		CategoryCacheTTL:   CategoryCacheTTLDefault,
	}
	// Overwrite defaults with environment variables.
	if val := getenv("APP_ENV"); val != "" {
		c.AppEnvironment = val
	}
	if val := getenv("HOST"); val != "" {
		c.Host = val
	}
	if val := getenv("PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("DB_URI"); val != "" {
		c.DBURI = val
	}
	if val := getenv("REDIS_ADDR"); val != "" {
		c.RedisAddr = val
	}
	if val := getenv("REDIS_PASSWORD"); val != "" {
		c.RedisPassword = val
	}
	if val := getenv("SEED_FILE"); val != "" {
		c.SeedFile = val
	}
	if val := getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		c.CORSAllowedOrigins = splitList(val)
	}
	if val := getenv("CLIENT_DIR"); val != "" && c.AppEnvironment != AppEnvironmentProduction {
		c.ClientDir = val
	}

	// Strict validation for types
	if val := getenv("DB_MAX_OPEN_CONNS"); val != "" {
		var err error
		c.DBMaxOpenConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_MAX_IDLE_CONNS"); val != "" {
		var err error
		c.DBMaxIdleConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_CONN_MAX_LIFETIME"); val != "" {
		var err error
		c.DBConnMaxLifetime, err = time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %q, err: %w", val, err)
		}
	}

	if val := getenv("LOG_LEVEL"); val != "" {
		if err := c.LogLevel.UnmarshalText([]byte(val)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %q, err: %w", val, err)
		}
	}

	if val := getenv("QUESTIONS_PER_PAGE"); val != "" {
		var err error
		c.QuestionsPerPage, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid QUESTIONS_PER_PAGE: %q, err: %w", val, err)
		}
		if c.QuestionsPerPage < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidQuestionsPerPage, c.QuestionsPerPage)
		}
	}

	if val := getenv("REDIS_DB"); val != "" {
		var err error
		c.RedisDB, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %q, err: %w", val, err)
		}
	}

	if val := getenv("CATEGORY_CACHE_TTL"); val != "" {
		var err error
		c.CategoryCacheTTL, err = time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid CATEGORY_CACHE_TTL: %q, err: %w", val, err)
		}
	}

	// Mandatory fields
	if c.AppEnvironment == AppEnvironmentProduction && getenv("DB_URI") == "" {
		return nil, ErrDBUriNotSetInProduction
	}

	return &c, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
