package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendSanity   = "sanity"
	BackendPostgres = "postgres"
)

// Upsert strategies
const (
	StrategyReplace      = "replace"
	StrategyDeleteCreate = "delete-create"
)

// DefaultEnvFiles are the dotenv locations tried, in order, when Resolve
// is given no candidates.
var DefaultEnvFiles = []string{".env.local", "../.env.local", ".env"}

// ConfigError reports a missing or invalid configuration value. It is the
// only error that aborts an import before any file is read.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

// Config holds all application configuration
type Config struct {
	// Content store configuration
	Store StoreConfig

	// Import pipeline configuration
	Import ImportConfig

	// Database configuration (postgres backend and run ledger)
	Database DatabaseConfig

	// HTTP server configuration
	Server ServerConfig

	// Logging configuration
	Log LogConfig

	// EnvFile is the dotenv file that was loaded, empty when none was found
	EnvFile string
}

// StoreConfig holds the content store credentials and client settings
type StoreConfig struct {
	Backend    string
	ProjectID  string
	Dataset    string
	Token      string
	APIVersion string
	RateLimit  int // requests per second
	Timeout    time.Duration
}

// ImportConfig holds import pipeline settings
type ImportConfig struct {
	ContentDir    string
	Strategy      string
	DocumentType  string
	DraftIDPrefix string
	RecordRuns    bool
	DryRun        bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadSize   int64 // in bytes
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Override adjusts a loaded configuration before it is validated, e.g. to
// apply command-line flags.
type Override func(*Config)

// Load reads configuration using the default dotenv locations.
func Load() (*Config, error) {
	return Resolve(nil)
}

// Resolve loads the first existing dotenv file from candidates
// (DefaultEnvFiles when empty), reads configuration from environment
// variables, applies overrides and validates the result. Values already
// present in the process environment win over the dotenv file.
func Resolve(candidates []string, overrides ...Override) (*Config, error) {
	cfg, err := read(candidates, overrides)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveDatabase loads configuration like Resolve but only requires the
// database settings. Schema migrations use it; they never touch the store.
func ResolveDatabase(candidates []string, overrides ...Override) (*Config, error) {
	cfg, err := read(candidates, overrides)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Host == "" {
		return nil, &ConfigError{Key: "DB_HOST", Reason: "is required"}
	}

	return cfg, nil
}

func read(candidates []string, overrides []Override) (*Config, error) {
	if len(candidates) == 0 {
		candidates = DefaultEnvFiles
	}

	envFile, err := loadEnvFile(candidates)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", BackendSanity),
			ProjectID:  getEnv("SANITY_PROJECT_ID", os.Getenv("NEXT_PUBLIC_SANITY_PROJECT_ID")),
			Dataset:    getEnv("SANITY_DATASET", getEnv("NEXT_PUBLIC_SANITY_DATASET", "production")),
			Token:      os.Getenv("SANITY_WRITE_TOKEN"),
			APIVersion: getEnv("SANITY_API_VERSION", "2023-10-01"),
			RateLimit:  getIntEnv("STORE_RATE_LIMIT", 25),
			Timeout:    getDurationEnv("STORE_TIMEOUT", 30*time.Second),
		},
		Import: ImportConfig{
			ContentDir:    getEnv("CONTENT_DIR", "sanity/content"),
			Strategy:      getEnv("IMPORT_STRATEGY", StrategyReplace),
			DocumentType:  getEnv("DOCUMENT_TYPE", "policyAnalysis"),
			DraftIDPrefix: getEnv("DRAFT_ID_PREFIX", "drafts."),
			RecordRuns:    getBoolEnv("RECORD_RUNS", false),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", ""),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "article_ingest"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadSize:   getInt64Env("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		EnvFile: envFile,
	}

	for _, override := range overrides {
		override(cfg)
	}

	return cfg, nil
}

// Validate checks that the selected backend has what it needs to write.
func (c *Config) Validate() error {
	switch c.Import.Strategy {
	case StrategyReplace, StrategyDeleteCreate:
	default:
		return &ConfigError{Key: "IMPORT_STRATEGY", Reason: fmt.Sprintf("must be %q or %q, got %q", StrategyReplace, StrategyDeleteCreate, c.Import.Strategy)}
	}

	if c.Import.DocumentType == "" {
		return &ConfigError{Key: "DOCUMENT_TYPE", Reason: "is required"}
	}

	if c.Import.RecordRuns && c.Database.Host == "" {
		return &ConfigError{Key: "DB_HOST", Reason: "is required when RECORD_RUNS is enabled"}
	}

	// A dry run never writes, so no credential is needed.
	if c.Import.DryRun {
		return nil
	}

	switch c.Store.Backend {
	case BackendSanity:
		if c.Store.Token == "" {
			return &ConfigError{Key: "SANITY_WRITE_TOKEN", Reason: "is missing"}
		}
		if c.Store.ProjectID == "" {
			return &ConfigError{Key: "SANITY_PROJECT_ID", Reason: "is missing"}
		}
		if c.Store.Dataset == "" {
			return &ConfigError{Key: "SANITY_DATASET", Reason: "is missing"}
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return &ConfigError{Key: "DB_HOST", Reason: "is required for the postgres backend"}
		}
		if c.Database.Name == "" {
			return &ConfigError{Key: "DB_NAME", Reason: "is required for the postgres backend"}
		}
	default:
		return &ConfigError{Key: "STORE_BACKEND", Reason: fmt.Sprintf("must be %q or %q, got %q", BackendSanity, BackendPostgres, c.Store.Backend)}
	}

	return nil
}

// NeedsDatabase reports whether a PostgreSQL connection must be opened.
func (c *Config) NeedsDatabase() bool {
	return c.Import.RecordRuns || c.StoreNeedsDatabase()
}

// StoreNeedsDatabase reports whether documents are written to PostgreSQL.
func (c *Config) StoreNeedsDatabase() bool {
	return c.Store.Backend == BackendPostgres && !c.Import.DryRun
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// loadEnvFile loads the first candidate that exists. A missing file is not
// an error; an unreadable or malformed one is.
func loadEnvFile(candidates []string) (string, error) {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", &ConfigError{Key: path, Reason: err.Error()}
		}
		if err := godotenv.Load(path); err != nil {
			return "", &ConfigError{Key: path, Reason: fmt.Sprintf("could not be parsed: %v", err)}
		}
		return path, nil
	}
	return "", nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
