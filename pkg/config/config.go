package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by Store.Backend
const (
	BackendWorkbook = "workbook"
	BackendCSV      = "csv"
	BackendSheets   = "sheets"
	BackendMySQL    = "mysql"
	BackendMongoDB  = "mongodb"
	BackendMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Store   StoreConfig
	Run     RunConfig
	Sheets  SheetsConfig
	MySQL   MySQLConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	Webhook WebhookConfig
	Watch   WatchConfig
	Tracing TracingConfig
}

// StoreConfig selects where the stock ledger is read from and written to.
type StoreConfig struct {
	Backend   string
	Input     string
	OutputDir string
	// SchemaFile optionally renames tables and columns (YAML)
	SchemaFile string
}

// RunConfig holds picking run options.
type RunConfig struct {
	Strict  bool
	Verbose bool
	LockTTL time.Duration
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig enables the distributed run lock when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AMQPConfig enables run event publishing when URL is set.
type AMQPConfig struct {
	URL   string
	Queue string
}

// WebhookConfig enables run summary notifications when URL is set.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// WatchConfig holds the inbox polling settings.
type WatchConfig struct {
	Inbox    string
	Schedule string
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance. Callers apply flag overrides and then call
// Validate.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// a missing .env is fine when the environment is set directly
		_ = godotenv.Load()
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:    getenvWithDefault("STOCKPICK_BACKEND", BackendWorkbook),
			Input:      os.Getenv("STOCKPICK_INPUT"),
			OutputDir:  os.Getenv("STOCKPICK_OUTPUT_DIR"),
			SchemaFile: os.Getenv("STOCKPICK_SCHEMA_FILE"),
		},
		Run: RunConfig{
			Strict:  parseBool(os.Getenv("STOCKPICK_STRICT")),
			Verbose: parseBool(os.Getenv("STOCKPICK_VERBOSE")),
			LockTTL: parseDuration(getenvWithDefault("LOCK_TTL", "5m"), 5*time.Minute),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
		},
		MySQL: MySQLConfig{
			DSN:             os.Getenv("MYSQL_DSN"),
			MaxOpenConns:    atoi(getenvWithDefault("MYSQL_MAX_OPEN_CONNS", "10"), 10),
			MaxIdleConns:    atoi(getenvWithDefault("MYSQL_MAX_IDLE_CONNS", "10"), 10),
			ConnMaxLifetime: parseDuration(getenvWithDefault("MYSQL_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stockpick"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoi(getenvWithDefault("REDIS_DB", "0"), 0),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv("AMQP_URL"),
			Queue: getenvWithDefault("AMQP_QUEUE", "stockpick.events"),
		},
		Webhook: WebhookConfig{
			URL:     os.Getenv("WEBHOOK_URL"),
			Timeout: parseDuration(getenvWithDefault("WEBHOOK_TIMEOUT", "10s"), 10*time.Second),
		},
		Watch: WatchConfig{
			Inbox:    os.Getenv("WATCH_INBOX"),
			Schedule: getenvWithDefault("WATCH_SCHEDULE", "@every 1m"),
		},
		Tracing: TracingConfig{
			Enabled: parseBool(os.Getenv("TRACE_ENABLED")),
		},
	}

	return cfg, nil
}

// Validate ensures that the options needed by the selected backend are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.Store.Backend {
	case BackendWorkbook, BackendCSV, BackendMemory:
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided for the sheets backend")
		}
	case BackendMySQL:
		if c.MySQL.DSN == "" {
			return errors.New("MYSQL_DSN must be provided for the mysql backend")
		}
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongodb backend")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Store.Backend)
	}

	if c.Run.LockTTL <= 0 {
		return errors.New("LOCK_TTL must be positive")
	}
	if c.AMQP.URL != "" && c.AMQP.Queue == "" {
		return errors.New("AMQP_QUEUE must not be empty when AMQP_URL is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return d
}
