package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Record store backends
const (
	StorePostgres   = "postgres"
	StoreClickHouse = "clickhouse"
	StoreMemory     = "memory"
)

// SMTP TLS policies
const (
	TLSOpportunistic = "opportunistic"
	TLSMandatory     = "mandatory"
	TLSNone          = "none"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Record storage
	Database    DatabaseConfig
	RecordStore string // postgres, clickhouse, memory
	ClickHouse  ClickHouseConfig

	// Redis
	Redis RedisConfig

	// Outbound mail
	Mail MailConfig

	// Report generation
	Report ReportConfig

	// HTTP API
	APIRateLimit float64 // requests per second, 0 disables
	APIRateBurst int

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ClickHouseConfig holds the columnar record store configuration
type ClickHouseConfig struct {
	DSN string
}

// MailConfig holds SMTP and envelope configuration for report delivery
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	TLSPolicy   string
	FromAddress string
	FromName    string
	Recipients  []string
	SendTimeout time.Duration
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	CatalogPath      string // empty means the embedded catalog
	Schedule         string // cron spec with seconds
	Timezone         string
	TrendWindowDays  int
	BackdatedDays    int
	BackdatedLimit   int
	ChartSampleEvery int
	EmailDetailLimit int
	CacheTTL         time.Duration
	SendLimitPerHour int
}

// Load reads configuration from environment variables
// ⭐ SSOT: only this function calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Record storage
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},
		RecordStore: strings.ToLower(getEnv("RECORD_STORE", StorePostgres)),
		ClickHouse: ClickHouseConfig{
			DSN: getEnv("CLICKHOUSE_DSN", ""),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Outbound mail
		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", "localhost"),
			Port:        getEnvAsInt("SMTP_PORT", 25),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			TLSPolicy:   strings.ToLower(getEnv("SMTP_TLS", TLSOpportunistic)),
			FromAddress: getEnv("MAIL_FROM_ADDRESS", ""),
			FromName:    getEnv("MAIL_FROM_NAME", "Trade Surveillance"),
			Recipients:  getEnvAsList("MAIL_RECIPIENTS"),
			SendTimeout: getEnvAsDuration("MAIL_SEND_TIMEOUT", "30s"),
		},

		// Report generation
		Report: ReportConfig{
			CatalogPath:      getEnv("CATALOG_PATH", ""),
			Schedule:         getEnv("REPORT_SCHEDULE", "0 0 7 * * MON-FRI"),
			Timezone:         getEnv("REPORT_TIMEZONE", "UTC"),
			TrendWindowDays:  getEnvAsInt("REPORT_TREND_DAYS", 120),
			BackdatedDays:    getEnvAsInt("REPORT_BACKDATED_DAYS", 7),
			BackdatedLimit:   getEnvAsInt("REPORT_BACKDATED_LIMIT", 50),
			ChartSampleEvery: getEnvAsInt("CHART_SAMPLE_EVERY", 10),
			EmailDetailLimit: getEnvAsInt("EMAIL_DETAIL_LIMIT", 20),
			CacheTTL:         getEnvAsDuration("REPORT_CACHE_TTL", "0s"),
			SendLimitPerHour: getEnvAsInt("REPORT_SEND_LIMIT", 3),
		},

		// HTTP API
		APIRateLimit: getEnvAsFloat("API_RATE_LIMIT", 10),
		APIRateBurst: getEnvAsInt("API_RATE_BURST", 20),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the report timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.RecordStore {
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when RECORD_STORE=postgres")
		}
	case StoreClickHouse:
		if c.ClickHouse.DSN == "" {
			return fmt.Errorf("CLICKHOUSE_DSN is required when RECORD_STORE=clickhouse")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("RECORD_STORE must be one of: postgres, clickhouse, memory")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Mail.TLSPolicy {
	case TLSOpportunistic, TLSMandatory, TLSNone:
	default:
		return fmt.Errorf("SMTP_TLS must be one of: opportunistic, mandatory, none")
	}

	if c.Report.TrendWindowDays <= 0 {
		return fmt.Errorf("REPORT_TREND_DAYS must be positive")
	}
	if c.Report.BackdatedDays < 2 {
		return fmt.Errorf("REPORT_BACKDATED_DAYS must be at least 2")
	}
	if c.Report.BackdatedLimit <= 0 {
		return fmt.Errorf("REPORT_BACKDATED_LIMIT must be positive")
	}
	if c.Report.ChartSampleEvery <= 0 {
		return fmt.Errorf("CHART_SAMPLE_EVERY must be positive")
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE is invalid: %w", err)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
