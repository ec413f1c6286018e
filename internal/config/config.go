package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string

	// Server
	ApiPort        string
	ServiceApiPort string

	// AWS S3
	AwsAccessKeyID        string
	AwsSecretAccessKey    string
	AwsRegion             string
	AwsS3Bucket           string
	ContractArchivePrefix string

	// Lifecycle
	ConflictMaxRetries int
	VisitDayStart      string
	VisitDayEnd        string
	VisitSlotMinutes   int
	ContractExpiryCron string

	// Notifications
	NotificationInboxSize int
	NotificationInboxTTL  time.Duration
	NotificationLogFile   string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Default returns a configuration suitable for tests and local tooling.
// It does not read the environment.
func Default() *Config {
	return &Config{
		RedisAddr:               "localhost:6379",
		ApiPort:                 "8080",
		ServiceApiPort:          "12345",
		ContractArchivePrefix:   "contracts/",
		ConflictMaxRetries:      3,
		VisitDayStart:           "09:00",
		VisitDayEnd:             "18:00",
		VisitSlotMinutes:        30,
		ContractExpiryCron:      "@hourly",
		NotificationInboxSize:   200,
		NotificationInboxTTL:    30 * 24 * time.Hour,
		AppName:                 "Rentals",
		RateLimitSoftBucketSize: 2,
		RateLimitSoftRefillRate: 1,
		RateLimitHardBucketSize: 8,
		RateLimitHardRefillRate: 4,
	}
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := Default()
	cfg.RunMode = runMode

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key string, defaultValue int) (int, error) {
		n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "")
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", cfg.ApiPort)
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", cfg.ServiceApiPort)
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ContractArchivePrefix = getEnv("CONTRACT_ARCHIVE_PREFIX", cfg.ContractArchivePrefix)
	cfg.VisitDayStart = getEnv("VISIT_DAY_START", cfg.VisitDayStart)
	cfg.VisitDayEnd = getEnv("VISIT_DAY_END", cfg.VisitDayEnd)
	cfg.ContractExpiryCron = getEnv("CONTRACT_EXPIRY_CRON", cfg.ContractExpiryCron)
	cfg.NotificationLogFile = getEnv("NOTIFICATION_LOG_FILE", "")
	cfg.AppName = getEnv("APP_NAME", cfg.AppName)

	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ConflictMaxRetries, err = getInt("CONFLICT_MAX_RETRIES", cfg.ConflictMaxRetries); err != nil {
		return nil, err
	}
	if cfg.ConflictMaxRetries < 0 {
		return nil, fmt.Errorf("invalid CONFLICT_MAX_RETRIES: must not be negative")
	}
	if cfg.VisitSlotMinutes, err = getInt("VISIT_SLOT_MINUTES", cfg.VisitSlotMinutes); err != nil {
		return nil, err
	}
	if cfg.VisitSlotMinutes <= 0 {
		return nil, fmt.Errorf("invalid VISIT_SLOT_MINUTES: must be positive")
	}
	if cfg.NotificationInboxSize, err = getInt("NOTIFICATION_INBOX_SIZE", cfg.NotificationInboxSize); err != nil {
		return nil, err
	}
	inboxTTLHours, err := getInt("NOTIFICATION_INBOX_TTL_HOURS", int(cfg.NotificationInboxTTL/time.Hour))
	if err != nil {
		return nil, err
	}
	cfg.NotificationInboxTTL = time.Duration(inboxTTLHours) * time.Hour

	// Rate Limiting
	if cfg.RateLimitSoftBucketSize, err = getInt("RATE_LIMIT_SOFT_BUCKET_SIZE", cfg.RateLimitSoftBucketSize); err != nil {
		return nil, err
	}
	if cfg.RateLimitSoftRefillRate, err = getInt("RATE_LIMIT_SOFT_REFILL_RATE", cfg.RateLimitSoftRefillRate); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardBucketSize, err = getInt("RATE_LIMIT_HARD_BUCKET_SIZE", cfg.RateLimitHardBucketSize); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardRefillRate, err = getInt("RATE_LIMIT_HARD_REFILL_RATE", cfg.RateLimitHardRefillRate); err != nil {
		return nil, err
	}

	return cfg, nil
}
