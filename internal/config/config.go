package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	MigrateOnStart bool

	ServerPort string

	// LockTimeout bounds the wait for a wallet row lock during a transfer.
	LockTimeout time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BalanceCacheTTL time.Duration

	NatsURL             string
	NatsTransferSubject string

	RecordFailedTransfers bool
	HistoryIncludeSent    bool
}

// Load reads configuration from the environment, after merging a .env file when one
// is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "wallet_ledger"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MigrateOnStart: getEnvBool("DB_MIGRATE_ON_START", false),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		LockTimeout: getEnvDuration("LOCK_TIMEOUT", 5*time.Second),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		BalanceCacheTTL: getEnvDuration("BALANCE_CACHE_TTL", 5*time.Second),

		NatsURL:             os.Getenv("NATS_URL"),
		NatsTransferSubject: getEnv("NATS_TRANSFER_SUBJECT", "wallet.transfer.completed"),

		RecordFailedTransfers: getEnvBool("RECORD_FAILED_TRANSFERS", false),
		HistoryIncludeSent:    getEnvBool("HISTORY_INCLUDE_SENT", false),
	}
}

// GetDBConnectionString returns a lib/pq keyword/value DSN.
func (c *Config) GetDBConnectionString() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
