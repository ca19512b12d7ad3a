package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present. A missing file is not
// fatal; the caller decides whether to log it.
func LoadEnv() error {
	return godotenv.Load()
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv parses values like "250ms" or "1h".
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetListEnv splits a comma separated variable, dropping empty items.
func GetListEnv(key string) []string {
	raw := GetEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

const defaultJWTSecret = "gamewallet-dev-secret"

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN renders the key/value connection string understood by the pgx driver.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	EntryTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Buffer  int
}

type LedgerConfig struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
	// NegativeRollbackTenants may end up with a negative balance after a
	// rollback.
	NegativeRollbackTenants []string
}

type Config struct {
	Env           string
	Port          string
	StorageDriver string
	JWTSecret     string
	Database      DatabaseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Ledger        LedgerConfig
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects development shortcuts in production.
func (c Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.StorageDriver == "memory" {
		return errors.New("memory storage is not allowed in production")
	}
	return nil
}

// Load reads the service configuration from the environment.
func Load() Config {
	return Config{
		Env:           GetEnv("ENV", "development"),
		Port:          GetEnv("PORT", "3000"),
		StorageDriver: GetEnv("STORAGE_DRIVER", "postgres"),
		JWTSecret:     GetEnv("JWT_SECRET", defaultJWTSecret),
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "gamewallet"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  GetBoolEnv("REDIS_ENABLED", true),
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
			EntryTTL: GetDurationEnv("REDIS_ENTRY_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: GetListEnv("KAFKA_BROKERS"),
			Topic:   GetEnv("KAFKA_AUDIT_TOPIC", "wallet.audit"),
			Buffer:  GetIntEnv("KAFKA_AUDIT_BUFFER", 1024),
		},
		Ledger: LedgerConfig{
			MaxAttempts:             GetIntEnv("LEDGER_TX_MAX_ATTEMPTS", 5),
			RetryBaseDelay:          GetDurationEnv("LEDGER_TX_RETRY_DELAY", 20*time.Millisecond),
			NegativeRollbackTenants: GetListEnv("LEDGER_NEGATIVE_ROLLBACK_TENANTS"),
		},
	}
}
