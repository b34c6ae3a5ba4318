package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file - ignore error if file doesn't exist
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: .env file not found or could not be loaded: %v\n", err)
	}
}

type Config struct {
	Primary       PrimaryConfig
	Database      DatabaseConfig
	Server        ServerConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Observability *ObservabilityConfig
	Commission    CommissionConfig
	Gateway       GatewayConfig
}

type PrimaryConfig struct {
	Env string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	IdleTimeout        int
	CORSAllowedOrigins []string
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
	KeyPrefix    string
}

type KafkaConfig struct {
	Brokers []string
}

// CommissionConfig carries the money-split parameters. Rates are basis
// points so the split stays in integer arithmetic end to end.
type CommissionConfig struct {
	PlatformRateBps   int64
	BrokerShareBps    int64
	CommissionDueDays int
}

// GatewayConfig covers outbound provider calls, not credentials; those live
// per payer in the gateway_configs table.
type GatewayConfig struct {
	CallTimeout     time.Duration
	RazorpayBaseURL string
	StripeBaseURL   string
	PaypalBaseURL   string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	Logging      LoggingConfig
	NewRelic     NewRelicConfig
	HealthChecks HealthChecksConfig
}

type LoggingConfig struct {
	Level              string
	Format             string
	SlowQueryThreshold time.Duration
}

type NewRelicConfig struct {
	LicenseKey                string
	AppLogForwardingEnabled   bool
	DistributedTracingEnabled bool
	DebugLogging              bool
}

type HealthChecksConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
	Checks   []string
}

// Helper functions for parsing env vars
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level == "" {
		switch c.Environment {
		case "production":
			return "info"
		case "development":
			return "debug"
		default:
			return "info"
		}
	}
	return c.Logging.Level
}

func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Primary: PrimaryConfig{
			Env: getEnv("VILLAPAY_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("VILLAPAY_DB_HOST", "localhost"),
			Port:            getEnvInt("VILLAPAY_DB_PORT", 5432),
			User:            getEnv("VILLAPAY_DB_USER", "villapay"),
			Password:        getEnv("VILLAPAY_DB_PASSWORD", ""),
			Name:            getEnv("VILLAPAY_DB_NAME", "villapay"),
			SSLMode:         getEnv("VILLAPAY_DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("VILLAPAY_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("VILLAPAY_DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvInt("VILLAPAY_DB_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("VILLAPAY_DB_CONN_MAX_IDLE_TIME", 60),
		},
		Server: ServerConfig{
			Port:               getEnv("VILLAPAY_SERVER_PORT", "8080"),
			ReadTimeout:        getEnvInt("VILLAPAY_SERVER_READ_TIMEOUT", 30),
			WriteTimeout:       getEnvInt("VILLAPAY_SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:        getEnvInt("VILLAPAY_SERVER_IDLE_TIMEOUT", 60),
			CORSAllowedOrigins: getEnvSlice("VILLAPAY_SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Address:      getEnv("VILLAPAY_REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnv("VILLAPAY_REDIS_PASSWORD", ""),
			DB:           getEnvInt("VILLAPAY_REDIS_DB", 0),
			PoolSize:     getEnvInt("VILLAPAY_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("VILLAPAY_REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvDuration("VILLAPAY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("VILLAPAY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("VILLAPAY_REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      getEnvDuration("VILLAPAY_REDIS_LOCK_TTL", 30*time.Second),
			KeyPrefix:    getEnv("VILLAPAY_REDIS_KEY_PREFIX", "villapay:"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("VILLAPAY_KAFKA_BROKERS", []string{"localhost:9092"}),
		},
		Commission: CommissionConfig{
			PlatformRateBps:   getEnvInt64("VILLAPAY_PLATFORM_RATE_BPS", 1000),
			BrokerShareBps:    getEnvInt64("VILLAPAY_BROKER_SHARE_BPS", 2000),
			CommissionDueDays: getEnvInt("VILLAPAY_COMMISSION_DUE_DAYS", 30),
		},
		Gateway: GatewayConfig{
			CallTimeout:     getEnvDuration("VILLAPAY_GATEWAY_CALL_TIMEOUT", 5*time.Second),
			RazorpayBaseURL: getEnv("VILLAPAY_RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
			StripeBaseURL:   getEnv("VILLAPAY_STRIPE_BASE_URL", "https://api.stripe.com/v1"),
			PaypalBaseURL:   getEnv("VILLAPAY_PAYPAL_BASE_URL", "https://api-m.paypal.com"),
		},
		Observability: &ObservabilityConfig{
			ServiceName: "Villapay",
			Environment: getEnv("VILLAPAY_ENV", "development"),
			Logging: LoggingConfig{
				Level:              getEnv("VILLAPAY_LOG_LEVEL", "debug"),
				Format:             getEnv("VILLAPAY_LOG_FORMAT", "console"),
				SlowQueryThreshold: getEnvDuration("VILLAPAY_LOG_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			},
			NewRelic: NewRelicConfig{
				LicenseKey:                getEnv("VILLAPAY_NEWRELIC_LICENSE_KEY", ""),
				AppLogForwardingEnabled:   getEnvBool("VILLAPAY_NEWRELIC_LOG_FORWARDING", true),
				DistributedTracingEnabled: getEnvBool("VILLAPAY_NEWRELIC_DISTRIBUTED_TRACING", true),
				DebugLogging:              getEnvBool("VILLAPAY_NEWRELIC_DEBUG", false),
			},
			HealthChecks: HealthChecksConfig{
				Enabled:  getEnvBool("VILLAPAY_HEALTHCHECK_ENABLED", true),
				Interval: getEnvDuration("VILLAPAY_HEALTHCHECK_INTERVAL", 30*time.Second),
				Timeout:  getEnvDuration("VILLAPAY_HEALTHCHECK_TIMEOUT", 5*time.Second),
				Checks:   getEnvSlice("VILLAPAY_HEALTHCHECK_CHECKS", []string{"database", "redis"}),
			},
		},
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("VILLAPAY_DB_HOST is required")
	}
	if cfg.Database.Name == "" {
		return nil, fmt.Errorf("VILLAPAY_DB_NAME is required")
	}
	if cfg.Commission.PlatformRateBps < 0 || cfg.Commission.PlatformRateBps > 10000 {
		return nil, fmt.Errorf("VILLAPAY_PLATFORM_RATE_BPS must be between 0 and 10000")
	}
	if cfg.Commission.BrokerShareBps < 0 || cfg.Commission.BrokerShareBps > 10000 {
		return nil, fmt.Errorf("VILLAPAY_BROKER_SHARE_BPS must be between 0 and 10000")
	}

	return cfg, nil
}
