package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the billing service
type Config struct {
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Logging    LoggingConfig
	Service    ServiceConfig
	Oracle     OracleConfig
	Staking    StakingConfig
	Settlement SettlementConfig
	Protocol   ProtocolConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver         string // "postgres" or "memory"
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name     string
	Port     string
	GRPCPort string
}

// OracleConfig holds price feed configuration
type OracleConfig struct {
	URL              string
	FeedID           string
	Timeout          time.Duration
	SubscribeMaxAge  time.Duration
	SettlementMaxAge time.Duration
	MinPriceCents    uint64
	MaxPriceCents    uint64
}

// StakingConfig holds liquid staking service configuration.
// Mode is one of "disabled", "simulated" or "http".
type StakingConfig struct {
	Mode    string
	URL     string
	Timeout time.Duration
}

// SettlementConfig holds settlement scheduler configuration
type SettlementConfig struct {
	Enabled      bool
	Interval     time.Duration
	BatchTimeout time.Duration
	BatchSize    int
	Concurrency  int
}

// ProtocolConfig holds the bootstrap values of the protocol aggregate
type ProtocolConfig struct {
	AuthorityID string
	OracleRef   string
	StakingRef  string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config           *Config
	DatabaseConfig   *DatabaseConfig
	KafkaConfig      *KafkaConfig
	LoggingConfig    *LoggingConfig
	ServiceConfig    *ServiceConfig
	OracleConfig     *OracleConfig
	StakingConfig    *StakingConfig
	SettlementConfig *SettlementConfig
	ProtocolConfig   *ProtocolConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:           cfg,
		DatabaseConfig:   &cfg.Database,
		KafkaConfig:      &cfg.Kafka,
		LoggingConfig:    &cfg.Logging,
		ServiceConfig:    &cfg.Service,
		OracleConfig:     &cfg.Oracle,
		StakingConfig:    &cfg.Staking,
		SettlementConfig: &cfg.Settlement,
		ProtocolConfig:   &cfg.Protocol,
	}, nil
}

// Load loads configuration from .env and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:         getEnv("DATABASE_DRIVER", "postgres"),
			Host:           getEnv("DATABASE_HOST", "localhost"),
			Port:           getEnv("DATABASE_PORT", "5432"),
			User:           getEnv("DATABASE_USER", "subly_user"),
			Password:       getEnv("DATABASE_PASSWORD", "subly_pass"),
			DBName:         getEnv("DATABASE_NAME", "subly_db"),
			SSLMode:        getEnv("DATABASE_SSLMODE", "disable"),
			MigrationsPath: getEnv("DATABASE_MIGRATIONS_PATH", "file://migrations"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "subly-settlement-group"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name:     getEnv("SERVICE_NAME", "subly-billing"),
			Port:     getEnv("SERVICE_PORT", "8085"),
			GRPCPort: getEnv("SERVICE_GRPC_PORT", "9095"),
		},
		Oracle: OracleConfig{
			URL:              getEnv("ORACLE_URL", "https://hermes.pyth.network"),
			FeedID:           getEnv("ORACLE_FEED_ID", "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"),
			Timeout:          getEnvDuration("ORACLE_TIMEOUT", 5*time.Second),
			SubscribeMaxAge:  getEnvDuration("ORACLE_SUBSCRIBE_MAX_AGE", time.Hour),
			SettlementMaxAge: getEnvDuration("ORACLE_SETTLEMENT_MAX_AGE", 5*time.Minute),
			MinPriceCents:    getEnvUint("ORACLE_MIN_PRICE_CENTS", 1000),
			MaxPriceCents:    getEnvUint("ORACLE_MAX_PRICE_CENTS", 100000),
		},
		Staking: StakingConfig{
			Mode:    getEnv("STAKING_MODE", "simulated"),
			URL:     getEnv("STAKING_URL", ""),
			Timeout: getEnvDuration("STAKING_TIMEOUT", 10*time.Second),
		},
		Settlement: SettlementConfig{
			Enabled:      getEnvBool("SETTLEMENT_ENABLED", true),
			Interval:     getEnvDuration("SETTLEMENT_INTERVAL", 24*time.Hour),
			BatchTimeout: getEnvDuration("SETTLEMENT_BATCH_TIMEOUT", 10*time.Minute),
			BatchSize:    int(getEnvUint("SETTLEMENT_BATCH_SIZE", 500)),
			Concurrency:  int(getEnvUint("SETTLEMENT_CONCURRENCY", 8)),
		},
		Protocol: ProtocolConfig{
			AuthorityID: getEnv("PROTOCOL_AUTHORITY_ID", ""),
			OracleRef:   getEnv("PROTOCOL_ORACLE_REF", "pyth:SOL/USD"),
			StakingRef:  getEnv("PROTOCOL_STAKING_REF", "jito:stake-pool"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DATABASE_HOST is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DATABASE_USER is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("DATABASE_NAME is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	if c.Protocol.AuthorityID == "" {
		return fmt.Errorf("PROTOCOL_AUTHORITY_ID is required")
	}

	if c.Oracle.MinPriceCents == 0 || c.Oracle.MinPriceCents > c.Oracle.MaxPriceCents {
		return fmt.Errorf("invalid oracle price band [%d, %d]", c.Oracle.MinPriceCents, c.Oracle.MaxPriceCents)
	}

	switch c.Staking.Mode {
	case "disabled", "simulated":
	case "http":
		if c.Staking.URL == "" {
			return fmt.Errorf("STAKING_URL is required when STAKING_MODE=http")
		}
	default:
		return fmt.Errorf("unsupported STAKING_MODE %q", c.Staking.Mode)
	}

	if c.Settlement.Concurrency <= 0 {
		return fmt.Errorf("SETTLEMENT_CONCURRENCY must be positive")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
