package config

import (
	"os"
	"strconv"
)

type BillingServiceConfig struct {
	Port        string
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	BillingCfg  BillingConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BillingConfig carries the tunable billing defaults. Per-request options can
// override MinDaysBetweenBills and DueDays; the export rate is global.
type BillingConfig struct {
	MinDaysBetweenBills int
	DueDays             int
	SolarExportRate     float64
	RunIntervalMinutes  int
	RunWorkers          int
}

func New() *BillingServiceConfig {
	return &BillingServiceConfig{
		Port: getEnvOrDefault("PORT", "8086"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "billing_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		BillingCfg: BillingConfig{
			MinDaysBetweenBills: getEnvIntOrDefault("BILLING_MIN_DAYS_BETWEEN_BILLS", 25),
			DueDays:             getEnvIntOrDefault("BILLING_DUE_DAYS", 15),
			SolarExportRate:     getEnvFloatOrDefault("BILLING_EXPORT_RATE", 7.00),
			RunIntervalMinutes:  getEnvIntOrDefault("BILLING_RUN_INTERVAL_MINUTES", 0),
			RunWorkers:          getEnvIntOrDefault("BILLING_RUN_WORKERS", 4),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
