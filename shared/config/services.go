package config

import (
	"fmt"
	"time"
)

// KafkaConfig configures the audit event stream
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	GroupID   string
	Workers   int
	QueueSize int
}

// GetKafkaConfig returns Kafka configuration from environment variables
func GetKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Enabled:   getEnvBool("KAFKA_ENABLED", false),
		Brokers:   getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		Topic:     getEnv("KAFKA_AUDIT_TOPIC", "lease-audit"),
		GroupID:   getEnv("KAFKA_GROUP_ID", "leasectl"),
		Workers:   getEnvInt("KAFKA_WORKERS", 4),
		QueueSize: getEnvInt("KAFKA_QUEUE_SIZE", 1000),
	}
}

// RedisConfig configures the distributed unit lock
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// GetRedisConfig returns Redis configuration from environment variables
func GetRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:  getEnvBool("REDIS_ENABLED", false),
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		LockTTL:  getEnvDuration("REDIS_LOCK_TTL", 10*time.Second),
	}
}

// Addr returns host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LeaseConfig holds lifecycle tuning
type LeaseConfig struct {
	// WarningDays is how close to its end date a contract turns to warning
	WarningDays int
}

// GetLeaseConfig returns lease configuration from environment variables
func GetLeaseConfig() *LeaseConfig {
	return &LeaseConfig{
		WarningDays: getEnvInt("LEASE_WARNING_DAYS", 30),
	}
}
