package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Host         string
	Port         string
	StoreBackend string // "memory", "redis", or "cassandra"
	Redis        RedisConfig
	Cassandra    CassandraConfig
	SessionTTL   time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CassandraConfig holds Cassandra connection configuration
type CassandraConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	Consistency string
	Timeout     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	host := getEnv("HOST", "0.0.0.0")
	port := getEnv("PORT", "8080")
	backend := getEnv("STORE_BACKEND", "memory")

	// Redis configuration
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	redisDBStr := getEnv("REDIS_DB", "0")
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	// Cassandra configuration
	cassandraHosts := strings.Split(getEnv("CASSANDRA_HOSTS", "localhost:9042"), ",")
	cassandraKeyspace := getEnv("CASSANDRA_KEYSPACE", "cooksync")
	cassandraUsername := getEnv("CASSANDRA_USERNAME", "")
	cassandraPassword := getEnv("CASSANDRA_PASSWORD", "")
	cassandraConsistency := getEnv("CASSANDRA_CONSISTENCY", "quorum")
	cassandraTimeoutStr := getEnv("CASSANDRA_TIMEOUT_SECONDS", "5")
	cassandraTimeout, err := strconv.Atoi(cassandraTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CASSANDRA_TIMEOUT_SECONDS value: %w", err)
	}

	// Session TTL (0 = no expiration)
	sessionTTLStr := getEnv("SESSION_TTL_SECONDS", "86400") // 24 hours default
	sessionTTL, err := strconv.Atoi(sessionTTLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_SECONDS value: %w", err)
	}

	return &Config{
		Host:         host,
		Port:         port,
		StoreBackend: backend,
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
		Cassandra: CassandraConfig{
			Hosts:       cassandraHosts,
			Keyspace:    cassandraKeyspace,
			Username:    cassandraUsername,
			Password:    cassandraPassword,
			Consistency: cassandraConsistency,
			Timeout:     time.Duration(cassandraTimeout) * time.Second,
		},
		SessionTTL: time.Duration(sessionTTL) * time.Second,
	}, nil
}

// Address returns the full address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
