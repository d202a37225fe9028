package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds Kafka broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RabbitMQConfig holds RabbitMQ settings.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// knownKeys are bound to both the prefixed and the shared variable name.
var knownKeys = []string{
	"SERVICE_PORT", "APP_ENV", "STORE_DRIVER", "EVENTS_DRIVER", "CURRENCY",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"MONGO_URI", "MONGO_DATABASE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "AVAILABILITY_CACHE_TTL",
	"JWT_SECRET", "KAFKA_BROKERS", "KAFKA_GROUP_PREFIX",
	"RABBITMQ_URL", "RABBITMQ_EXCHANGE", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load creates a viper instance reading from the environment. Each key is
// looked up with the service prefix first (e.g. FRONTDESK_DB_HOST) and falls
// back to the unprefixed shared name (DB_HOST).
func Load(prefix string) (*viper.Viper, error) {
	if prefix == "" {
		return nil, fmt.Errorf("config prefix is required")
	}
	v := viper.New()
	for _, key := range knownKeys {
		if err := v.BindEnv(key, prefix+"_"+key, key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("JWT_SECRET", "change-me")

	return v, nil
}

// GetString returns the value bound to key.
func GetString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// GetServicePort returns the listen address for the given port key.
func GetServicePort(v *viper.Viper, key string) string {
	port := GetString(v, key)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the application environment.
func GetAppEnv(v *viper.Viper) string {
	return GetString(v, "APP_ENV")
}

// LoadDatabaseConfig reads PostgreSQL settings. nameKey selects the
// database name variable so services can share a server.
func LoadDatabaseConfig(v *viper.Viper, nameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:     GetString(v, "DB_HOST"),
		Port:     GetString(v, "DB_PORT"),
		User:     GetString(v, "DB_USER"),
		Password: GetString(v, "DB_PASSWORD"),
		DBName:   GetString(v, nameKey),
		SSLMode:  GetString(v, "DB_SSLMODE"),
	}
}

// LoadMongoConfig reads MongoDB settings.
func LoadMongoConfig(v *viper.Viper) MongoConfig {
	return MongoConfig{
		URI:      GetString(v, "MONGO_URI"),
		Database: GetString(v, "MONGO_DATABASE"),
	}
}

// LoadRedisConfig reads Redis settings. An empty Addr disables Redis.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	ttl := v.GetDuration("AVAILABILITY_CACHE_TTL")
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return RedisConfig{
		Addr:     GetString(v, "REDIS_ADDR"),
		Password: GetString(v, "REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      ttl,
	}
}

// LoadJWTConfig reads JWT settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{Secret: GetString(v, "JWT_SECRET")}
}

// LoadKafkaConfig reads Kafka settings.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(GetString(v, "KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: GetString(v, "KAFKA_GROUP_PREFIX"),
	}
}

// LoadRabbitMQConfig reads RabbitMQ settings.
func LoadRabbitMQConfig(v *viper.Viper) RabbitMQConfig {
	exchange := GetString(v, "RABBITMQ_EXCHANGE")
	if exchange == "" {
		exchange = "frontdesk"
	}
	return RabbitMQConfig{
		URL:      GetString(v, "RABBITMQ_URL"),
		Exchange: exchange,
	}
}
