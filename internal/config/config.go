package config

import (
	"fmt"
	"strings"

	"github.com/grandstay/service-frontdesk/pkg/config"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Event drivers.
const (
	EventsKafka    = "kafka"
	EventsRabbitMQ = "rabbitmq"
	EventsNone     = "none"
)

// ServiceConfig holds all configuration for the front-desk service.
type ServiceConfig struct {
	Port         string
	AppEnv       string
	StoreDriver  string
	EventsDriver string
	Currency     string
	OTLPEndpoint string

	DBConfig       config.DatabaseConfig
	MongoConfig    config.MongoConfig
	RedisConfig    config.RedisConfig
	JWTConfig      config.JWTConfig
	KafkaConfig    config.KafkaConfig
	RabbitMQConfig config.RabbitMQConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("FRONTDESK")
	if err != nil {
		return nil, err
	}
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("EVENTS_DRIVER", EventsKafka)
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("DB_NAME", "frontdesk")
	v.SetDefault("MONGO_DATABASE", "frontdesk")

	cfg := &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		StoreDriver:    strings.ToLower(config.GetString(v, "STORE_DRIVER")),
		EventsDriver:   strings.ToLower(config.GetString(v, "EVENTS_DRIVER")),
		Currency:       strings.ToUpper(config.GetString(v, "CURRENCY")),
		OTLPEndpoint:   config.GetString(v, "OTEL_EXPORTER_OTLP_ENDPOINT"),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		MongoConfig:    config.LoadMongoConfig(v),
		RedisConfig:    config.LoadRedisConfig(v),
		JWTConfig:      config.LoadJWTConfig(v),
		KafkaConfig:    config.LoadKafkaConfig(v),
		RabbitMQConfig: config.LoadRabbitMQConfig(v),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	case StoreMongo:
		if c.MongoConfig.URI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.EventsDriver {
	case EventsKafka, EventsNone:
	case EventsRabbitMQ:
		if c.RabbitMQConfig.URL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for the rabbitmq event driver")
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.EventsDriver)
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter code, got %q", c.Currency)
	}
	return nil
}
