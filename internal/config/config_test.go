package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, EventsKafka, cfg.EventsDriver)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "frontdesk", cfg.DBConfig.DBName)
	assert.Empty(t, cfg.RedisConfig.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FRONTDESK_STORE_DRIVER", "Memory")
	t.Setenv("FRONTDESK_EVENTS_DRIVER", "none")
	t.Setenv("FRONTDESK_CURRENCY", "eur")
	t.Setenv("FRONTDESK_SERVICE_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, EventsNone, cfg.EventsDriver)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, ":9090", cfg.Port)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"FRONTDESK_STORE_DRIVER": "sqlite"}},
		{"mongo without uri", map[string]string{"FRONTDESK_STORE_DRIVER": "mongo"}},
		{"rabbitmq without url", map[string]string{"FRONTDESK_EVENTS_DRIVER": "rabbitmq"}},
		{"bad currency", map[string]string{"FRONTDESK_CURRENCY": "dollars"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
