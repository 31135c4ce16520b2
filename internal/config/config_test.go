package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 20.0, cfg.HourlyRate)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Empty(t, cfg.KafkaBrokers)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/parking.db")
	t.Setenv("HOURLY_RATE", "12.5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ADMIN_EMAIL", " Admin@Example.com ")
	t.Setenv("ADMIN_PASSWORD", "supersecret")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")

	cfg := Load()

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 12.5, cfg.HourlyRate)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"zero rate", map[string]string{"HOURLY_RATE": "0"}},
		{"unparsable rate", map[string]string{"HOURLY_RATE": "cheap"}},
		{"admin without password", map[string]string{"ADMIN_EMAIL": "admin@example.com"}},
		{"idle above open", map[string]string{"DB_MAX_OPEN": "2", "DB_MAX_IDLE": "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "0123456789abcdef0123")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Error(t, Load().Validate())
		})
	}
}
