package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":         "",
		"PORT":            "",
		"AWS_REGION":      "",
		"IDEMPOTENCY_TTL": "",
		"LOG_LEVEL":       "",
		"RUN_LOCAL":       "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "us-east-1", cfg.AWSRegion)
	require.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.RunLocal)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                    ":9090",
		"RUN_LOCAL":               "true",
		"AWS_ENDPOINT_OVERRIDE":   "http://localhost:4566",
		"ORDERS_TABLE":            "orders",
		"IDEMPOTENCY_TABLE":       "idempotency",
		"NOTIFICATIONS_QUEUE_URL": "http://localhost:4566/000000000000/notifications",
		"IDEMPOTENCY_TTL":         "2h",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.RunLocal)
	require.Equal(t, "http://localhost:4566", cfg.AWSEndpointOverride)
	require.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	require.NoError(t, cfg.ValidateAPI())
}

func TestValidateWorker_ListsMissingKeys(t *testing.T) {
	cfg := &Config{OrdersTable: "orders"}
	err := cfg.ValidateWorker()
	require.EqualError(t, err, "IDEMPOTENCY_TABLE, MAIL_QUEUE_URL required")
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{"IDEMPOTENCY_TTL": "soon"})
	require.NoError(t, err)
	require.Equal(t, 48*time.Hour, cfg.IdempotencyTTL)
}
