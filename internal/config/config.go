// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv    string
	Port      string
	RunLocal  bool
	LogLevel  string
	LogFormat string

	AWSRegion           string
	AWSEndpointOverride string

	OrdersTable           string
	IdempotencyTable      string
	NotificationsQueueURL string
	MailQueueURL          string
	IdempotencyTTL        time.Duration
	MetricsNamespace      string
}

// Load reads configuration from environment variables and an optional .env file.
// It does not enforce required keys; see ValidateAPI and ValidateWorker.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                  valueOrDefault(k.String("PORT"), "8080"),
		RunLocal:              parseBool(k.String("RUN_LOCAL")),
		LogLevel:              valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:             valueOrDefault(k.String("LOG_FORMAT"), "json"),
		AWSRegion:             valueOrDefault(k.String("AWS_REGION"), "us-east-1"),
		AWSEndpointOverride:   strings.TrimSpace(k.String("AWS_ENDPOINT_OVERRIDE")),
		OrdersTable:           strings.TrimSpace(k.String("ORDERS_TABLE")),
		IdempotencyTable:      strings.TrimSpace(k.String("IDEMPOTENCY_TABLE")),
		NotificationsQueueURL: strings.TrimSpace(k.String("NOTIFICATIONS_QUEUE_URL")),
		MailQueueURL:          strings.TrimSpace(k.String("MAIL_QUEUE_URL")),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "48h"),
		MetricsNamespace:      valueOrDefault(k.String("METRICS_NAMESPACE"), "Orderflow/Notifications"),
	}
	return cfg, nil
}

// ValidateAPI checks the settings the HTTP API cannot run without.
func (c *Config) ValidateAPI() error {
	return requireKeys(map[string]string{
		"ORDERS_TABLE":            c.OrdersTable,
		"IDEMPOTENCY_TABLE":       c.IdempotencyTable,
		"NOTIFICATIONS_QUEUE_URL": c.NotificationsQueueURL,
	})
}

// ValidateWorker checks the settings the notification worker cannot run without.
func (c *Config) ValidateWorker() error {
	return requireKeys(map[string]string{
		"ORDERS_TABLE":      c.OrdersTable,
		"IDEMPOTENCY_TABLE": c.IdempotencyTable,
		"MAIL_QUEUE_URL":    c.MailQueueURL,
	})
}

// HTTPAddr returns the address the local HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func requireKeys(values map[string]string) error {
	var missing []string
	for key, value := range values {
		if value == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.New(strings.Join(missing, ", ") + " required")
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(vars map[string]string) (*Config, error) {
	original := make(map[string]string, len(vars))
	for key := range vars {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, vars[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
