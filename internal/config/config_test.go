package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadEnv_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "STORE_BACKEND", "CHANGE_FEED", "HTTP_ADDR", "KAFKA_BROKERS",
		"DEFAULT_CUSTOMER", "DEFAULT_SOURCE", "DEFAULT_DESTINATION", "STRICT_NOT_FOUND", "STORE_MAX_ATTEMPTS"} {
		unsetEnv(t, key)
	}

	cfg := LoadEnv()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, FeedNone, cfg.Store.ChangeFeed)
	assert.True(t, cfg.Store.StrictLookup)
	assert.Equal(t, 5, cfg.Store.MaxAttempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "Sai PG Stays", cfg.Orders.DefaultCustomer)
	assert.Equal(t, "GreenEarth Estates", cfg.Orders.DefaultSource)
	assert.Equal(t, "Sai PG Stays", cfg.Orders.DefaultDestination)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("CHANGE_FEED", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STRICT_NOT_FOUND", "false")
	t.Setenv("TOKEN_EXPIRY", "30m")
	t.Setenv("DEFAULT_SOURCE", "Hill Farms")

	cfg := LoadEnv()

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, FeedKafka, cfg.Store.ChangeFeed)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.Store.StrictLookup)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiry)
	assert.Equal(t, "Hill Farms", cfg.Orders.DefaultSource)
}

func TestLoadEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("STRICT_NOT_FOUND", "maybe")
	t.Setenv("TOKEN_EXPIRY", "forever")

	cfg := LoadEnv()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.True(t, cfg.Store.StrictLookup)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenExpiry)
}

func validConfig() *Config {
	return &Config{
		Store: StoreConfig{Backend: BackendMemory, ChangeFeed: FeedNone, MaxAttempts: 5},
		Auth:  AuthConfig{JWTSecret: testSecret, Passcode: "farmbe-demo"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"hash instead of passcode", func(c *Config) { c.Auth.Passcode = ""; c.Auth.PasscodeHash = "$2a$..." }, ""},
		{"redis feed on redis backend", func(c *Config) { c.Store.Backend = BackendRedis; c.Store.ChangeFeed = FeedRedis }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }, "STORE_BACKEND"},
		{"unknown feed", func(c *Config) { c.Store.ChangeFeed = "nats" }, "CHANGE_FEED"},
		{"redis feed without redis backend", func(c *Config) { c.Store.ChangeFeed = FeedRedis }, "requires STORE_BACKEND=redis"},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "JWT_SECRET"},
		{"no passcode", func(c *Config) { c.Auth.Passcode = "" }, "DEMO_PASSCODE"},
		{"zero attempts", func(c *Config) { c.Store.MaxAttempts = 0 }, "STORE_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{"development": true, "DEV": true, "local": true, "production": false, "staging": false} {
		cfg := &Config{Server: ServerConfig{AppEnv: env}}
		assert.Equal(t, want, cfg.IsDevelopment(), env)
	}
}
