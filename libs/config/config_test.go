package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the variables Load cannot default
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "cms")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "hospitalcms")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("CONTENT_API_URL", "http://cms.local/api/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	for _, key := range []string{"SERVER_PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "SESSION_STORE", "SESSION_TTL", "SUBMIT_EMPTY_CHANGES", "CONTENT_API_TIMEOUT", "REDIS_HOST", "REDIS_PORT", "REDIS_DB", "HISTORY_RETENTION"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "http://cms.local/api", cfg.ContentAPI.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.ContentAPI.Timeout)
	assert.Equal(t, SessionStoreMemory, cfg.Sessions.Store)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.TTL)
	assert.True(t, cfg.Sessions.SubmitEmptyChanges)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 90*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "cms:secret@tcp(localhost:3306)/hospitalcms?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.hospital.in, https://cms.hospital.in,")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SUBMIT_EMPTY_CHANGES", "false")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("HISTORY_RETENTION", "720h")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://admin.hospital.in", "https://cms.hospital.in"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, SessionStoreRedis, cfg.Sessions.Store)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.False(t, cfg.Sessions.SubmitEmptyChanges)
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*24*time.Hour, cfg.History.Retention)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		value         string
		errorContains string
	}{
		{name: "missing db host", key: "DB_HOST", value: "", errorContains: "DB_HOST is required"},
		{name: "invalid db port", key: "DB_PORT", value: "abc", errorContains: "invalid DB_PORT"},
		{name: "missing jwt secret", key: "JWT_SECRET", value: "", errorContains: "JWT_SECRET is required"},
		{name: "missing content api", key: "CONTENT_API_URL", value: "", errorContains: "CONTENT_API_URL is required"},
		{name: "invalid session store", key: "SESSION_STORE", value: "postgres", errorContains: "invalid SESSION_STORE"},
		{name: "invalid session ttl", key: "SESSION_TTL", value: "soon", errorContains: "invalid SESSION_TTL"},
		{name: "invalid empty changes flag", key: "SUBMIT_EMPTY_CHANGES", value: "maybe", errorContains: "invalid SUBMIT_EMPTY_CHANGES"},
		{name: "invalid history retention", key: "HISTORY_RETENTION", value: "forever", errorContains: "invalid HISTORY_RETENTION"},
		{name: "negative history retention", key: "HISTORY_RETENTION", value: "-1h", errorContains: "HISTORY_RETENTION must be positive"},
		{name: "invalid redis port", key: "REDIS_PORT", value: "x", errorContains: "invalid REDIS_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CONTENT_API_URL", "http://cms.local/api")
	t.Setenv("CONTENT_API_KEY", "key")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SESSION_STORE", "")

	cfg, err := LoadClient()

	require.NoError(t, err)
	assert.Equal(t, "http://cms.local/api", cfg.ContentAPI.BaseURL)
	assert.Equal(t, "key", cfg.ContentAPI.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadTestConfig(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.Equal(t, DefaultTestDSN, cfg.TestDSN())
	})

	t.Run("configured", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "db")
		t.Setenv("TEST_DB_PORT", "3307")
		t.Setenv("TEST_DB_USER", "test")
		t.Setenv("TEST_DB_PASSWORD", "pw")
		t.Setenv("TEST_DB_NAME", "cms_test")

		cfg, err := LoadTestConfig()

		require.NoError(t, err)
		assert.Equal(t, "test:pw@tcp(db:3307)/cms_test?parseTime=true&charset=utf8mb4", cfg.TestDSN())
	})
}
