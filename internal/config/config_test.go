package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "password")
	t.Setenv("DB_NAME", "learnportal")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxRequestSize)
	assert.True(t, cfg.Server.SecureCookies)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenExpiry)
	assert.Equal(t, "./media", cfg.Media.BasePath)
	assert.Equal(t, "", cfg.RedisAddr())
	assert.Equal(t, "0 3 * * *", cfg.Jobs.TokenCleanupSchedule)
	assert.Equal(t, "root:password@tcp(localhost:3306)/learnportal?parseTime=true&charset=utf8mb4", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.io , ,https://b.io")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_CACHE_TTL", "30s")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing db host", key: "DB_HOST", value: ""},
		{name: "invalid db port", key: "DB_PORT", value: "abc"},
		{name: "missing jwt secret", key: "JWT_SECRET", value: ""},
		{name: "invalid server port", key: "SERVER_PORT", value: "x"},
		{name: "invalid expiry", key: "JWT_REFRESH_TOKEN_EXPIRY", value: "forever"},
		{name: "invalid cookie flag", key: "COOKIE_SECURE", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("LMS_API_URL", "https://lms.example.com/api/v1")
	t.Setenv("LMS_TIMEOUT", "5s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("LMS_TIMEOUT", "-1s")
	_, err = LoadClient()
	assert.Error(t, err)
}
