package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.HTTPPort)
	assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 50.0, cfg.AckRate)
	assert.Equal(t, 256, cfg.AckBurst)
	assert.GreaterOrEqual(t, cfg.AckBurst, minAckBurst)
	assert.Empty(t, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	t.Run("port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "abc")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("rate", func(t *testing.T) {
		t.Setenv("WS_RATE_LIMIT", "fast")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestLoadConfig_CORSOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ORIGINS", " https://chat.example.com , http://localhost:5173,,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://chat.example.com", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		HTTPPort:   70000,
		LogLevel:   "trace",
		LogFormat:  "xml",
		JWTSecret:  "short",
		SendBuffer: 0,
		RateLimit:  0,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "WS_SEND_BUFFER")
	assert.Contains(t, err.Error(), "WS_ACK_BURST")
}

func TestValidate_AckBurstCoversHistoryPage(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("WS_ACK_BURST", "40")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WS_ACK_BURST")
}

func TestAllowOrigin(t *testing.T) {
	dev := &Config{GoEnv: "development"}
	assert.True(t, dev.AllowOrigin("http://anything"))
	assert.True(t, dev.AllowOrigin(""))

	prod := &Config{GoEnv: "production"}
	assert.False(t, prod.AllowOrigin("http://anything"))
	assert.True(t, prod.AllowOrigin(""))

	listed := &Config{GoEnv: "production", CORSOrigins: []string{"https://chat.example.com"}}
	assert.True(t, listed.AllowOrigin("https://chat.example.com"))
	assert.False(t, listed.AllowOrigin("https://evil.example.com"))
}
