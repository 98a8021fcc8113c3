package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_ENV", "PUBLIC_HOST", "MEDIA_STREAM_PATH", "PROFILE_SOURCE", "PROFILE_FILE",
		"PHONE_DEFAULT_REGION", "REDIS_ENABLED", "PROFILE_CACHE_TTL_SECONDS",
		"TWILIO_AUTH_TOKEN", "TWILIO_VALIDATE_SIGNATURE",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "/media-stream", cfg.MediaStreamPath)
	assert.Equal(t, ProfileSourceStatic, cfg.ProfileSource)
	assert.Equal(t, "SA", cfg.PhoneDefaultRegion)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 5*time.Minute, cfg.ProfileCacheTTL)
	assert.False(t, cfg.TwilioValidateSignature)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_Custom(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_HOST", "voice.example.org")
	t.Setenv("PROFILE_SOURCE", "FILE")
	t.Setenv("PROFILE_FILE", "/etc/bridge/customers.yaml")
	t.Setenv("PHONE_DEFAULT_REGION", "eg")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PROFILE_CACHE_TTL_SECONDS", "60")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_VALIDATE_SIGNATURE", "true")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "voice.example.org", cfg.PublicHost)
	assert.Equal(t, ProfileSourceFile, cfg.ProfileSource)
	assert.Equal(t, "EG", cfg.PhoneDefaultRegion)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.ProfileCacheTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("REDIS_ENABLED", "maybe")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.RedisEnabled)
}

func TestValidate(t *testing.T) {
	valid := func() *BridgeConfig {
		return &BridgeConfig{ProfileSource: ProfileSourceStatic, MediaStreamPath: "/media-stream"}
	}

	tests := []struct {
		name   string
		mutate func(*BridgeConfig)
		errMsg string
	}{
		{"unknown source", func(c *BridgeConfig) { c.ProfileSource = "mongo" }, "invalid PROFILE_SOURCE"},
		{"file without path", func(c *BridgeConfig) { c.ProfileSource = ProfileSourceFile }, "PROFILE_FILE is required"},
		{"relative media path", func(c *BridgeConfig) { c.MediaStreamPath = "media-stream" }, "MEDIA_STREAM_PATH"},
		{"signature without token", func(c *BridgeConfig) { c.TwilioValidateSignature = true }, "TWILIO_AUTH_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, valid().Validate())
}
