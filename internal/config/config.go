package config

import (
	"fmt"
	"strings"
	"time"
)

// Profile sources understood by PROFILE_SOURCE.
const (
	ProfileSourceStatic   = "static"
	ProfileSourceFile     = "file"
	ProfileSourcePostgres = "postgres"
)

// BridgeConfig holds the configuration of the Twilio / voice-agent bridge.
type BridgeConfig struct {
	Port   string
	LogEnv string

	// PublicHost overrides the request host in the media stream URL (proxied deployments).
	PublicHost      string
	MediaStreamPath string

	// Profile resolution
	ProfileSource      string // "static", "file" or "postgres"
	ProfileFile        string
	PhoneDefaultRegion string

	// Prompt assets; empty means the embedded defaults
	PromptTemplatePath       string
	FirstMessageTemplatePath string

	// Redis backs the profile cache and the call registry
	RedisEnabled    bool
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ProfileCacheTTL time.Duration

	// Twilio request signature validation
	TwilioAuthToken         string
	TwilioValidateSignature bool
}

// LoadConfigFromEnv loads the bridge configuration from environment variables.
func LoadConfigFromEnv() *BridgeConfig {
	return &BridgeConfig{
		Port:   getEnvOrDefault("PORT", "8000"),
		LogEnv: getEnvOrDefault("LOG_ENV", "development"),

		PublicHost:      getEnvOrDefault("PUBLIC_HOST", ""),
		MediaStreamPath: getEnvOrDefault("MEDIA_STREAM_PATH", "/media-stream"),

		ProfileSource:      strings.ToLower(getEnvOrDefault("PROFILE_SOURCE", ProfileSourceStatic)),
		ProfileFile:        getEnvOrDefault("PROFILE_FILE", ""),
		PhoneDefaultRegion: strings.ToUpper(getEnvOrDefault("PHONE_DEFAULT_REGION", "SA")),

		PromptTemplatePath:       getEnvOrDefault("PROMPT_TEMPLATE_PATH", ""),
		FirstMessageTemplatePath: getEnvOrDefault("FIRST_MESSAGE_TEMPLATE_PATH", ""),

		RedisEnabled:    getEnvAsBoolOrDefault("REDIS_ENABLED", false),
		RedisHost:       getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:       getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:   getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsIntOrDefault("REDIS_DB", 0),
		ProfileCacheTTL: time.Duration(getEnvAsIntOrDefault("PROFILE_CACHE_TTL_SECONDS", 300)) * time.Second,

		TwilioAuthToken:         getEnvOrDefault("TWILIO_AUTH_TOKEN", ""),
		TwilioValidateSignature: getEnvAsBoolOrDefault("TWILIO_VALIDATE_SIGNATURE", false),
	}
}

// Validate checks settings that cannot be defaulted.
func (c *BridgeConfig) Validate() error {
	switch c.ProfileSource {
	case ProfileSourceStatic, ProfileSourcePostgres:
	case ProfileSourceFile:
		if c.ProfileFile == "" {
			return fmt.Errorf("PROFILE_FILE is required when PROFILE_SOURCE is %q", ProfileSourceFile)
		}
	default:
		return fmt.Errorf("invalid PROFILE_SOURCE %q: must be 'static', 'file' or 'postgres'", c.ProfileSource)
	}

	if !strings.HasPrefix(c.MediaStreamPath, "/") {
		return fmt.Errorf("MEDIA_STREAM_PATH must start with '/': %q", c.MediaStreamPath)
	}

	if c.TwilioValidateSignature && c.TwilioAuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_SIGNATURE is enabled")
	}

	return nil
}
