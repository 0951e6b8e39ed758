package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		Port:           "8375",
		JWTSecret:      "a-long-production-secret-at-least-32-chars",
		DBPassword:     "s0mething-strong",
		DBSSLMode:      "require",
		ImageMaxSizeKB: 2048,
		Env:            "production",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid Production", func(c *Config) {}, ""},
		{"Missing Port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"Missing JWT Secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"Zero Image Cap", func(c *Config) { c.ImageMaxSizeKB = 0 }, "IMAGE_MAX_SIZE_KB must be positive"},
		{"Default JWT Secret In Production", func(c *Config) {
			c.JWTSecret = "your-secret-key-change-in-production"
		}, "JWT_SECRET must be changed from the default value in production"},
		{"Short JWT Secret In Production", func(c *Config) {
			c.JWTSecret = "too-short"
		}, "JWT_SECRET must be at least 32 characters in production"},
		{"Weak DB Password In Production", func(c *Config) {
			c.DBPassword = "password"
		}, "a strong DB_PASSWORD is required in production"},
		{"Empty DB Password In Production", func(c *Config) {
			c.DBPassword = ""
		}, "a strong DB_PASSWORD is required in production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProductionConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidate_DevelopmentIsLenient(t *testing.T) {
	cfg := &Config{
		Port:           "8375",
		JWTSecret:      "your-secret-key-change-in-production",
		DBPassword:     "password",
		ImageMaxSizeKB: 2048,
		Env:            "development",
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProdAliasIsStrict(t *testing.T) {
	cfg := validProductionConfig()
	cfg.Env = "prod"
	cfg.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate())
}

func TestImageMaxSizeBytes(t *testing.T) {
	cfg := &Config{ImageMaxSizeKB: 2048}
	assert.Equal(t, int64(2048*1024), cfg.ImageMaxSizeBytes())
}
