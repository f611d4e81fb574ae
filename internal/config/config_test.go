package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		StoreDriver:             StoreMongo,
		MongoURI:                "mongodb://localhost:27017",
		MongoDBName:             "clonescope",
		RedisHost:               "localhost:6379",
		JWTSecret:               "secret",
		MaxConcurrentCompute:    2,
		ComparisonTimeout:       1,
		StreamRetentionDuration: 1,
	}
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		// given
		t.Setenv("STORE_DRIVER", "")
		t.Setenv("GITHUB_PATH_PREFIX", "")

		// when
		cfg, err := Load()

		// then
		require.NoError(t, err)
		assert.Equal(t, StoreMongo, cfg.StoreDriver)
		assert.Equal(t, "src/main/java/", cfg.GitHubPathPrefix)
		assert.Equal(t, "clonescope:groups", cfg.RedisStreamKey)
		assert.False(t, cfg.GroupKeySalted)
	})

	t.Run("should read overrides", func(t *testing.T) {
		// given
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("GROUP_KEY_SALTED", "true")
		t.Setenv("MAX_CONCURRENT_COMPUTE", "9")

		// when
		cfg, err := Load()

		// then
		require.NoError(t, err)
		assert.Equal(t, StoreMemory, cfg.StoreDriver)
		assert.True(t, cfg.GroupKeySalted)
		assert.Equal(t, 9, cfg.MaxConcurrentCompute)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory store needs no mongo", func(c *Config) { c.StoreDriver = StoreMemory; c.MongoURI = "" }, ""},
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }, "MONGO_URI"},
		{"unknown store", func(c *Config) { c.StoreDriver = "sqlite" }, "STORE_DRIVER"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"remote engine without key", func(c *Config) { c.EngineBaseURL = "http://engine" }, "ENGINE_API_KEY"},
		{"no workers", func(c *Config) { c.MaxConcurrentCompute = 0 }, "MAX_CONCURRENT_COMPUTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			cfg := validConfig()
			tt.mutate(cfg)

			// when
			err := cfg.Validate()

			// then
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
