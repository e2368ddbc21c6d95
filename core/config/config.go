package config

import (
	"errors"
	"reflect"
	"strings"

	"expense-sync/core/cache"
	"expense-sync/core/database"
	"expense-sync/core/logger"
	"expense-sync/core/memory"
	"expense-sync/core/ratelimit"
	"expense-sync/core/retry"
	"expense-sync/core/server"
	"expense-sync/core/storage"
	"expense-sync/platform"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SyncConfig holds settings for the synchronization run itself.
type SyncConfig struct {
	// SQLDir is the directory containing the source extraction queries.
	SQLDir string `mapstructure:"sql_dir" default:"sql"`
}

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the source database connection.
	Database database.Config `mapstructure:"database"`
	// Api holds configuration for the expense platform API.
	Api platform.Config `mapstructure:"api"`
	// RateLimit holds the per-minute call quotas.
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	// Retry holds the backoff policy for API calls.
	Retry retry.Config `mapstructure:"retry"`
	// Cache holds configuration for the API response cache.
	Cache cache.Config `mapstructure:"cache"`
	// Memory holds the budget for in-process datasets.
	Memory memory.Config `mapstructure:"memory"`
	// Sync holds settings for the synchronization run.
	Sync SyncConfig `mapstructure:"sync"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. API_CLIENT_ID -> api.client_id)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the settings required to reach the expense platform
// are present. Simulate mode never calls the API, so credentials are optional.
func (c *Config) Validate() error {
	if c.Api.Simulate {
		return nil
	}
	if c.Api.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Api.ClientID == "" || c.Api.ClientSecret == "" {
		return errors.New("api.client_id and api.client_secret are required")
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
