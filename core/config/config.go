package config

import (
	"path/filepath"
	"reflect"
	"strings"

	"docsync/core/cache"
	"docsync/core/database"
	"docsync/core/logger"
	"docsync/core/metrics"
	"docsync/core/remote"
	"docsync/core/server"
	"docsync/core/storage"
	"docsync/feature/source"
	"docsync/feature/synchronizer"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the property store database.
	Database database.Config `mapstructure:"database"`
	// Cache holds configuration for the remote entry cache.
	Cache cache.Config `mapstructure:"cache"`
	// Remote holds configuration for the document cloud.
	Remote remote.Config `mapstructure:"remote"`
	// Sync holds configuration for the sync relationship.
	Sync synchronizer.Config `mapstructure:"sync"`
	// Source holds configuration for the source tree.
	Source source.Config `mapstructure:"source"`
	// Storage holds configuration for the object storage used by bucket sources.
	Storage storage.Config `mapstructure:"storage"`
	// Metrics holds configuration for metrics export.
	Metrics metrics.Config `mapstructure:"metrics"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := filepath.Join(path, ".env")

	// A missing .env is normal outside development
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Register every key with its default so AutomaticEnv can see it
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
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
