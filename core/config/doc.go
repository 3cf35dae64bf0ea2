// Package config provides configuration management for docsync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (loaded with godotenv before Viper reads the
// environment).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (host, port, API key)
//   - Log: Logging level, format and optional rotating file
//   - Database: property store connection (sqlite file or MySQL)
//   - Cache: remote entry cache backend (memory or Redis) and listing TTL
//   - Remote: document cloud hosts, one-time code and HTTP timeout
//   - Sync: mode, source and remote roots, skipped folders, forced ids, batch size
//   - Source: source tree kind (local, bucket, gdrive) and its locator
//   - Storage: S3/MinIO credentials and bucket for bucket sources
//   - Metrics: Prometheus textfile path for one-shot runs
//
// Every field carries a `default` tag. Environment variables map onto nested
// keys by replacing dots with underscores, so SYNC_MODE sets sync.mode.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Mode)
package config
