package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Host is the interface to bind. Empty binds all interfaces.
	Host string `mapstructure:"host" default:""`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	port := strings.TrimPrefix(c.Port, ":")
	if port == "" {
		port = "8080"
	}
	return c.Host + ":" + port
}

// Protected reports whether requests must carry an API key.
func (c Config) Protected() bool {
	return c.ApiKey != ""
}
