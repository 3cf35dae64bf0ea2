// Package server holds the HTTP server configuration.
//
// The start command runs the sync service over HTTP; this package defines
// the listen address and the API key protecting it.
//
// # Configuration
//
// The Config struct defines the HTTP host, port and API key. An empty API key
// leaves the endpoints unprotected, which is only suitable on a trusted host.
//
// # Usage
//
// This package is embedded by core/config and read by the start command.
package server
