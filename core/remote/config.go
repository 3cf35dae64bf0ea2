package remote

import "time"

// Config holds configuration for the remote document cloud.
type Config struct {
	// AuthHost serves the device and user token exchange.
	AuthHost string `mapstructure:"auth_host" default:"https://webapp-production-dot-remarkable-production.appspot.com"`
	// StorageHost is the storage API base URL. Empty means discover it.
	StorageHost string `mapstructure:"storage_host" default:""`
	// DiscoveryURL answers {"Status":"OK","Host":"..."} for the storage host.
	DiscoveryURL string `mapstructure:"discovery_url" default:"https://service-manager-production-dot-remarkable-production.appspot.com/service/json/1/document-storage?environment=production&apiVer=2"`
	// OneTimeCode registers a new device when no device token is cached.
	OneTimeCode string `mapstructure:"one_time_code" default:""`
	// DeviceDesc is the device description sent on registration.
	DeviceDesc string `mapstructure:"device_desc" default:"desktop-linux"`
	// TimeoutSeconds bounds every HTTP round trip.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}

// Timeout returns the HTTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
