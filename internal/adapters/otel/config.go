package otel

import "github.com/emiliopalmerini/garminetl/internal/config"

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// ConfigFrom maps the application settings onto the exporter configuration.
func ConfigFrom(c config.OTEL) Config {
	return Config{
		Endpoint: c.Endpoint,
		Enabled:  c.Enabled,
		Insecure: c.Insecure,
	}
}
