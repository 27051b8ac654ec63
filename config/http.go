package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ReadTimeout bounds how long reading a full request may take.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`

	// WriteTimeout bounds how long writing a full response may take.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`

	// IdleTimeout bounds how long a keep-alive connection may stay idle.
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 30 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 120 * time.Second
	}
}

// ReaperConfig controls the background sweep of expired session rows.
// The sweep is storage hygiene only; reads already treat expired rows as absent.
type ReaperConfig struct {
	Enabled  bool          `env:"REAPER_ENABLED"  envDefault:"true"`
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1h"`
}

// Sanitize normalises reaper configuration values.
func (c *ReaperConfig) Sanitize() {
	if c.Interval < time.Minute {
		c.Interval = time.Minute
	}
}
