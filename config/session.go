package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionBackend selects which store persists session records.
type SessionBackend string

const (
	// SessionBackendPostgres keeps sessions in the primary database.
	SessionBackendPostgres SessionBackend = "postgres"
	// SessionBackendRedis keeps sessions in Redis with native TTL eviction.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "postgres", "redis":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: postgres, redis)", v)
	}
}

// SessionConfig controls session issuance and storage.
type SessionConfig struct {
	// Backend determines which session store implementation is used.
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"postgres"`

	// TTLHours is the fixed session lifetime in hours. Expiration is set once
	// at creation; there is no sliding extension.
	TTLHours int `env:"SESSION_TTL_HOURS" envDefault:"24"`
}

// Sanitize applies guardrails to session configuration values.
func (c *SessionConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = SessionBackendPostgres
	}
	if c.TTLHours <= 0 {
		c.TTLHours = 24
	}
}

// TTL returns the configured session lifetime as a duration.
func (c *SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SessionCookieName is the fixed name of the session cookie. The cookie value
// is the opaque session ID only; all user data stays server-side.
const SessionCookieName = "session_id"

// CookieConfig controls attributes of the session cookie.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Keep true anywhere but local development.
	Secure bool `env:"SECURE" envDefault:"true"`

	// Domain limits the cookie to a specific domain. Leave empty to use the
	// request host (correct for localhost).
	Domain string `env:"DOMAIN" envDefault:""`
}

// Sanitize normalises cookie configuration values.
func (c *CookieConfig) Sanitize() {
	c.Domain = strings.TrimSpace(c.Domain)
}

// SameSite returns the SameSite policy for session cookies. Lax blocks the
// cookie on CSRF-prone cross-site requests while allowing normal navigation.
func (c *CookieConfig) SameSite() http.SameSite {
	return http.SameSiteLaxMode
}
