package redis

import "time"

// Config holds Redis connection and expiry settings
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int

	// SessionTTL bounds how long an abandoned session lingers. The core
	// never deletes sessions; expiry is the store's concern.
	SessionTTL time.Duration
	// GuestUserTTL expires guest accounts; registered users never expire
	GuestUserTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis storage
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		SessionTTL:   24 * time.Hour,
		GuestUserTTL: 24 * time.Hour,
	}
}
