package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MaxTxAttempts bounds how often an optimistic update is retried when a
	// watched key changes underneath it
	MaxTxAttempts int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		MaxTxAttempts: 16,
	}
}
