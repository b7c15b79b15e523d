package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// RecoverFromPanic converts callback panics into errors matching ErrPanic.
	RecoverFromPanic bool

	// QueueBuffer is the request buffer size of a Queue dispatcher.
	QueueBuffer int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics:    false,
		RecoverFromPanic: true,
		QueueBuffer:      64,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithQueueBuffer returns a copy of the config with the queue buffer set.
func (c Config) WithQueueBuffer(size int) Config {
	if size > 0 {
		c.QueueBuffer = size
	}
	return c
}
