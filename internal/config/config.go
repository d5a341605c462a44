// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP/websocket listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file path.
	DBPath string `koanf:"db_path"`

	// ResetPassword gates the destructive system reset.
	ResetPassword string `koanf:"reset_password"`

	// SendBufferSize bounds each client's outbound message buffer; a
	// client that falls this far behind is dropped.
	SendBufferSize int `koanf:"send_buffer_size"`

	// TeamQueueBuffer bounds each team's serialized mutation mailbox.
	TeamQueueBuffer int `koanf:"team_queue_buffer"`

	// DedupeSize sets the size of the submission-id dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":3001",
		DBPath:          "pitchscore.db",
		ResetPassword:   "unachnegocios",
		SendBufferSize:  64,
		TeamQueueBuffer: 128,
		DedupeSize:      50_000,
	}
}
