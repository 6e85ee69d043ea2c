// internal/logger/config.go
package logger

// Config controls the process logger.
type Config struct {
	LogFile     string
	MaxSize     int  // megabytes
	MaxAge      int  // days
	MaxBackups  int  // rotated files kept
	Compress    bool // gzip rotated files
	Development bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "arb.log",
		MaxSize:     50,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
