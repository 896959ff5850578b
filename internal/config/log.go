package config

// LogConfig controls the slog handler and the optional rotating log file.
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	File       string // empty disables file output
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoadLogConfig reads LOG_* variables.
func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:      envStr("LOG_LEVEL", "info"),
		Format:     envStr("LOG_FORMAT", "json"),
		File:       envStr("LOG_FILE", ""),
		Console:    envBool("LOG_CONSOLE", true),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 30),
	}
}
