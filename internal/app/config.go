package app

// Config holds the application startup options.
type Config struct {
	// Debug forces debug-level logging regardless of the config file.
	Debug bool

	// Host overrides the configured bind address when non-empty.
	Host string

	// Port overrides the configured port when non-zero.
	Port int

	// ConfigPath is a custom configuration directory. When empty the user
	// config directory is used.
	ConfigPath string
}

// NewConfig creates a new application configuration.
func NewConfig(debug bool, host string, port int, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Host:       host,
		Port:       port,
		ConfigPath: configPath,
	}
}
