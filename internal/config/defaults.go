package config

const (
	// DefaultPort is the default HTTP API port.
	DefaultPort = 8080

	// DefaultHost is the default bind address.
	DefaultHost = "localhost"

	// DefaultClientName is the name sent during dynamic client registration.
	DefaultClientName = "mcpconnect"

	// DefaultCallbackPath is the default path serving the OAuth redirect page.
	DefaultCallbackPath = "/oauth/callback"
)

// DefaultScopes are the OAuth scopes requested when none are configured.
var DefaultScopes = []string{"mcp:tools"}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Connector: ConnectorConfig{
			ClientName:   DefaultClientName,
			Scopes:       DefaultScopes,
			CallbackPath: DefaultCallbackPath,
		},
		LogLevel: "info",
	}
}
