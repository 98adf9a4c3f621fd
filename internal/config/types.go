package config

// Config is the top-level configuration structure for mcpconnect.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Connector ConnectorConfig `yaml:"connector"`
	LogLevel  string          `yaml:"logLevel,omitempty"` // debug, info, warn, error (default: info)
}

// ServerConfig defines the listen address of the HTTP API.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty"` // Port to listen on (default: 8080)
	Host string `yaml:"host,omitempty"` // Host to bind to (default: localhost)
}

// ConnectorConfig defines how outgoing MCP connections are established.
type ConnectorConfig struct {
	ClientName   string   `yaml:"clientName,omitempty"`   // Name used for dynamic client registration
	Scopes       []string `yaml:"scopes,omitempty"`       // OAuth scopes requested for new connections
	CallbackPath string   `yaml:"callbackPath,omitempty"` // Path serving the OAuth redirect page
}
