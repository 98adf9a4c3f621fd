// Package config defines the mcpconnect configuration structure and loads it
// from a YAML file, falling back to built-in defaults when no file exists.
package config
