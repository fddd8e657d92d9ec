package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML configuration consumed by the CLI.
type File struct {
	// CacheArguments overrides the -D definitions sent with configure.
	CacheArguments []string `yaml:"cacheArguments"`

	// ProtocolVersion overrides the handshake protocol major version.
	ProtocolVersion int `yaml:"protocolVersion"`

	// LogFile redirects the message log to a file instead of stderr.
	LogFile string `yaml:"logFile"`
}

// LoadFile reads the configuration from the given YAML path.
// If the file does not exist, it returns the defaults with no error.
func LoadFile(path string) (*File, error) {
	cfg := &File{
		CacheArguments:  DefaultCacheArguments(),
		ProtocolVersion: DefaultProtocolMajor,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
