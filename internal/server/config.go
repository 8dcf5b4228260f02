package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GatewayConfig configures the standalone serving process. The filter
// rules themselves live in the TOML rule file; this file only tells the
// gateway where to listen and where that rule file is.
type GatewayConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	RulesPath  string `yaml:"rules_path"`
	LogLevel   string `yaml:"log_level"`
}

// DefaultGatewayConfig returns the built-in gateway settings.
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		ListenAddr: ":8474",
		RulesPath:  "config.toml",
		LogLevel:   "info",
	}
}

// LoadGatewayConfig loads gateway configuration from a YAML file.
// Missing file returns defaults; YAML overwrites only specified fields.
func LoadGatewayConfig(path string) (*GatewayConfig, error) {
	if path == "" {
		return DefaultGatewayConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGatewayConfig(), nil
		}
		return nil, fmt.Errorf("failed to read gateway config: %w", err)
	}

	cfg := DefaultGatewayConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gateway config: %w", err)
	}

	return cfg, nil
}
