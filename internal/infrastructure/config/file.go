package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFile overlays a YAML tuning file on top of cfg. Environment variables
// already applied by Load keep their values unless the file sets them; the
// file is the more specific source for per-machine kernel tuning.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding straight into the live sections merges at field level: a
	// file that sets one key leaves the section's other keys alone.
	overlay := struct {
		Server    *ServerConfig    `yaml:"server"`
		Kernel    *KernelConfig    `yaml:"kernel"`
		Logging   *LogConfig       `yaml:"logging"`
		RateLimit *RateLimitConfig `yaml:"rate_limit"`
	}{
		Server:    &cfg.Server,
		Kernel:    &cfg.Kernel,
		Logging:   &cfg.Logging,
		RateLimit: &cfg.RateLimit,
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg.Validate()
}
