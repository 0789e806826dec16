// Package goxwr orchestrates TI mmWave radars and the DCA1000EVM capture
// card into a streaming capture system.
package goxwr

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/radarlab/goxwr/dca"
	"github.com/radarlab/goxwr/radar"
)

// Config ties together the radar chirp configuration and the capture
// card settings for one capture setup.
type Config struct {
	// Device is the radar board name, e.g. "AWR1843Boost".
	Device string `yaml:"device"`

	Radar   radar.Config `yaml:"radar"`
	Capture dca.Config   `yaml:"capture"`
}

// LoadConfig reads a YAML capture configuration and validates the radar
// section. Capture card settings not present fall back to their
// defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{Capture: dca.DefaultConfig()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Radar.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
