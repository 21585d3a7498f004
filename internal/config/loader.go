package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides and defaults.
// It does not validate; callers pick Validate or ValidateSink.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}
