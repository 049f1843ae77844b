package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// overridesFile mirrors the on-disk shape of the manual override table.
type overridesFile struct {
	Overrides map[string]float64 `yaml:"overrides"`
}

// LoadOverrides reads the manual override table from a YAML file. Keys are
// YYYY-MM-DD dates, values are aggregate notional open interest in USD. The
// table compensates for days the upstream archive is missing or untrustworthy,
// so entries are vetted here rather than at use time: a malformed date or a
// negative value fails the whole load.
func LoadOverrides(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file: %w", err)
	}

	for date, value := range file.Overrides {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("override date '%s' is not YYYY-MM-DD", date)
		}
		if value < 0 {
			return nil, fmt.Errorf("override for %s is negative", date)
		}
	}

	if file.Overrides == nil {
		file.Overrides = map[string]float64{}
	}
	return file.Overrides, nil
}
