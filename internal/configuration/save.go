package configuration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where a config file is created when none exists yet.
const DefaultConfigPath = "/etc/nvfand/nvfand.yaml"

// SaveConfig validates the given configuration and writes it to path
// atomically, creating parent directories as needed.
func SaveConfig(config *Configuration, path string) error {
	if len(path) == 0 {
		path = DefaultConfigPath
	}
	if err := validateConfig(config); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(configDocument(config))
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// configDocument maps the configuration onto the on-disk representation.
// The poll interval is written as a duration string so it round-trips
// through the decode hooks.
func configDocument(config *Configuration) map[string]interface{} {
	profiles := make([]map[string]interface{}, 0, len(config.Profiles))
	for _, profile := range config.Profiles {
		profiles = append(profiles, map[string]interface{}{
			"gpuIndex":   profile.GpuIndex,
			"fanIndex":   profile.FanIndex,
			"curve":      profile.Curve,
			"hysteresis": profile.Hysteresis,
		})
	}

	return map[string]interface{}{
		"display":               config.Display,
		"runDir":                config.RunDir,
		"dbPath":                config.DbPath,
		"pollInterval":          config.PollInterval.String(),
		"tempRollingWindowSize": config.TempRollingWindowSize,
		"restoreOnExit":         config.RestoreOnExit,
		"profiles":              profiles,
	}
}
