package configuration

import (
	"errors"
	"fmt"

	"github.com/nvfand/nvfand/internal/curve"
	"golang.org/x/exp/slices"
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	if len(config.Display) == 0 {
		return errors.New("display must not be empty")
	}
	if config.PollInterval < MinPollInterval {
		return fmt.Errorf("pollInterval must be at least %s", MinPollInterval)
	}
	if config.TempRollingWindowSize < 1 {
		return errors.New("tempRollingWindowSize must be >= 1")
	}
	if len(config.Profiles) == 0 {
		return errors.New("at least one profile must be configured")
	}

	var seen []string
	for _, profile := range config.Profiles {
		if profile.GpuIndex < 0 || profile.FanIndex < 0 {
			return fmt.Errorf("profile %s: gpu and fan indices must be non-negative", profile.ID())
		}
		if profile.Hysteresis < 0 {
			return fmt.Errorf("profile %s: hysteresis must be non-negative", profile.ID())
		}
		if _, err := curve.Parse(profile.Curve); err != nil {
			return fmt.Errorf("profile %s: invalid curve: %w", profile.ID(), err)
		}
		if slices.Contains(seen, profile.ID()) {
			return fmt.Errorf("profile %s: duplicate gpu/fan pair", profile.ID())
		}
		seen = append(seen, profile.ID())
	}

	return nil
}
