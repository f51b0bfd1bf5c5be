package cmd

import (
	"context"
	"fmt"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/nvctl"
	"github.com/nvfand/nvfand/internal/ui"
	"github.com/nvfand/nvfand/internal/xorg"
)

// readConfig loads and validates the configuration for a one-shot command.
func readConfig() error {
	configPath := configuration.DetectAndReadConfigFile()
	if len(configPath) > 0 {
		ui.Debug("Using configuration file at: %s", configPath)
	}
	configuration.LoadConfig()
	return configuration.Validate()
}

// withControl acquires the display session, hands a driver control to the
// given function and releases the session afterwards.
func withControl(fn func(control nvctl.Control) error) error {
	config := configuration.CurrentConfig

	session := xorg.NewSession(config.Display, config.RunDir)
	handle, err := session.Acquire(context.Background())
	if err != nil {
		return fmt.Errorf("cannot acquire display session %s: %w", config.Display, err)
	}
	defer session.Release()

	control, err := nvctl.NewControl(handle.Display, handle.AuthorityFile)
	if err != nil {
		return err
	}
	return fn(control)
}

// selectProfiles resolves an optional "gpu:fan" selector argument against the
// configured profiles.
func selectProfiles(args []string) ([]configuration.ProfileConfig, error) {
	profiles := configuration.CurrentConfig.Profiles
	if len(args) == 0 {
		return profiles, nil
	}

	gpuIndex, fanIndex, err := configuration.ParseProfileToken(args[0])
	if err != nil {
		return nil, err
	}
	idx := configuration.FindProfile(profiles, gpuIndex, fanIndex)
	if idx < 0 {
		return nil, fmt.Errorf("profile %s not found", args[0])
	}
	return profiles[idx : idx+1], nil
}
