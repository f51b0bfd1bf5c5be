package profile

import (
	"github.com/spf13/cobra"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/ui"
)

var Command = &cobra.Command{
	Use:   "profile",
	Short: "Commands for managing (gpu, fan) profiles",
}

// readConfig loads and validates the configuration and returns the path of
// the file the result should be written back to.
func readConfig() string {
	configPath := configuration.DetectAndReadConfigFile()
	if len(configPath) > 0 {
		ui.Debug("Using configuration file at: %s", configPath)
	}
	configuration.LoadConfig()
	if err := configuration.Validate(); err != nil {
		ui.Fatal(err.Error())
	}
	return configPath
}
