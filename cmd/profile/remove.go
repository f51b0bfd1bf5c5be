package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/ui"
)

var removeCmd = &cobra.Command{
	Use:   "remove <gpu:fan>",
	Short: "Remove a profile from the configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := readConfig()

		gpuIndex, fanIndex, err := configuration.ParseProfileToken(args[0])
		if err != nil {
			return err
		}

		config := &configuration.CurrentConfig
		if !config.RemoveProfile(gpuIndex, fanIndex) {
			return fmt.Errorf("no profile for %d:%d", gpuIndex, fanIndex)
		}

		if err := configuration.SaveConfig(config, configPath); err != nil {
			return err
		}
		ui.Info("Profile %d:%d removed", gpuIndex, fanIndex)
		return nil
	},
}

func init() {
	Command.AddCommand(removeCmd)
}
