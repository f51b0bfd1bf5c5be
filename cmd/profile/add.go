package profile

import (
	"github.com/spf13/cobra"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/ui"
)

var (
	addCurve      string
	addHysteresis int
)

var addCmd = &cobra.Command{
	Use:   "add <gpu:fan>",
	Short: "Add a profile for a (gpu, fan) pair to the configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := readConfig()

		gpuIndex, fanIndex, err := configuration.ParseProfileToken(args[0])
		if err != nil {
			return err
		}

		config := &configuration.CurrentConfig
		profile := config.EnsureProfile(gpuIndex, fanIndex)
		if cmd.Flags().Changed("curve") {
			profile.Curve = addCurve
		}
		if cmd.Flags().Changed("hysteresis") {
			profile.Hysteresis = addHysteresis
		}

		if err := configuration.SaveConfig(config, configPath); err != nil {
			return err
		}
		ui.Info("Profile %s saved", profile.ID())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addCurve, "curve", configuration.DefaultCurve, "Curve as comma separated temperature:speed pairs")
	addCmd.Flags().IntVar(&addHysteresis, "hysteresis", configuration.DefaultHysteresis, "Minimum speed delta (percent) before a new command is issued")
	Command.AddCommand(addCmd)
}
