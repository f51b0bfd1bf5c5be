package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/controller"
	"github.com/nvfand/nvfand/internal/curve"
	"github.com/nvfand/nvfand/internal/nvctl"
)

var applyNoRestore bool

var applyCmd = &cobra.Command{
	Use:   "apply [gpu:fan]",
	Short: "Apply the configured curve once and exit",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		if err := readConfig(); err != nil {
			return err
		}

		profiles, err := selectProfiles(args)
		if err != nil {
			return err
		}
		config := configuration.CurrentConfig

		return withControl(func(control nvctl.Control) error {
			for _, profile := range profiles {
				table, err := curve.Parse(profile.Curve)
				if err != nil {
					return err
				}
				target := controller.Target{
					GpuIndex:       profile.GpuIndex,
					FanIndex:       profile.FanIndex,
					Curve:          table,
					PollInterval:   config.PollInterval,
					Hysteresis:     profile.Hysteresis,
					TempWindowSize: 1,
				}
				fanController := controller.NewFanController(control, nil, target, !applyNoRestore)
				if err := fanController.RunOnce(); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyNoRestore, "no-restore", false, "Keep manual fan control after applying")
	rootCmd.AddCommand(applyCmd)
}
