package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nvfand/nvfand/internal/nvctl"
	"github.com/nvfand/nvfand/internal/ui"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [gpu:fan]",
	Short: "Restore automatic fan control and exit",
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

		return withControl(func(control nvctl.Control) error {
			for _, profile := range profiles {
				if err := control.SetAutoControl(profile.GpuIndex); err != nil {
					return err
				}
				ui.Info("Automatic fan control restored for profile %s", profile.ID())
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
